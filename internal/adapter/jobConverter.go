package adapter

import (
	"fmt"

	"github.com/anvikal/ragchat/internal/api"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/domain/jobmodel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("jobs/%s", id),
	}
}

func ToJobResponse(job jobmodel.Job) api.JobResponse {
	var errorPtr *api.OutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.OutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	var resultPtr *chatmodel.FileResult
	if job.Result.Status != "" {
		result := job.Result
		resultPtr = &result
	}

	return api.JobResponse{
		Id:        job.Id,
		Status:    string(job.Status),
		Step:      string(job.CurrentStep),
		Result:    resultPtr,
		Error:     errorPtr,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
	}
}

func ToConversationResponse(c chatmodel.Conversation) api.ConversationResponse {
	return api.ConversationResponse{
		Id:        c.Id,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	}
}
