package handlers

import (
	"net/http"

	"github.com/anvikal/ragchat/internal/adapter"
	"github.com/anvikal/ragchat/internal/adapter/utils"
	"github.com/anvikal/ragchat/internal/api"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/domain/jobmodel"
)

// PostIngestHandler godoc
// @Summary      Queue a document for background ingestion
// @Description  Stages the file and returns a job id. Suited to large documents; small uploads can use /upload instead.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        conversation_id  formData  string  true  "Owning conversation"
// @Param        document         formData  file    true  "File to ingest"
// @Success      202  {object}  api.InitJobResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "file too large or bad request")
		return
	}

	conversationId := r.FormValue("conversation_id")
	if conversationId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "conversation_id is required")
		return
	}
	if _, found := handlerInstance.Conversations.Get(r.Context(), conversationId); !found {
		writeDomainError(w, &chatmodel.NotFoundError{Kind: "conversation", Id: conversationId})
		return
	}

	_, header, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "could not retrieve file")
		return
	}

	targetDir, err := getTargetDirectory()
	if err != nil {
		logger.Error("Couldn't get target directory", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	staged, err := stageFile(targetDir, header)
	if err != nil {
		logger.Error("Error staging upload", "file", header.Filename, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	newJob := jobmodel.Job{
		Id:             utils.GetNewUUID(),
		TraceId:        traceIdFrom(r),
		ConversationId: conversationId,
		FilePath:       staged.Path,
		OriginalName:   staged.OriginalName,
		MediaType:      staged.MediaType,
		Size:           staged.Size,
	}
	if err := handlerInstance.Jobs.Enqueue(r.Context(), newJob); err != nil {
		logger.Error("Error enqueueing ingestion job", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "could not queue ingestion")
		return
	}

	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}

// GetJobStatusHandler godoc
// @Summary      Get ingestion job status
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /jobs/{id} [get]
func GetJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	if id == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "job id is required")
		return
	}
	result, found := handlerInstance.Jobs.JobStore.GetJob(r.Context(), id)
	if !found {
		writeDomainError(w, &chatmodel.NotFoundError{Kind: "job", Id: id})
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToJobResponse(result))
}

// GetRateStatusHandler godoc
// @Summary      Remaining chat quota
// @Description  Read-only; does not consume a slot.
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  api.RateStatusResponse
// @Router       /ratelimit [get]
func GetRateStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := handlerInstance.Orchestrator.RateStatus()
	writeJsonResponse(w, http.StatusOK, api.RateStatusResponse{
		Remaining: status.Remaining,
		Reset:     status.Reset,
	})
}
