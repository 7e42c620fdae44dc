package jobmodel

import (
	"context"
	"time"

	"github.com/anvikal/ragchat/internal/domain/chatmodel"
)

type JobStatus string
type InternalStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "ERROR"

	IngestInit     InternalStatus = "Init"
	IngestValidate InternalStatus = "Validate"
	IngestExtract  InternalStatus = "Extract"
	IngestChunk    InternalStatus = "Chunk"
	IngestEmbed    InternalStatus = "Embed"
	IngestUpsert   InternalStatus = "Upsert"
	Complete       InternalStatus = "Complete"
	Failed         InternalStatus = "Error"
)

// Job is one queued document ingestion. The file has already been staged to
// a temp path by the upload handler; workers own it from there.
type Job struct {
	Id             string               `json:"id"`
	TraceId        string               `json:"trace_id"`
	ConversationId string               `json:"conversation_id"`
	FilePath       string               `json:"file_path"`
	OriginalName   string               `json:"original_name"`
	MediaType      string               `json:"media_type"`
	Size           int64                `json:"size"`
	Result         chatmodel.FileResult `json:"result,omitempty"`
	Error          JobError             `json:"error,omitempty"`
	CreatedTime    time.Time            `json:"created_time"`
	EndTime        time.Time            `json:"end_time,omitempty"`
	Status         JobStatus            `json:"status"`
	CurrentStep    InternalStatus       `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
