package api

import (
	"time"

	"github.com/anvikal/ragchat/internal/domain/chatmodel"
)

// requests---------------------

type CreateConversationRequest struct {
	Title string `json:"title,omitempty" example:"Trip planning"`
}

type ChatRequest struct {
	ConversationId string `json:"conversationId" validate:"required" example:"conv_550"`
	Message        string `json:"message" validate:"required" example:"What is the capital of France?"`
}

// responses--------------------

type ConversationResponse struct {
	Id        string    `json:"id" example:"conv_550"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationDetailResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Messages     []chatmodel.Message  `json:"messages"`
	Documents    []chatmodel.Document `json:"documents"`
}

type ChatResponse struct {
	Message   chatmodel.Message    `json:"message"`
	Citations []chatmodel.Citation `json:"citations"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type JobResponse struct {
	Id        string                `json:"id" example:"job_cz109"`
	Status    string                `json:"status"`
	Step      string                `json:"step,omitempty"`
	Result    *chatmodel.FileResult `json:"result,omitempty"`
	Error     *OutgoingError        `json:"error,omitempty"`
	StartTime time.Time             `json:"start_time"`
	EndTime   time.Time             `json:"end_time,omitempty"`
}

type OutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"conversation not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RateStatusResponse struct {
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}
