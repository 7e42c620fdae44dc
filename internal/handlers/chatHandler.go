package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/anvikal/ragchat/internal/api"
)

// ChatHandler godoc
// @Summary      Ask a question (non-streaming)
// @Description  Runs a full chat turn and returns the assistant message with its citations.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest  true  "Conversation ID and message"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      429      {object}  api.ErrorResponse
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	requestData, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	message, citations, err := handlerInstance.Orchestrator.CompleteTurn(r.Context(), requestData.ConversationId, requestData.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJsonResponse(w, http.StatusOK, api.ChatResponse{Message: message, Citations: citations})
}

// ChatStreamHandler godoc
// @Summary      Ask a question (streaming)
// @Description  Streams the answer as newline-delimited JSON events: chunk* then done or error.
// @Tags         Chat
// @Accept       json
// @Produce      application/x-ndjson
// @Param        request  body  api.ChatRequest  true  "Conversation ID and message"
// @Success      200  {string}  string  "NDJSON event stream"
// @Failure      400  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      429  {object}  api.ErrorResponse
// @Router       /chat/stream [post]
func ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	requestData, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	events, err := handlerInstance.Orchestrator.StreamTurn(r.Context(), requestData.ConversationId, requestData.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// quota telemetry so clients can disable input pre-emptively
	status := handlerInstance.Orchestrator.RateStatus()
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(status.Reset.Unix(), 10))
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	encoder := json.NewEncoder(w)

	clientGone := false
	for event := range events {
		// after a disconnect keep draining so the producer can finish
		// and persist, but stop writing
		if clientGone {
			continue
		}
		select {
		case <-r.Context().Done():
			clientGone = true
			logger.Debug("Client disconnected mid-stream")
			continue
		default:
		}
		if err := encoder.Encode(event); err != nil {
			clientGone = true
			continue
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (api.ChatRequest, bool) {
	var requestData api.ChatRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logger.Error("Couldn't close the request body", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logger.Warn("Bad chat request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "malformed request body")
		return requestData, false
	}
	return requestData, true
}
