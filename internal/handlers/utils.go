package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anvikal/ragchat/internal/api"
	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/rag/ingest"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.ErrorResponse{Error: message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Anything
// unclassified becomes a generic 500; upstream details never reach clients.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *chatmodel.ValidationError
	if errors.As(err, &validationErr) {
		WriteErrorResponse(w, http.StatusBadRequest, validationErr.Error())
		return
	}
	var notFoundErr *chatmodel.NotFoundError
	if errors.As(err, &notFoundErr) {
		WriteErrorResponse(w, http.StatusNotFound, notFoundErr.Error())
		return
	}
	var rateLimitErr *chatmodel.RateLimitError
	if errors.As(err, &rateLimitErr) {
		writeJsonResponse(w, http.StatusTooManyRequests, api.ErrorResponse{
			Error:      "rate limit exceeded",
			RetryAfter: rateLimitErr.RetryAfter,
		})
		return
	}
	logger.Error("Unhandled error on request", "error", err)
	WriteErrorResponse(w, http.StatusInternalServerError, "internal server error")
}

func validateContext(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		logger.Warn("context cancelled", "error", ctx.Err())
		return false
	default:
		return true
	}
}

func getTargetDirectory() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}

	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}

// stageFile copies one uploaded file to the temp directory and describes it
// for the ingestion pipeline.
func stageFile(targetDir string, header *multipart.FileHeader) (ingest.StagedFile, error) {
	src, err := header.Open()
	if err != nil {
		return ingest.StagedFile{}, err
	}
	defer src.Close()

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	tempFilePath := filepath.Join(targetDir, filename)
	dst, err := os.Create(tempFilePath)
	if err != nil {
		return ingest.StagedFile{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(tempFilePath)
		return ingest.StagedFile{}, err
	}

	return ingest.StagedFile{
		Path:         tempFilePath,
		OriginalName: header.Filename,
		MediaType:    header.Header.Get("Content-Type"),
		Size:         header.Size,
	}, nil
}

func traceIdFrom(r *http.Request) string {
	if v, ok := r.Context().Value(config.TRACE_ID_KEY).(string); ok {
		return v
	}
	return ""
}
