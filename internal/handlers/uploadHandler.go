package handlers

import (
	"net/http"
	"os"

	"github.com/anvikal/ragchat/internal/adapter/utils"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/rag/ingest"
)

// multipart parse budget, individual files are still capped separately
const maxMultipartMemory = 32 << 20

// UploadHandler godoc
// @Summary      Upload documents for retrieval
// @Description  Accepts one or more files plus a conversation id, ingests them synchronously and reports per-file outcomes.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        conversation_id  formData  string  true  "Owning conversation"
// @Param        documents        formData  file    true  "Files to ingest"
// @Success      200  {object}  chatmodel.UploadSummary
// @Failure      400  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /upload [post]
func UploadHandler(w http.ResponseWriter, r *http.Request) {
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

	fileHeaders := r.MultipartForm.File["documents"]
	if len(fileHeaders) == 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	targetDir, err := getTargetDirectory()
	if err != nil {
		logger.Error("Couldn't get target directory", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	var staged []ingest.StagedFile
	summary := chatmodel.UploadSummary{}
	for _, header := range fileHeaders {
		f, err := stageFile(targetDir, header)
		if err != nil {
			logger.Error("Error staging upload", "file", header.Filename, "error", err)
			summary.Failed++
			summary.Files = append(summary.Files, chatmodel.FileResult{
				Filename: header.Filename,
				Status:   chatmodel.FileStatusError,
				Error:    "could not store uploaded file",
			})
			continue
		}
		staged = append(staged, f)
	}

	processed := handlerInstance.Pipeline.ProcessBatch(r.Context(), conversationId, staged)
	summary.Files = append(summary.Files, processed.Files...)
	summary.Succeeded += processed.Succeeded
	summary.Failed += processed.Failed

	for _, f := range staged {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			logger.Error("Error removing staged file", "path", f.Path, "error", err)
		}
	}

	writeJsonResponse(w, http.StatusOK, summary)
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document
// @Description  Removes the document's vectors from the index and its rows from storage.
// @Tags         Documents
// @Param        id   path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	if _, found := handlerInstance.Documents.GetDocument(r.Context(), id); !found {
		writeDomainError(w, &chatmodel.NotFoundError{Kind: "document", Id: id})
		return
	}

	if err := handlerInstance.Retriever.DeleteByDocument(r.Context(), id); err != nil {
		logger.Error("Error deleting document vectors", "document", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "could not delete document")
		return
	}
	if err := handlerInstance.Documents.DeleteDocument(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
