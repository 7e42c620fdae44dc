package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/anvikal/ragchat/internal/adapter"
	"github.com/anvikal/ragchat/internal/adapter/utils"
	"github.com/anvikal/ragchat/internal/api"
	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
)

// CreateConversationHandler godoc
// @Summary      Create a conversation
// @Description  Creates an empty conversation to attach documents and messages to.
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreateConversationRequest  false  "Optional title"
// @Success      201      {object}  api.ConversationResponse
// @Router       /conversations [post]
func CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	var requestData api.CreateConversationRequest
	if r.Body != nil {
		defer r.Body.Close()
		// an empty body is fine, the title is optional
		_ = json.NewDecoder(r.Body).Decode(&requestData)
	}

	conversation := chatmodel.Conversation{
		Id:        utils.GetNewUUID(),
		Title:     requestData.Title,
		CreatedAt: time.Now(),
	}
	if err := handlerInstance.Conversations.Create(r.Context(), conversation); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJsonResponse(w, http.StatusCreated, adapter.ToConversationResponse(conversation))
}

// GetConversationHandler godoc
// @Summary      Get a conversation
// @Description  Returns the conversation, its recent messages and its documents.
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  api.ConversationDetailResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /conversations/{id} [get]
func GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	conversation, found := handlerInstance.Conversations.Get(r.Context(), id)
	if !found {
		writeDomainError(w, &chatmodel.NotFoundError{Kind: "conversation", Id: id})
		return
	}

	messages, err := handlerInstance.Conversations.RecentMessages(r.Context(), id, config.HistoryWindow)
	if err != nil {
		logger.Error("Error loading messages", "conversation", id, "error", err)
	}
	documents, err := handlerInstance.Documents.DocumentsByConversation(r.Context(), id)
	if err != nil {
		logger.Error("Error loading documents", "conversation", id, "error", err)
	}

	writeJsonResponse(w, http.StatusOK, api.ConversationDetailResponse{
		Conversation: adapter.ToConversationResponse(conversation),
		Messages:     messages,
		Documents:    documents,
	})
}

// DeleteConversationHandler godoc
// @Summary      Delete a conversation
// @Description  Removes the conversation, its messages, its documents and their vectors.
// @Tags         Conversations
// @Param        id   path  string  true  "Conversation ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /conversations/{id} [delete]
func DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	if _, found := handlerInstance.Conversations.Get(r.Context(), id); !found {
		writeDomainError(w, &chatmodel.NotFoundError{Kind: "conversation", Id: id})
		return
	}

	documents, err := handlerInstance.Documents.DocumentsByConversation(r.Context(), id)
	if err != nil {
		logger.Error("Error listing documents for cascade", "conversation", id, "error", err)
	}
	for _, d := range documents {
		if err := handlerInstance.Retriever.DeleteByDocument(r.Context(), d.Id); err != nil {
			logger.Error("Error deleting document vectors", "document", d.Id, "error", err)
		}
		if err := handlerInstance.Documents.DeleteDocument(r.Context(), d.Id); err != nil {
			logger.Error("Error deleting document rows", "document", d.Id, "error", err)
		}
	}

	if err := handlerInstance.Conversations.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
