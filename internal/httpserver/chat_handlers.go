package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"negoshop/internal/service"
)

func handleStartNegotiation(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
			return
		}
		conv, err := chatSvc.StartNegotiation(r.Context(), CurrentUser(r), productID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

func handleListConversations(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := chatSvc.ListConversations(r.Context(), CurrentUser(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

func handleListMessages(chatSvc *service.ChatService, maxMessages int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > maxMessages {
			limit = maxMessages
		}
		msgs, err := chatSvc.ListMessages(r.Context(), CurrentUser(r), conversationID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

type messageRequest struct {
	Content string `json:"content"`
}

// messageCreatedResponse carries the stored buyer message plus the automated
// reply when one was produced.
type messageCreatedResponse struct {
	Message *service.MessageResponse `json:"message"`
	Reply   *service.MessageResponse `json:"reply,omitempty"`
}

func handleCreateMessage(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		msg, reply, err := chatSvc.HandleMessage(r.Context(), CurrentUser(r), conversationID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, messageCreatedResponse{Message: msg, Reply: reply})
	}
}
