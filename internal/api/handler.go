package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/service"
)

// Handler exposes the message intake API.
type Handler struct {
	turns *service.TurnService
	log   zerolog.Logger
}

// NewHandler creates the API handler.
func NewHandler(turns *service.TurnService, log zerolog.Logger) *Handler {
	return &Handler{turns: turns, log: log}
}

// Router returns the HTTP mux.
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /message", h.handleMessage)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

type messageRequest struct {
	Customer string `json:"cliente"`
	Text     string `json:"texto"`
	MsgID    string `json:"mid,omitempty"`
}

// handleMessage accepts one message fragment. It returns 202
// immediately: the reply is produced asynchronously after debouncing
// and delivered through the outbound webhook.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"erro": "json inválido"}`, http.StatusBadRequest)
		return
	}
	if req.Customer == "" || req.Text == "" {
		http.Error(w, `{"erro": "cliente e texto são obrigatórios"}`, http.StatusBadRequest)
		return
	}
	if err := h.turns.Enqueue(r.Context(), req.Customer, req.Text, req.MsgID); err != nil {
		h.log.Error().Err(err).Str("customer", req.Customer).Msg("enqueue failed")
		http.Error(w, `{"erro": "falha interna"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "aceito"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
