package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/x402nexus/relay/internal/core/domain"
	"github.com/x402nexus/relay/internal/infra/store"
)

type createPaymentRequest struct {
	Amount         float64 `json:"amount"`
	Recipient      string  `json:"recipient"`
	Metadata       string  `json:"metadata,omitempty"`
	IdempotencyKey string  `json:"idempotencyKey,omitempty"`
	SenderKey      string  `json:"senderKey,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount must be positive"})
		return
	}
	if req.Recipient == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "recipient is required"})
		return
	}

	senderKey := req.SenderKey
	if senderKey == "" {
		senderKey = "demo-key"
	}

	result, err := s.orch.ProcessPayment(r.Context(), domain.PaymentRequest{
		Amount:         req.Amount,
		Recipient:      req.Recipient,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
	}, senderKey)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := mux.Vars(r)["id"]

	result, err := s.orch.GetPaymentStatus(r.Context(), paymentID)
	if err == store.ErrNotFound {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "payment not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type metricsSummary struct {
	TotalSubmitted    int64 `json:"totalSubmitted"`
	TotalConfirmed    int64 `json:"totalConfirmed"`
	TotalFailed       int64 `json:"totalFailed"`
	TotalRefunded     int64 `json:"totalRefunded"`
	AvgProcessingTime int64 `json:"avgProcessingTimeMs"`
}

func (s *Server) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary := metricsSummary{}

	var err error
	if summary.TotalSubmitted, err = s.store.Metric(ctx, "total_submitted"); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	summary.TotalConfirmed, _ = s.store.Metric(ctx, "total_confirmed")
	summary.TotalFailed, _ = s.store.Metric(ctx, "total_failed")
	summary.TotalRefunded, _ = s.store.Metric(ctx, "total_refunded")

	if totalTime, _ := s.store.Metric(ctx, "total_processing_time"); summary.TotalSubmitted > 0 {
		summary.AvgProcessingTime = totalTime / summary.TotalSubmitted
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		// Degraded mode still serves payments; report it, don't fail.
		status = "degraded"
	}

	writeJSON(w, code, map[string]string{"status": status})
}
