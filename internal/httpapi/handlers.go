package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"regwatch/internal/logging"
	"regwatch/internal/period"
	"regwatch/internal/store"
)

type handlers struct {
	storage Storage
	logger  *slog.Logger
}

type periodResponse struct {
	DocumentID         string            `json:"document_id"`
	DocketID           string            `json:"docket_id"`
	Title              string            `json:"title"`
	AgencyID           string            `json:"agency_id"`
	AgencyName         string            `json:"agency_name"`
	DocumentType       string            `json:"document_type,omitempty"`
	PostedDate         string            `json:"posted_date"`
	CommentStart       string            `json:"comment_start_date,omitempty"`
	CommentEnd         string            `json:"comment_end_date"`
	Abstract           string            `json:"abstract,omitempty"`
	Summary            string            `json:"summary,omitempty"`
	Keywords           string            `json:"keywords,omitempty"`
	CommentURL         string            `json:"comment_url"`
	DetailURL          string            `json:"detail_url"`
	FederalRegisterURL string            `json:"federal_register_url,omitempty"`
	Topics             []string          `json:"topics"`
	Delivered          map[string]bool   `json:"delivered"`
	Receipts           []receiptResponse `json:"receipts,omitempty"`
}

type receiptResponse struct {
	Stage          string `json:"stage"`
	ExternalPostID string `json:"external_post_id,omitempty"`
	DeliveredAt    string `json:"delivered_at"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listPeriods(w http.ResponseWriter, r *http.Request) {
	filter := store.OpenFilter{
		AsOf:     time.Now().UTC(),
		AgencyID: r.URL.Query().Get("agency"),
		SortBy:   r.URL.Query().Get("sort"),
	}
	switch filter.SortBy {
	case "", "deadline", "posted":
	default:
		writeError(w, http.StatusBadRequest, "unknown sort key")
		return
	}
	if raw := r.URL.Query().Get("topic"); raw != "" {
		topic, ok := period.ParseTopic(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown topic")
			return
		}
		filter.Topic = topic
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	periods, err := h.storage.QueryOpen(r.Context(), filter)
	if err != nil {
		h.logger.Error("list periods failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	response := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		response = append(response, renderPeriod(p, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(response),
		"periods": response,
	})
}

func (h *handlers) getPeriod(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	p, err := h.storage.Get(r.Context(), documentID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown document")
		return
	}
	if err != nil {
		h.logger.Error("get period failed",
			logging.String(logging.FieldDocumentID, documentID),
			logging.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	receipts, err := h.storage.Receipts(r.Context(), documentID)
	if err != nil {
		h.logger.Error("get receipts failed",
			logging.String(logging.FieldDocumentID, documentID),
			logging.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, renderPeriod(p, receipts))
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.storage.GetStats(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("stats failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"total_periods":     stats.TotalPeriods,
		"open_periods":      stats.OpenPeriods,
		"announced_periods": stats.AnnouncedPeriods,
		"total_receipts":    stats.TotalReceipts,
	})
}

func renderPeriod(p *period.CommentPeriod, receipts []store.Receipt) periodResponse {
	response := periodResponse{
		DocumentID:         p.DocumentID,
		DocketID:           p.DocketID,
		Title:              p.Title,
		AgencyID:           p.AgencyID,
		AgencyName:         p.AgencyName,
		DocumentType:       p.DocumentType,
		PostedDate:         p.PostedDate.Format(time.DateOnly),
		CommentEnd:         p.CommentEnd.Format(time.DateOnly),
		Abstract:           p.Abstract,
		Summary:            p.Summary,
		Keywords:           p.Keywords,
		CommentURL:         p.CommentURL,
		DetailURL:          p.DetailURL,
		FederalRegisterURL: p.FederalRegisterURL,
		Topics:             make([]string, 0, len(p.Topics)),
		Delivered:          make(map[string]bool, len(p.Delivered)),
	}
	if p.CommentStart != nil {
		response.CommentStart = p.CommentStart.Format(time.DateOnly)
	}
	for _, topic := range p.Topics {
		response.Topics = append(response.Topics, string(topic))
	}
	for stage, delivered := range p.Delivered {
		response.Delivered[string(stage)] = delivered
	}
	for _, receipt := range receipts {
		response.Receipts = append(response.Receipts, receiptResponse{
			Stage:          string(receipt.Stage),
			ExternalPostID: receipt.ExternalPostID,
			DeliveredAt:    receipt.DeliveredAt.Format(time.RFC3339),
		})
	}
	return response
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
