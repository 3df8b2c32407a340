package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	billingapp "medibill-ai/internal/billing/application"
	billing "medibill-ai/internal/billing/domain"
	"medibill-ai/internal/billing/interfaces"
	"medibill-ai/internal/observability/metrics"
)

const routePrefix = "/api/v1/admissions/"

// Handler serves admission items and bill exports.
type Handler struct {
	service *billingapp.Service
	logger  zerolog.Logger
	now     func() time.Time
}

// NewHandler constructs a handler.
func NewHandler(service *billingapp.Service, logger zerolog.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("billing handler: nil service")
	}
	return &Handler{
		service: service,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

type itemsResponse struct {
	AdmissionID string          `json:"admission_id"`
	Items       []billing.Item  `json:"items"`
	Summary     billing.Summary `json:"summary"`
}

type addItemRequest struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Timestamp   *time.Time      `json:"timestamp"`
}

// ServeHTTP handles /api/v1/admissions/{id} and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, routePrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, routePrefix), "/"), "/")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	admissionID := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleAdmission(w, r, admissionID)
		return
	}

	switch parts[1] {
	case "items":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r, admissionID)
		case http.MethodPost:
			h.handleAdd(w, r, admissionID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "bill.pdf":
		h.handleExport(w, r, admissionID, "pdf")
	case "bill.xlsx":
		h.handleExport(w, r, admissionID, "xlsx")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleAdmission(w http.ResponseWriter, r *http.Request, admissionID string) {
	adm, err := h.service.GetAdmission(r.Context(), admissionID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adm)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, admissionID string) {
	items, err := h.service.ListItems(r.Context(), admissionID)
	if err != nil {
		respondError(w, err)
		return
	}
	summary, err := h.service.Summary(r.Context(), admissionID)
	if err != nil {
		respondError(w, err)
		return
	}
	if items == nil {
		items = []billing.Item{}
	}
	writeJSON(w, http.StatusOK, itemsResponse{AdmissionID: admissionID, Items: items, Summary: summary})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request, admissionID string) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	category, err := billing.ParseCategory(req.Category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input := billingapp.NewItem{
		ID:          req.ID,
		Description: req.Description,
		Category:    category,
		Amount:      req.Amount,
		Currency:    req.Currency,
	}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}
	item, err := h.service.AddItem(r.Context(), admissionID, input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, admissionID, format string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveBillExport(format, result, time.Since(start))
	}()

	adm, err := h.service.GetAdmission(r.Context(), admissionID)
	if err != nil {
		result = metrics.ResultError
		respondError(w, err)
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pdf":
		data, err = interfaces.BuildBillPDF(adm, h.now())
		contentType = "application/pdf"
	case "xlsx":
		data, err = interfaces.BuildBillXLSX(adm, h.now())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		h.logger.Error().Err(err).Str("admission_id", admissionID).Str("format", format).Msg("bill export failed")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"bill-%s.%s\"", admissionID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, billing.ErrDuplicateItem):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, billing.ErrNegativeAmount),
		errors.Is(err, billing.ErrInvalidCategory),
		errors.Is(err, billing.ErrEmptyDescription),
		errors.Is(err, billing.ErrEmptyAdmissionID),
		errors.Is(err, billing.ErrCurrencyMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
