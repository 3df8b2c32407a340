package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	billing "medibill-ai/internal/billing/domain"
	explainapp "medibill-ai/internal/explain/application"
	explain "medibill-ai/internal/explain/domain"
	"medibill-ai/internal/session"
)

// APIHandler serves POST /api/v1/explanations.
type APIHandler struct {
	bills       BillReader
	explainer   Explainer
	sessions    *session.Store
	admissionID string
	logger      zerolog.Logger
}

// NewAPIHandler constructs the JSON explanation handler. Requests without an
// admission_id use the default admission.
func NewAPIHandler(bills BillReader, explainer Explainer, sessions *session.Store, admissionID string, logger zerolog.Logger) (*APIHandler, error) {
	if bills == nil {
		return nil, errors.New("explanations handler: nil bill reader")
	}
	if explainer == nil {
		return nil, errors.New("explanations handler: nil explainer")
	}
	if sessions == nil {
		return nil, errors.New("explanations handler: nil session store")
	}
	return &APIHandler{
		bills:       bills,
		explainer:   explainer,
		sessions:    sessions,
		admissionID: admissionID,
		logger:      logger.With().Str("component", "api").Logger(),
	}, nil
}

type explainRequest struct {
	AdmissionID string `json:"admission_id"`
	ItemID      string `json:"item_id"`
	Mode        string `json:"mode"`
	Language    string `json:"language"`
	Visual      bool   `json:"visual"`
}

type explainResponse struct {
	ItemID            string    `json:"item_id"`
	Mode              string    `json:"mode"`
	Language          string    `json:"language"`
	Explanation       string    `json:"explanation"`
	CoverageLabel     string    `json:"coverage_label"`
	InsuranceNote     string    `json:"insurance_note,omitempty"`
	Disclaimer        string    `json:"disclaimer,omitempty"`
	VisualDescription string    `json:"visual_description,omitempty"`
	VisualUnavailable bool      `json:"visual_unavailable,omitempty"`
	GeneratedAt       time.Time `json:"generated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	req.ItemID = strings.TrimSpace(req.ItemID)
	if req.ItemID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "item_id is required"})
		return
	}
	admissionID := strings.TrimSpace(req.AdmissionID)
	if admissionID == "" {
		admissionID = h.admissionID
	}

	sess, err := h.sessions.Ensure(w, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session unavailable"})
		return
	}
	mode, lang := sess.Preferences()
	if req.Mode != "" {
		if mode, err = explain.ParseAudienceMode(req.Mode); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}
	if req.Language != "" {
		if lang, err = explain.ParseLanguage(req.Language); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	item, err := h.bills.FindItem(r.Context(), admissionID, req.ItemID)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "item not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.explainer.Explain(r.Context(), sess.Cache(), item, mode, lang, explainapp.Options{Visual: req.Visual})
	if err != nil {
		h.logger.Warn().Err(err).Str("item_id", item.ID).Msg("explain failed")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: UnavailableMessage})
		return
	}
	writeJSON(w, http.StatusOK, explainResponse{
		ItemID:            result.ItemID,
		Mode:              string(result.Mode),
		Language:          string(result.Language),
		Explanation:       result.Text,
		CoverageLabel:     string(result.Coverage),
		InsuranceNote:     result.InsuranceNote,
		Disclaimer:        result.Disclaimer,
		VisualDescription: result.VisualDescription,
		VisualUnavailable: result.VisualUnavailable,
		GeneratedAt:       result.GeneratedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
