package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	billing "medibill-ai/internal/billing/domain"
	"medibill-ai/internal/coverage"
	explainapp "medibill-ai/internal/explain/application"
	explain "medibill-ai/internal/explain/domain"
	"medibill-ai/internal/session"
)

// UnavailableMessage is shown in place of a failed explanation.
const UnavailableMessage = "Explanation unavailable — please retry"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// BillReader loads the bill shown on the page.
type BillReader interface {
	GetAdmission(ctx context.Context, admissionID string) (*billing.Admission, error)
	FindItem(ctx context.Context, admissionID, itemID string) (billing.Item, error)
}

// Explainer produces explanations for bill items.
type Explainer interface {
	Explain(ctx context.Context, cache *explainapp.Cache, item billing.Item, mode explain.AudienceMode, lang explain.Language, opts explainapp.Options) (explain.Explanation, error)
}

// Handler serves the bill page and its form actions.
type Handler struct {
	bills       BillReader
	explainer   Explainer
	sessions    *session.Store
	admissionID string
	logger      zerolog.Logger
}

// NewHandler constructs the page handler for one admission.
func NewHandler(bills BillReader, explainer Explainer, sessions *session.Store, admissionID string, logger zerolog.Logger) (*Handler, error) {
	if bills == nil {
		return nil, errors.New("web handler: nil bill reader")
	}
	if explainer == nil {
		return nil, errors.New("web handler: nil explainer")
	}
	if sessions == nil {
		return nil, errors.New("web handler: nil session store")
	}
	if admissionID == "" {
		return nil, errors.New("web handler: empty admission id")
	}
	return &Handler{
		bills:       bills,
		explainer:   explainer,
		sessions:    sessions,
		admissionID: admissionID,
		logger:      logger.With().Str("component", "web").Logger(),
	}, nil
}

type legendEntry struct {
	Label       string
	Display     string
	Description string
}

type rowView struct {
	ID                string
	Time              string
	Description       string
	Category          string
	Amount            string
	RunningTotal      string
	State             string
	New               bool
	Text              string
	CoverageLabel     string
	CoverageDisplay   string
	InsuranceNote     string
	Disclaimer        string
	Visual            string
	VisualUnavailable bool
	Message           string
}

type pageView struct {
	PatientName string
	AdmissionID string
	Currency    string
	Count       int
	Total       string
	Rows        []rowView
	Mode        string
	Language    string
	Modes       []string
	Languages   []string
	Legend      []legendEntry
	Error       string
}

// ServeHTTP dispatches GET /, POST /explain and POST /settings.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handlePage(w, r)
	case "/explain":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleExplain(w, r)
	case "/settings":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleSettings(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Ensure(w, r)
	if err != nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	mode, lang := sess.Preferences()
	view := pageView{
		AdmissionID: h.admissionID,
		Mode:        string(mode),
		Language:    string(lang),
		Modes:       modeNames(),
		Languages:   languageNames(),
		Legend:      legend(),
	}

	status := http.StatusOK
	adm, err := h.bills.GetAdmission(r.Context(), h.admissionID)
	if err != nil {
		h.logger.Error().Err(err).Str("admission_id", h.admissionID).Msg("load admission failed")
		view.Error = "Bill unavailable. Please refresh in a moment."
		status = http.StatusServiceUnavailable
		if errors.Is(err, billing.ErrNotFound) {
			view.Error = "No admission found."
			status = http.StatusNotFound
		}
	} else {
		fresh := make(map[string]bool)
		prior := sess.Synced()
		if added := sess.Sync(adm.Items); prior && len(added) > 0 {
			h.logger.Debug().Str("session_id", sess.ID).Int("new_items", len(added)).Msg("bill changed")
			for _, id := range added {
				fresh[id] = true
			}
		}
		summary := billing.Summarize(adm.Items)
		view.PatientName = adm.PatientName
		view.Count = summary.Count
		view.Total = summary.Total.StringFixed(2)
		view.Currency = summary.Currency
		for _, row := range sess.Rows(adm.Items) {
			rv := toRowView(row)
			rv.New = fresh[rv.ID]
			view.Rows = append(view.Rows, rv)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, view); err != nil {
		h.logger.Error().Err(err).Msg("render page failed")
	}
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	itemID := strings.TrimSpace(r.PostForm.Get("item_id"))
	if itemID == "" {
		http.Error(w, "item_id is required", http.StatusBadRequest)
		return
	}
	sess, err := h.sessions.Ensure(w, r)
	if err != nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	item, err := h.bills.FindItem(r.Context(), h.admissionID, itemID)
	if errors.Is(err, billing.ErrNotFound) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	key := sess.Key(itemID)
	sess.Begin(key)
	if err == nil {
		_, err = h.explainer.Explain(r.Context(), sess.Cache(), item, key.Mode, key.Language, explainapp.Options{
			Visual: parseBool(r.PostForm.Get("visual")),
		})
	}
	sess.Finish(key, err)
	if err != nil {
		h.logger.Warn().Err(err).Str("item_id", itemID).Msg("explain failed")
	}
	http.Redirect(w, r, "/#item-"+url.PathEscape(itemID), http.StatusSeeOther)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	mode, err := explain.ParseAudienceMode(r.PostForm.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lang, err := explain.ParseLanguage(r.PostForm.Get("language"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := h.sessions.Ensure(w, r)
	if err != nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	if err := sess.SetPreferences(mode, lang); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func toRowView(row session.Row) rowView {
	view := rowView{
		ID:           row.Item.ID,
		Time:         row.Item.Timestamp.Format("02 Jan 15:04"),
		Description:  row.Item.Description,
		Category:     string(row.Item.Category),
		Amount:       row.Item.Amount.StringFixed(2),
		RunningTotal: row.RunningTotal,
		State:        string(row.State),
	}
	switch row.State {
	case session.StateReady:
		exp := row.Explanation
		view.Text = exp.Text
		view.CoverageLabel = string(exp.Coverage)
		view.CoverageDisplay = exp.Coverage.Display()
		view.InsuranceNote = exp.InsuranceNote
		view.Disclaimer = exp.Disclaimer
		view.Visual = exp.VisualDescription
		view.VisualUnavailable = exp.VisualUnavailable
	case session.StateError:
		view.Message = UnavailableMessage
	}
	return view
}

func legend() []legendEntry {
	entries := make([]legendEntry, 0, len(coverage.Labels))
	for _, label := range coverage.Labels {
		entries = append(entries, legendEntry{
			Label:       string(label),
			Display:     label.Display(),
			Description: label.Description(),
		})
	}
	return entries
}

func modeNames() []string {
	names := make([]string, 0, len(explain.Modes))
	for _, mode := range explain.Modes {
		names = append(names, string(mode))
	}
	return names
}

func languageNames() []string {
	names := make([]string, 0, len(explain.Languages))
	for _, lang := range explain.Languages {
		names = append(names, string(lang))
	}
	return names
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
