package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/trogers1052/fox-valley-engine/internal/brief"
	"github.com/trogers1052/fox-valley-engine/internal/database"
	"github.com/trogers1052/fox-valley-engine/internal/journal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
	"github.com/trogers1052/fox-valley-engine/internal/pipeline"
	"github.com/trogers1052/fox-valley-engine/internal/service"
)

const (
	defaultJournalLimit = 100
	maxJournalLimit     = 1000
	maxUploadBytes      = 10 << 20
)

// ReportService is the service surface the handlers use
type ReportService interface {
	Report(ctx context.Context) (*pipeline.Result, error)
	Generate(ctx context.Context, record bool) (*pipeline.Result, error)
	ImportPortfolio(ctx context.Context, name string, r io.Reader) (*normalize.PositionResult, error)
	ImportScreen(ctx context.Context, group models.ScreenGroup, date time.Time, name string, r io.Reader) (*normalize.ScreenResult, error)
	CaptureOrders(ctx context.Context, in journal.OrderInput) ([]models.Order, error)
	Journal(limit int) ([]models.JournalEntry, error)
	LatestBrief() (*models.BriefRecord, error)
	ROIHistory() ([]models.ROIPoint, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc ReportService
	log zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc ReportService, log zerolog.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log.With().Str("component", "api").Logger(),
	}
}

// GetReport handles GET /report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	res, ok := h.report(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetDecisions handles GET /decisions
func (h *Handler) GetDecisions(w http.ResponseWriter, r *http.Request) {
	res, ok := h.report(w, r)
	if !ok {
		return
	}

	decisions := res.Decisions
	if action := r.URL.Query().Get("action"); action != "" {
		decisions = make([]models.DecisionRow, 0)
		for _, d := range res.Decisions {
			if string(d.Action) == action {
				decisions = append(decisions, d)
			}
		}
	}
	respondJSON(w, http.StatusOK, decisions)
}

// GetDeltas handles GET /deltas. With changes=true UNCHANGED rows are left out
func (h *Handler) GetDeltas(w http.ResponseWriter, r *http.Request) {
	res, ok := h.report(w, r)
	if !ok {
		return
	}

	if changes, _ := strconv.ParseBool(r.URL.Query().Get("changes")); changes {
		respondJSON(w, http.StatusOK, res.Changes())
		return
	}
	respondJSON(w, http.StatusOK, res.Deltas)
}

// GetBrief handles GET /brief?format=json|markdown|html for the current snapshots
func (h *Handler) GetBrief(w http.ResponseWriter, r *http.Request) {
	res, ok := h.report(w, r)
	if !ok {
		return
	}
	h.writeBrief(w, r.URL.Query().Get("format"), res.Brief, brief.Markdown(res.Brief, res.Decisions))
}

// GetLatestBrief handles GET /brief/latest for the most recently recorded brief
func (h *Handler) GetLatestBrief(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.LatestBrief()
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "no brief recorded", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeBrief(w, r.URL.Query().Get("format"), rec.Brief, rec.Markdown)
}

// RecordBrief handles POST /brief: generates, journals and publishes a brief
func (h *Handler) RecordBrief(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Generate(r.Context(), true)
	if errors.Is(err, service.ErrNoSnapshots) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res.Brief)
}

func (h *Handler) writeBrief(w http.ResponseWriter, format string, b *models.Brief, markdown string) {
	switch format {
	case "", "json":
		respondJSON(w, http.StatusOK, b)
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, markdown)
	case "html":
		page, err := brief.HTML(markdown)
		if err != nil {
			h.serverError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, page)
	default:
		http.Error(w, "format must be json, markdown or html", http.StatusBadRequest)
	}
}

// GetJournal handles GET /journal?limit=N
func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := h.svc.Journal(limit)
	if err != nil {
		h.serverError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetROIHistory handles GET /roi
func (h *Handler) GetROIHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.ROIHistory()
	if err != nil {
		h.serverError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// PutPortfolio handles PUT /portfolio with a broker CSV export as the body
func (h *Handler) PutPortfolio(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "portfolio.csv"
	}

	res, err := h.svc.ImportPortfolio(r.Context(), name, http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		h.importError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// PutScreen handles PUT /screens/{group}/{date} with a screen CSV export as the body
func (h *Handler) PutScreen(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	group, err := models.ParseScreenGroup(vars["group"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	name := string(group) + "_" + vars["date"] + ".csv"
	res, err := h.svc.ImportScreen(r.Context(), group, date, name, http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		h.importError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// PostOrders handles POST /orders
func (h *Handler) PostOrders(w http.ResponseWriter, r *http.Request) {
	var req journal.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	orders, err := h.svc.CaptureOrders(r.Context(), req)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if len(orders) == 0 {
		http.Error(w, "an order needs a ticker and a positive share count", http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusCreated, orders)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	res, err := h.svc.Report(r.Context())
	if errors.Is(err, service.ErrNoSnapshots) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.serverError(w, err)
		return nil, false
	}
	return res, true
}

func (h *Handler) importError(w http.ResponseWriter, err error) {
	var schemaErr *normalize.SchemaError
	var emptyErr *normalize.EmptyInputWarning
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &emptyErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &tooLarge):
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
	default:
		h.serverError(w, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("Request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
