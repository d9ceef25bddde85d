package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"trend-finder/agents/trend-finder/orchestrator"
	"trend-finder/shared/logger"
)

//go:embed templates/index.html
var templateFS embed.FS

// Controller is the part of the orchestrator the handlers drive.
type Controller interface {
	Start(ctx context.Context, niche string) (orchestrator.State, <-chan orchestrator.State, error)
	Snapshot() orchestrator.State
}

// Handler serves the browser page and the JSON API.
type Handler struct {
	controller Controller
	limiter    *rate.Limiter
	baseCtx    context.Context
	page       *template.Template
	now        func() time.Time
}

// NewHandler creates the handler. Submissions run on baseCtx so they outlive
// the request that started them. submissionsPerMinute <= 0 disables the limit.
func NewHandler(baseCtx context.Context, controller Controller, submissionsPerMinute int) *Handler {
	limit := rate.Inf
	burst := 0
	if submissionsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(submissionsPerMinute))
		burst = submissionsPerMinute
	}

	return &Handler{
		controller: controller,
		limiter:    rate.NewLimiter(limit, burst),
		baseCtx:    baseCtx,
		page:       template.Must(template.New("index.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.html")),
		now:        time.Now,
	}
}

// SubmitRequest is the JSON request body for a submission.
type SubmitRequest struct {
	Niche string `json:"niche"`
}

// SubmitResponse is returned once a submission has started.
type SubmitResponse struct {
	Token         uint64             `json:"token"`
	RunID         string             `json:"run_id"`
	Phase         orchestrator.Phase `json:"phase"`
	StatusMessage string             `json:"status_message"`
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	view := newPageView(h.controller.Snapshot(), h.now())

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, view); err != nil {
		logger.Log.WithError(err).Error("Failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// Submit handles POST /submit from the page form.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if _, err := h.start(r.PostFormValue("niche")); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// APISubmit handles POST /api/v1/submissions
func (h *Handler) APISubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	started, err := h.start(req.Niche)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusAccepted, SubmitResponse{
		Token:         started.Token,
		RunID:         started.RunID,
		Phase:         started.Phase,
		StatusMessage: started.StatusMessage,
	})
}

// APIState handles GET /api/v1/state
func (h *Handler) APIState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.controller.Snapshot())
}

var errRateLimited = errors.New("too many submissions, try again shortly")

func (h *Handler) start(niche string) (orchestrator.State, error) {
	if strings.TrimSpace(niche) == "" {
		return orchestrator.State{}, orchestrator.ErrEmptyNiche
	}
	if !h.limiter.Allow() {
		logger.Log.WithField("niche", niche).Warn("Submission rejected by rate limit")
		return orchestrator.State{}, errRateLimited
	}

	// The final state is read through Snapshot, so done is not awaited.
	started, _, err := h.controller.Start(h.baseCtx, niche)
	return started, err
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, orchestrator.ErrEmptyNiche):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.WithError(err).Error("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
