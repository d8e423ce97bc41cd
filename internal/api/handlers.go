package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/opsdash/forget-me-not/internal/modules"
	"github.com/opsdash/forget-me-not/internal/pkg/logger"
	"github.com/opsdash/forget-me-not/internal/service/exclusions"
	"github.com/opsdash/forget-me-not/internal/updatecheck"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	exclusions *exclusions.Service
	modules    modules.Lister
	checker    *updatecheck.Checker
	log        *logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc *exclusions.Service, lister modules.Lister, checker *updatecheck.Checker) *Handlers {
	return &Handlers{
		exclusions: svc,
		modules:    lister,
		checker:    checker,
		log:        logger.With("api"),
	}
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Overview renders the excluded-modules overview page with remove controls.
func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	excluded, err := h.exclusions.List(r.Context())
	if err != nil {
		h.log.Error("listing exclusions failed", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	view := overviewView{
		Excluded:   excluded,
		Notice:     noticeMessage(r.URL.Query().Get("notice")),
		SelectPath: PathSelectForm,
		RemovePath: PathRemoveModule,
	}
	renderPage(w, http.StatusOK, "overview.html", view)
}

// SelectModulesForm renders the checkbox form of eligible candidates:
// every enabled module that is not already excluded.
func (h *Handlers) SelectModulesForm(w http.ResponseWriter, r *http.Request) {
	h.renderSelectForm(w, r, http.StatusOK, "")
}

// SubmitSelection adds the checked module names to the excluded set and
// redirects back to the overview with a confirmation notice.
func (h *Handlers) SubmitSelection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSelectForm(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}

	selected := r.PostForm["modules"]
	names := make([]string, 0, len(selected))
	for _, name := range selected {
		name = strings.TrimSpace(name)
		if name == "" || !utf8.ValidString(name) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		h.renderSelectForm(w, r, http.StatusBadRequest, "No modules selected.")
		return
	}

	if err := h.exclusions.Exclude(r.Context(), names...); err != nil {
		h.log.Error("excluding modules failed", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, PathOverview+"?notice=added", http.StatusSeeOther)
}

func (h *Handlers) renderSelectForm(w http.ResponseWriter, r *http.Request, status int, errorMessage string) {
	enabled, err := h.modules.Enabled(r.Context())
	if err != nil {
		h.log.Error("listing enabled modules failed", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	excluded, err := h.exclusions.List(r.Context())
	if err != nil {
		h.log.Error("listing exclusions failed", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	candidates := make([]modules.Module, 0, len(enabled))
	for _, m := range enabled {
		if _, ok := skip[m.Name]; ok {
			continue
		}
		candidates = append(candidates, m)
	}

	view := selectView{
		Candidates:   candidates,
		ErrorMessage: errorMessage,
		OverviewPath: PathOverview,
		FormPath:     PathSelectForm,
	}
	renderPage(w, status, "select_modules.html", view)
}

// statusResponse is the removal endpoint's entire response surface.
type statusResponse struct {
	Status string `json:"status"`
}

// RemoveModule removes a single module from the excluded set. The response
// is always the minimal status payload; the caller refreshes its own view
// state client-side. Each branch returns immediately after writing JSON —
// nothing else may run in this request cycle.
func (h *Handlers) RemoveModule(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondJSON(w, http.StatusOK, statusResponse{Status: "error"})
		return
	}

	name := r.PostFormValue("module")
	// Malformed text is looked up as an empty identifier, which is never
	// excluded, so it falls out as the error status.
	if !utf8.ValidString(name) {
		name = ""
	}
	name = strings.TrimSpace(name)

	err := h.exclusions.Remove(r.Context(), name)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, statusResponse{Status: "success"})
		return
	case errors.Is(err, exclusions.ErrNotFound):
		respondJSON(w, http.StatusOK, statusResponse{Status: "error"})
		return
	default:
		h.log.Error("removing exclusion failed", "module", name, "err", err)
		respondJSON(w, http.StatusInternalServerError, statusResponse{Status: "error"})
		return
	}
}

// GetUpdates returns the pending-update report with excluded modules
// filtered out.
func (h *Handlers) GetUpdates(w http.ResponseWriter, r *http.Request) {
	report, err := h.checker.Report(r.Context())
	if err != nil {
		h.log.Error("update report failed", "err", err)
		respondError(w, http.StatusBadGateway, "update check unavailable")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// noticeMessage maps a redirect notice code to its user-visible text.
func noticeMessage(code string) string {
	switch code {
	case "added":
		return "The selected modules will no longer be checked for available updates."
	default:
		return ""
	}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
