package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"safespend/internal/core"
	applog "safespend/internal/log"
)

// User-facing messages.
const (
	pageTitle       = "SafeSpend AI Money Coach: Smarter Finance Management"
	pageSubtitle    = "Get AI-powered financial insights for budgeting, savings, and investments."
	msgReset        = "Data has been reset."
	msgGoalRequired = "Please enter your financial goal to receive advice."
	msgRateLimited  = "Too many advice requests. Please wait a moment and try again."
)

func msgSaved(m core.Month) string { return fmt.Sprintf("Data for %s saved successfully!", m.Label()) }
func msgExists(m core.Month) string { return fmt.Sprintf("Data for %s already exists.", m.Label()) }
func msgAIFailure(err error) string { return "Something went wrong with the AI service:\n\n" + err.Error() }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	now := s.session.Now()
	data := PageData{
		Title:          pageTitle,
		Subtitle:       pageSubtitle,
		CurrentMonth:   core.MonthOf(now).Label(),
		Months:         MonthOptions(now),
		Years:          YearOptions(now),
		AdvisorEnabled: s.advisorEnabled,
		LoadWarning:    loadWarning(s.session.LoadError()),
		History:        NewHistoryView(s.session.History()),
	}
	s.render(w, r, http.StatusOK, "index.html", data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "history", NewHistoryView(s.session.History()))
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	logger := applog.FromContext(r.Context())

	amounts, err := ParseAmountsForm(r.PostForm)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	month, explicit, err := ParseMonthField(r.PostForm, s.session.Now())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	var accepted bool
	if explicit {
		accepted, err = s.session.SaveSnapshot(r.Context(), month, amounts)
	} else {
		month, accepted, err = s.session.SaveCurrentMonth(r.Context(), amounts)
	}
	if err != nil {
		if errors.Is(err, core.ErrNegativeAmount) || errors.Is(err, core.ErrInvalidMonth) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		logger.ErrorContext(r.Context(), "Failed to save snapshot",
			applog.NewFields().WithOperation(applog.OpSave).WithMonth(month.String()).WithError(err).WithErrorType(applog.ErrorTypeStorage).ToSlice()...)
		InternalServerError("Could not save your data. Please try again.").Write(w)
		return
	}

	if !accepted {
		WarningAlert(http.StatusConflict, msgExists(month)).Write(w)
		return
	}
	SuccessAlert(msgSaved(month)).TriggerHistoryRefresh(month.String()).Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ResetAll(r.Context()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to reset data",
			applog.NewFields().WithOperation(applog.OpReset).WithError(err).WithErrorType(applog.ErrorTypeStorage).ToSlice()...)
		InternalServerError("Could not reset your data. Please try again.").Write(w)
		return
	}
	SuccessAlert(msgReset).TriggerHistoryRefresh("").Write(w)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	req, err := ParseAdviceForm(r.PostForm)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	plan, err := s.session.RequestAdvice(r.Context(), req)
	var svcErr *core.ServiceError
	switch {
	case err == nil:
	case errors.Is(err, core.ErrEmptyGoal):
		WarningAlert(http.StatusUnprocessableEntity, msgGoalRequired).Write(w)
		return
	case errors.As(err, &svcErr):
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Advice request failed",
			applog.NewFields().WithOperation(applog.OpAdvise).WithError(err).WithErrorType(applog.ErrorTypeService).ToSlice()...)
		BadGatewayError(msgAIFailure(svcErr)).Write(w)
		return
	case errors.Is(err, core.ErrNegativeAmount):
		UnprocessableEntityError(err.Error()).Write(w)
		return
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Advice request failed",
			applog.NewFields().WithOperation(applog.OpAdvise).WithError(err).WithErrorType(applog.ErrorTypeInternal).ToSlice()...)
		InternalServerError("Could not prepare your financial plan.").Write(w)
		return
	}

	s.render(w, r, http.StatusOK, "advice", AdviceView{Goal: req.Goal, Plan: plan})
}

func (s *Server) handleAdviceLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Advice rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r))
	WarningAlert(http.StatusTooManyRequests, msgRateLimited).Write(w)
}

// render executes a template into a buffer so a failure can still produce
// a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		InternalServerError("Templates are not loaded.").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			applog.FieldOperation, applog.OpRender, "template", name, applog.FieldError, err)
		InternalServerError("Could not render the page.").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(buf.String()).Write(w)
}

func loadWarning(err error) string {
	if err == nil {
		return ""
	}
	var readErr *core.StoreReadError
	if errors.As(err, &readErr) && readErr.Quarantine != "" {
		return fmt.Sprintf("Saved data could not be read and was moved to %s. Starting with empty history.", readErr.Quarantine)
	}
	return "Saved data could not be read. Starting with empty history."
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := checkDataDir(r.Context(), s.dataDir); err != nil {
		checks["store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["advisor"] = map[bool]string{true: "configured", false: "not_configured"}[s.advisorEnabled]
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"limited":        s.limiter.Hits(),
		"status":         "ok",
	}
	checks["requests"] = s.tracer.GetMetrics()
	checks["suspicious_requests"] = s.detector.SuspiciousRequests()

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// checkDataDir rejects a data path that exists but is not a directory. A
// missing directory is created on the first save.
func checkDataDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
