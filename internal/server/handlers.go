package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/source"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Catalog())
}

// handleChart loads a chart into the caller's display slot. A request that
// is superseded by a newer one before it finishes gets 409 and does not
// change what is displayed.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	m, err := metrics.ParseMetric(q.Get("metric"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	periodStr := q.Get("period")
	if periodStr == "" {
		periodStr = string(metrics.Week)
	}
	period, err := metrics.ParsePeriod(periodStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	uid := userIDFromContext(r)
	p := s.pipelines(uid)
	ud := s.displayFor(uid)

	series, applied, err := ud.display.Load(r.Context(), func(ctx context.Context) (*metrics.Series, error) {
		return p.Chart(ctx, m, period)
	})
	if !applied {
		if r.Context().Err() != nil {
			s.log.Debug("chart request abandoned by client", "metric", m, "period", period)
			return
		}
		if s.tel != nil {
			s.tel.CounterStale.Inc()
		}
		writeJSON(w, http.StatusConflict, map[string]string{"error": "superseded by a newer chart request"})
		return
	}
	ud.hub.broadcast(sseEvent{Event: "chart", Data: mustJSON(viewOf(ud.display.Current()))})

	if err != nil {
		s.log.Error("chart failed", "metric", m, "period", period, "error", err)
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleCurrentChart(w http.ResponseWriter, r *http.Request) {
	ud := s.displayFor(userIDFromContext(r))
	writeJSON(w, http.StatusOK, viewOf(ud.display.Current()))
}

func (s *Server) handleDerived(w http.ResponseWriter, r *http.Request) {
	p := s.pipelines(userIDFromContext(r))
	writeJSON(w, http.StatusOK, p.Derived(r.Context()))
}

// handleCalories returns the daily calorie target for an activity level and
// a weekly weight change goal in kg (negative to lose weight).
func (s *Server) handleCalories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level := q.Get("level")
	if level == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "level parameter required"})
		return
	}
	change := 0.0
	if v := q.Get("weekly_change_kg"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid weekly_change_kg"})
			return
		}
		change = parsed
	}

	d := s.pipelines(userIDFromContext(r)).Derived(r.Context())
	if d.BMR == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "BMR unavailable",
			"messages": d.Messages,
		})
		return
	}
	cal, err := metrics.TargetCalories(d.BMR, level, change)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bmr":              d.BMR,
		"level":            level,
		"weekly_change_kg": change,
		"daily_adjustment": metrics.DailyAdjustment(change),
		"calories":         cal,
	})
}

// errorStatus maps pipeline errors to HTTP status codes.
func errorStatus(err error) int {
	var se *source.StatusError
	switch {
	case errors.Is(err, metrics.ErrUnknownMetric), errors.Is(err, metrics.ErrUnknownPeriod):
		return http.StatusBadRequest
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
