package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/models"
	"github.com/claude/healthtrends/internal/source"
	"github.com/claude/healthtrends/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

type stubSource struct {
	records   models.RecordSet
	recordErr error
	profile   *models.Profile
	weight    float64

	// block makes the first FetchRecords call wait for cancellation.
	block   bool
	entered chan struct{}
	mu      sync.Mutex
	calls   int
}

func (s *stubSource) FetchRecords(ctx context.Context, _ metrics.Descriptor, _ metrics.Period) (models.RecordSet, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if s.block && first {
		close(s.entered)
		<-ctx.Done()
		return models.RecordSet{}, ctx.Err()
	}
	return s.records, s.recordErr
}

func (s *stubSource) FetchProfile(context.Context) (*models.Profile, error) {
	if s.profile == nil {
		return &models.Profile{}, nil
	}
	return s.profile, nil
}

func (s *stubSource) FetchLatestWeight(context.Context) (float64, error) {
	return s.weight, nil
}

func (s *stubSource) FetchTarget(context.Context, string) (*float64, error) {
	return nil, nil
}

func newTestServer(src *stubSource, tel *telemetry.Manager) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := metrics.NewPipeline(metrics.Sources{Records: src, Profile: src, Targets: src}, log,
		metrics.WithClock(func() time.Time { return testNow }))
	return New(func(int) *metrics.Pipeline { return p }, nil, tel, "", log)
}

func weightRecords() models.RecordSet {
	return models.RecordSet{
		DisplayUnit: "kg",
		Records: []models.RawHealthRecord{
			{"date": "2024-03-17", "weight": 80.0},
			{"date": "2024-03-18", "weight": 79.0},
			{"date": "2024-03-19", "weight": 78.0},
		},
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale client is set.
func TestHandleMeDefault(t *testing.T) {
	s := newTestServer(&stubSource{}, nil)
	rec := get(t, s, "/api/v1/me")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestHandleMeDevUser verifies SetDevUser changes the reported identity.
func TestHandleMeDevUser(t *testing.T) {
	s := newTestServer(&stubSource{}, nil)
	s.SetDevUser(7, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	rec := get(t, s, "/api/v1/me")

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
}

// TestHandleCatalog verifies every metric is listed.
func TestHandleCatalog(t *testing.T) {
	s := newTestServer(&stubSource{}, nil)
	rec := get(t, s, "/api/v1/metrics")

	var got []metrics.Descriptor
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != len(metrics.AllMetrics) {
		t.Errorf("catalog has %d entries, want %d", len(got), len(metrics.AllMetrics))
	}
}

// TestHandleChart verifies a weight chart is returned and becomes the
// displayed chart.
func TestHandleChart(t *testing.T) {
	s := newTestServer(&stubSource{records: weightRecords()}, nil)
	rec := get(t, s, "/api/v1/chart?metric=weight&period=week")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var series metrics.Series
	if err := json.NewDecoder(rec.Body).Decode(&series); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(series.Labels) != 3 {
		t.Fatalf("labels = %v, want 3", series.Labels)
	}
	if got := series.Points[0][2]; got != 78 {
		t.Errorf("last point = %v, want 78", got)
	}

	cur := get(t, s, "/api/v1/chart/current")
	var view displayView
	if err := json.NewDecoder(cur.Body).Decode(&view); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if view.Series == nil || view.Series.Metric != metrics.Weight {
		t.Errorf("current series = %+v, want weight", view.Series)
	}
	if view.RequestID == "" || view.UpdatedAt == nil {
		t.Errorf("current view missing request id or time: %+v", view)
	}
}

// TestHandleChartErrors verifies request validation and source failures map
// to status codes.
func TestHandleChartErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    *stubSource
		target string
		want   int
	}{
		{"unknown metric", &stubSource{}, "/api/v1/chart?metric=caffeine", http.StatusBadRequest},
		{"unknown period", &stubSource{}, "/api/v1/chart?metric=weight&period=decade", http.StatusBadRequest},
		{
			"upstream failure",
			&stubSource{recordErr: &source.StatusError{Path: "/api/weight/recent", Code: 500}},
			"/api/v1/chart?metric=weight",
			http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(tt.src, nil), tt.target)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

// TestHandleChartSuperseded verifies that a chart request overtaken by a
// newer one gets 409, is counted as stale, and leaves the newer chart
// displayed.
func TestHandleChartSuperseded(t *testing.T) {
	src := &stubSource{records: weightRecords(), block: true, entered: make(chan struct{})}
	tel := telemetry.NewTestManager()
	s := newTestServer(src, tel)

	first := make(chan *httptest.ResponseRecorder)
	go func() {
		first <- get(t, s, "/api/v1/chart?metric=steps&period=week")
	}()
	<-src.entered

	second := get(t, s, "/api/v1/chart?metric=weight&period=week")
	if second.Code != http.StatusOK {
		t.Fatalf("second status = %d, want 200", second.Code)
	}

	stale := <-first
	if stale.Code != http.StatusConflict {
		t.Errorf("first status = %d, want 409", stale.Code)
	}
	if got := testutil.ToFloat64(tel.CounterStale); got != 1 {
		t.Errorf("stale counter = %v, want 1", got)
	}

	var view displayView
	if err := json.NewDecoder(get(t, s, "/api/v1/chart/current").Body).Decode(&view); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if view.Series == nil || view.Series.Metric != metrics.Weight {
		t.Errorf("displayed series = %+v, want weight", view.Series)
	}
}

// TestHandleChartClientGone verifies a chart request abandoned by its client
// leaves the displayed chart alone and is not counted as stale.
func TestHandleChartClientGone(t *testing.T) {
	src := &stubSource{records: weightRecords(), block: true, entered: make(chan struct{})}
	tel := telemetry.NewTestManager()
	s := newTestServer(src, tel)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chart?metric=weight&period=week", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		s.ServeHTTP(httptest.NewRecorder(), req)
		close(done)
	}()
	<-src.entered
	cancel()
	<-done

	if got := testutil.ToFloat64(tel.CounterStale); got != 0 {
		t.Errorf("stale counter = %v, want 0", got)
	}
	var view displayView
	if err := json.NewDecoder(get(t, s, "/api/v1/chart/current").Body).Decode(&view); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if view.Series != nil || view.Error != "" {
		t.Errorf("current view = %+v, want nothing displayed", view)
	}

	if rec := get(t, s, "/api/v1/chart?metric=weight&period=week"); rec.Code != http.StatusOK {
		t.Errorf("follow-up status = %d, want 200", rec.Code)
	}
}

// TestHandleDerived verifies BMI and the activity projection are served.
func TestHandleDerived(t *testing.T) {
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{
		profile: &models.Profile{HeightCM: 180, DateOfBirth: &dob, Sex: "male"},
		weight:  80,
	}
	rec := get(t, newTestServer(src, nil), "/api/v1/derived")

	var d metrics.Derived
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if d.BMI != 24.7 {
		t.Errorf("bmi = %v, want 24.7", d.BMI)
	}
	if d.BMR == 0 || len(d.Activity) != len(metrics.ActivityLevels) {
		t.Errorf("bmr = %d, activity = %d levels", d.BMR, len(d.Activity))
	}
}

// TestHandleCalories verifies the calorie target combines TDEE and the
// weekly change goal, and that a missing profile is reported.
func TestHandleCalories(t *testing.T) {
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{
		profile: &models.Profile{HeightCM: 180, DateOfBirth: &dob, Sex: "male"},
		weight:  80,
	}
	s := newTestServer(src, nil)
	rec := get(t, s, "/api/v1/calories?level=sedentary&weekly_change_kg=-0.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		BMR      int `json:"bmr"`
		Calories int `json:"calories"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	want := int(math.Round(float64(body.BMR)*1.2)) + metrics.DailyAdjustment(-0.5)
	if body.Calories != want {
		t.Errorf("calories = %d, want %d", body.Calories, want)
	}

	if rec := get(t, s, "/api/v1/calories?level=couch"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown level status = %d, want 400", rec.Code)
	}
	if rec := get(t, newTestServer(&stubSource{}, nil), "/api/v1/calories?level=sedentary"); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty profile status = %d, want 422", rec.Code)
	}
}

// TestStorageRoutesRequireDatabase verifies local-only routes are absent
// when the server runs against the remote API.
func TestStorageRoutesRequireDatabase(t *testing.T) {
	s := newTestServer(&stubSource{}, nil)
	if rec := get(t, s, "/api/v1/stats"); rec.Code != http.StatusNotFound {
		t.Errorf("stats status = %d, want 404", rec.Code)
	}
}

// TestRequestMetricsRecorded verifies requests are counted by status.
func TestRequestMetricsRecorded(t *testing.T) {
	tel := telemetry.NewTestManager()
	s := newTestServer(&stubSource{}, tel)
	get(t, s, "/api/v1/metrics")
	get(t, s, "/api/v1/chart?metric=nope")

	if got := testutil.ToFloat64(tel.CounterRequests.WithLabelValues("GET", "200")); got != 1 {
		t.Errorf("GET 200 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tel.CounterRequests.WithLabelValues("GET", "400")); got != 1 {
		t.Errorf("GET 400 = %v, want 1", got)
	}
}
