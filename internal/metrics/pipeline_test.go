package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/healthtrends/internal/models"
)

type fakeSource struct {
	sets      map[Family]models.RecordSet
	recordErr error

	profile    *models.Profile
	profileErr error
	weight     float64

	targets   map[string]float64
	targetErr error

	calls []string
}

func (f *fakeSource) FetchRecords(_ context.Context, d Descriptor, period Period) (models.RecordSet, error) {
	f.calls = append(f.calls, "records:"+string(d.Family)+":"+string(period))
	if f.recordErr != nil {
		return models.RecordSet{}, f.recordErr
	}
	return f.sets[d.Family], nil
}

func (f *fakeSource) FetchProfile(context.Context) (*models.Profile, error) {
	f.calls = append(f.calls, "profile")
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return &models.Profile{}, nil
	}
	return f.profile, nil
}

func (f *fakeSource) FetchLatestWeight(context.Context) (float64, error) {
	f.calls = append(f.calls, "weight")
	return f.weight, f.profileErr
}

func (f *fakeSource) FetchTarget(_ context.Context, key string) (*float64, error) {
	f.calls = append(f.calls, "target:"+key)
	if f.targetErr != nil {
		return nil, f.targetErr
	}
	v, ok := f.targets[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveChart(m Metric, p Period, outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, string(m)+":"+outcome)
}

func (r *recordingObserver) ObserveDerived(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, "derived:"+outcome)
}

func newTestPipeline(src *fakeSource, opts ...Option) *Pipeline {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(Sources{Records: src, Profile: src, Targets: src}, log, opts...)
}

// TestChartHydrationWithTarget runs records through bucketing and target
// overlay end to end.
func TestChartHydrationWithTarget(t *testing.T) {
	src := &fakeSource{
		sets: map[Family]models.RecordSet{
			FamilyWater: {Records: []models.RawHealthRecord{
				rec("2025-04-01", "water_amount", 1750.0),
				rec("2025-04-02", "water_amount", "1500"),
			}},
		},
		targets: map[string]float64{"water": 2000},
	}
	obs := &recordingObserver{}
	s, err := newTestPipeline(src, WithObserver(obs)).Chart(context.Background(), Hydration, Week)
	if err != nil {
		t.Fatal(err)
	}
	if !floatsEqual(s.Points[0], []float64{7, 6}) {
		t.Errorf("points = %v, want [7 6]", s.Points[0])
	}
	if !strings.Contains(s.TargetComparison, "25% below target") {
		t.Errorf("comparison = %q", s.TargetComparison)
	}
	if got := strings.Join(src.calls, ","); got != "records:water:week,target:water" {
		t.Errorf("calls = %s", got)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "hydration:ok" {
		t.Errorf("outcomes = %v", obs.outcomes)
	}
}

// TestChartFetchErrorReturnsNil verifies a record fetch failure yields a nil
// series, distinct from an empty one.
func TestChartFetchErrorReturnsNil(t *testing.T) {
	src := &fakeSource{recordErr: errors.New("connection refused")}
	obs := &recordingObserver{}
	s, err := newTestPipeline(src, WithObserver(obs)).Chart(context.Background(), Steps, Month)
	if err == nil {
		t.Fatal("expected error")
	}
	if s != nil {
		t.Errorf("series = %+v, want nil", s)
	}
	if obs.outcomes[0] != "steps:error" {
		t.Errorf("outcomes = %v", obs.outcomes)
	}
}

// TestChartEmptyHistory verifies no records yields an empty, non-nil series.
func TestChartEmptyHistory(t *testing.T) {
	s, err := newTestPipeline(&fakeSource{}).Chart(context.Background(), Mood, Week)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil || !s.Empty() {
		t.Errorf("series = %+v, want empty", s)
	}
}

// TestChartTargetErrorIgnored verifies a failing target lookup only drops the overlay.
func TestChartTargetErrorIgnored(t *testing.T) {
	src := &fakeSource{
		sets:      map[Family]models.RecordSet{FamilySteps: {Records: []models.RawHealthRecord{rec("2025-04-01", "steps", 9000.0)}}},
		targetErr: errors.New("timeout"),
	}
	s, err := newTestPipeline(src).Chart(context.Background(), Steps, Week)
	if err != nil {
		t.Fatal(err)
	}
	if s.TargetValue != nil || s.TargetComparison != "" {
		t.Errorf("unexpected overlay: %v %q", s.TargetValue, s.TargetComparison)
	}
}

// TestChartBMIUsesProfileHeight verifies BMI fetches the profile and that a
// profile failure fails the chart.
func TestChartBMIUsesProfileHeight(t *testing.T) {
	src := &fakeSource{
		sets: map[Family]models.RecordSet{
			FamilyBodyComposition: {Records: []models.RawHealthRecord{rec("2025-04-01", "weight", 70.0)}},
		},
		profile: &models.Profile{HeightCM: 170},
	}
	s, err := newTestPipeline(src).Chart(context.Background(), BMI, Week)
	if err != nil {
		t.Fatal(err)
	}
	if s.Points[0][0] != 24.2 || s.Zones[0] != ZoneNormal {
		t.Errorf("points = %v zones = %v", s.Points, s.Zones)
	}
	for _, c := range src.calls {
		if strings.HasPrefix(c, "target:") {
			t.Errorf("bmi has no target but called %s", c)
		}
	}

	src.profileErr = errors.New("unauthorized")
	if s, err := newTestPipeline(src).Chart(context.Background(), BMI, Week); err == nil || s != nil {
		t.Errorf("got (%v, %v), want nil series and error", s, err)
	}
}

// TestChartWeightDisplayUnit verifies the API display unit carries into the
// series and the target conversion.
func TestChartWeightDisplayUnit(t *testing.T) {
	src := &fakeSource{
		sets: map[Family]models.RecordSet{
			FamilyWeight: {DisplayUnit: "lbs", Records: []models.RawHealthRecord{rec("2025-04-01", "weight", 180.0)}},
		},
		targets: map[string]float64{"ideal_weight": 80},
	}
	s, err := newTestPipeline(src).Chart(context.Background(), Weight, Week)
	if err != nil {
		t.Fatal(err)
	}
	if s.DisplayUnit != "lbs" || s.TargetValue == nil || *s.TargetValue != 176.4 {
		t.Errorf("display unit %q target %v", s.DisplayUnit, s.TargetValue)
	}
	if !strings.Contains(s.TargetComparison, "3.6lbs above your target") {
		t.Errorf("comparison = %q", s.TargetComparison)
	}
}

// TestChartUnknownMetric verifies invalid input fails before any fetch.
func TestChartUnknownMetric(t *testing.T) {
	src := &fakeSource{}
	if _, err := newTestPipeline(src).Chart(context.Background(), Metric("upf"), Week); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("error = %v, want ErrUnknownMetric", err)
	}
	if _, err := newTestPipeline(src).Chart(context.Background(), Steps, Period("day")); !errors.Is(err, ErrUnknownPeriod) {
		t.Errorf("error = %v, want ErrUnknownPeriod", err)
	}
	if len(src.calls) != 0 {
		t.Errorf("calls = %v, want none", src.calls)
	}
}

// TestDerived verifies profile and latest weight feed BMI and BMR, and that
// fetch failures degrade to unavailable values.
func TestDerived(t *testing.T) {
	dob := date(t, "1995-01-15")
	src := &fakeSource{profile: &models.Profile{HeightCM: 175, DateOfBirth: &dob, Sex: "M"}, weight: 70}
	p := newTestPipeline(src, WithClock(func() time.Time { return date(t, "2025-06-01") }))

	d := p.Derived(context.Background())
	if d.BMR != 1649 || d.BMI != 22.9 {
		t.Errorf("derived = %+v", d)
	}

	src.profileErr = errors.New("offline")
	d = p.Derived(context.Background())
	if d.BMR != 0 || d.BMI != 0 || len(d.Messages) == 0 {
		t.Errorf("derived = %+v, want unavailable", d)
	}
}
