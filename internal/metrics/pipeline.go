package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/healthtrends/internal/models"
)

// RecordSource returns the raw records behind one metric for a period.
type RecordSource interface {
	FetchRecords(ctx context.Context, d Descriptor, period Period) (models.RecordSet, error)
}

// ProfileSource returns the user profile and the latest measured weight.
type ProfileSource interface {
	FetchProfile(ctx context.Context) (*models.Profile, error)
	FetchLatestWeight(ctx context.Context) (float64, error)
}

// TargetSource returns the stored target for a key, or nil when none is set.
type TargetSource interface {
	FetchTarget(ctx context.Context, key string) (*float64, error)
}

// Sources bundles the collaborators a Pipeline reads from. Targets may be nil.
type Sources struct {
	Records RecordSource
	Profile ProfileSource
	Targets TargetSource
}

// Observer receives the outcome of every pipeline run.
type Observer interface {
	ObserveChart(m Metric, period Period, outcome string, elapsed time.Duration)
	ObserveDerived(outcome string, elapsed time.Duration)
}

// Outcomes reported to an Observer.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

var errNoProfileSource = errors.New("no profile source configured")

type nopObserver struct{}

func (nopObserver) ObserveChart(Metric, Period, string, time.Duration) {}
func (nopObserver) ObserveDerived(string, time.Duration)               {}

// Pipeline turns raw records into chart series. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	src Sources
	log *slog.Logger
	now func() time.Time
	obs Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides time.Now, which anchors empty year charts and ages.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithObserver reports run outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.obs = o }
}

// NewPipeline creates a Pipeline over src.
func NewPipeline(src Sources, log *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{src: src, log: log, now: time.Now, obs: nopObserver{}}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Chart builds the series for m over period. Any fetch failure of records
// or profile returns a nil series and the error. A series with no labels
// means the data loaded but holds no history. Target lookup failures only
// drop the overlay.
func (p *Pipeline) Chart(ctx context.Context, m Metric, period Period) (*Series, error) {
	start := time.Now()
	s, err := p.chart(ctx, m, period)

	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
	case s.Empty():
		outcome = OutcomeEmpty
	}
	p.obs.ObserveChart(m, period, outcome, time.Since(start))
	return s, err
}

func (p *Pipeline) chart(ctx context.Context, m Metric, period Period) (*Series, error) {
	d, err := Lookup(m)
	if err != nil {
		return nil, err
	}
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}

	set, err := p.src.Records.FetchRecords(ctx, d, period)
	if err != nil {
		return nil, fmt.Errorf("fetching %s records: %w", m, err)
	}
	now := p.now()

	var s *Series
	if IsBodyComposition(m) {
		s, err = DecomposeBodyComposition(m, set.Records, period, now)
		if err != nil {
			return nil, err
		}
	} else {
		var heightCM float64
		if d.Extraction == ExtractBMI {
			if p.src.Profile == nil {
				return nil, errNoProfileSource
			}
			prof, err := p.src.Profile.FetchProfile(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetching profile: %w", err)
			}
			heightCM = prof.HeightCM
		}

		points, skipped := ExtractAll(d, set.Records, heightCM)
		if skipped > 0 {
			p.log.Debug("skipped undated records", "metric", m, "count", skipped)
		}
		buckets, err := Bucket(points, period, d.DecimalPlaces, now)
		if err != nil {
			return nil, err
		}

		switch d.Extraction {
		case ExtractSleep:
			s = DecomposeSleep(d, period, buckets)
		case ExtractBMI:
			s = newSeries(d, period, buckets)
			AnnotateBMI(s)
		default:
			s = newSeries(d, period, buckets)
		}
	}

	if m == Weight && set.DisplayUnit != "" {
		s.DisplayUnit = set.DisplayUnit
		s.Unit = set.DisplayUnit
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.overlayTarget(ctx, d, s)
	return s, nil
}

func (p *Pipeline) overlayTarget(ctx context.Context, d Descriptor, s *Series) {
	if !d.HasTarget() || p.src.Targets == nil {
		return
	}
	raw, err := p.src.Targets.FetchTarget(ctx, d.TargetKey)
	if err != nil {
		p.log.Warn("target lookup failed", "metric", d.Metric, "key", d.TargetKey, "error", err)
		return
	}
	ApplyTarget(s, d, raw)
}

// Derived computes BMI, BMR and the activity projection. Profile and weight
// fetch failures degrade to unavailable values rather than errors.
func (p *Pipeline) Derived(ctx context.Context) Derived {
	start := time.Now()
	outcome := OutcomeOK

	var (
		prof   *models.Profile
		weight float64
	)
	if p.src.Profile == nil {
		outcome = OutcomeError
	} else {
		var err error
		prof, err = p.src.Profile.FetchProfile(ctx)
		if err != nil {
			p.log.Warn("profile lookup failed", "error", err)
			outcome = OutcomeError
		}
		weight, err = p.src.Profile.FetchLatestWeight(ctx)
		if err != nil {
			p.log.Warn("latest weight lookup failed", "error", err)
			outcome = OutcomeError
		}
	}

	d := ComputeDerived(prof, weight, p.now())
	if outcome == OutcomeOK && len(d.Messages) > 0 {
		outcome = OutcomeEmpty
	}
	p.obs.ObserveDerived(outcome, time.Since(start))
	return d
}
