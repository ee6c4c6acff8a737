package source

import (
	"fmt"
	"net/url"

	"github.com/claude/healthtrends/internal/metrics"
)

// endpoint names the history and recent-window paths for one metric. An
// empty recent path means history serves every period.
type endpoint struct {
	history string
	recent  string
	// withPeriod passes the requested period through as a query parameter.
	withPeriod bool
}

var endpoints = map[metrics.Metric]endpoint{
	metrics.Weight:          {history: "/api/weight/converted", withPeriod: true},
	metrics.BMI:             {history: "/api/body-composition/history", withPeriod: true},
	metrics.BodyFat:         {history: "/api/body-composition/history"},
	metrics.MuscleMass:      {history: "/api/body-composition/history"},
	metrics.WaterPercentage: {history: "/api/body-composition/history"},
	metrics.Sleep:           {history: "/api/sleep/history", recent: "/api/sleep/last30days"},
	metrics.Mood:            {history: "/api/mood/history", recent: "/api/mood/last30days"},
	metrics.Hydration:       {history: "/api/water", recent: "/api/water/last30days"},
	metrics.Steps:           {history: "/api/steps/history", recent: "/api/steps/last30days"},
	metrics.Active:          {history: "/api/exercise/history", recent: "/api/exercise/last30days"},
	metrics.CaloriesBurned:  {history: "/api/exercise/history", recent: "/api/exercise/last30days"},
	metrics.HeartRate:       {history: "/api/heart-rate/history"},
	metrics.BloodPressure:   {history: "/api/bloodpressure", recent: "/api/blood-pressure/last30days"},
	metrics.Calories:        {history: "/api/nutrition/history", withPeriod: true},
	metrics.Protein:         {history: "/api/nutrition/history", withPeriod: true},
	metrics.Carbs:           {history: "/api/nutrition/history", withPeriod: true},
	metrics.Fat:             {history: "/api/nutrition/history", withPeriod: true},
	metrics.Fiber:           {history: "/api/nutrition/history", withPeriod: true},
}

// yearLimit is the record cap requested for year charts.
const yearLimit = "365"

// Endpoint returns the API path and query for a metric chart.
func Endpoint(m metrics.Metric, period metrics.Period) (string, url.Values, error) {
	ep, ok := endpoints[m]
	if !ok {
		return "", nil, fmt.Errorf("%w: no endpoint for %q", metrics.ErrUnknownMetric, m)
	}

	path := ep.history
	if period != metrics.Year && ep.recent != "" {
		path = ep.recent
	}

	params := url.Values{}
	if ep.withPeriod {
		params.Set("period", string(period))
	}
	if period == metrics.Year {
		params.Set("period", string(metrics.Year))
		params.Set("limit", yearLimit)
	}
	return path, params, nil
}

const (
	profilePath      = "/api/user/profile"
	latestWeightPath = "/api/body-composition/latest"
	targetPathPrefix = "/api/targets/"
)
