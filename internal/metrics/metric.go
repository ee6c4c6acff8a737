package metrics

import (
	"errors"
	"fmt"
)

// Metric identifies a chartable health metric.
type Metric string

const (
	// Body
	Weight          Metric = "weight"
	BMI             Metric = "bmi"
	BodyFat         Metric = "body-fat"
	MuscleMass      Metric = "muscle-mass"
	WaterPercentage Metric = "water-percentage"

	// Wellness
	Sleep     Metric = "sleep"
	Mood      Metric = "mood"
	Hydration Metric = "hydration"

	// Fitness
	Steps          Metric = "steps"
	Active         Metric = "active"
	CaloriesBurned Metric = "calories-burned"
	HeartRate      Metric = "heart-rate"
	BloodPressure  Metric = "blood-pressure"

	// Nutrition
	Calories Metric = "calories"
	Protein  Metric = "protein"
	Carbs    Metric = "carbs"
	Fat      Metric = "fat"
	Fiber    Metric = "fiber"
)

// AllMetrics lists every metric in catalog order.
var AllMetrics = []Metric{
	Weight, BMI, BodyFat, MuscleMass, WaterPercentage,
	Sleep, Mood, Hydration,
	Steps, Active, CaloriesBurned, HeartRate, BloodPressure,
	Calories, Protein, Carbs, Fat, Fiber,
}

// Family is the raw record family a metric is read from. Several metrics
// share one family (BMI and the body composition percentages all come from
// body-composition scans).
type Family string

const (
	FamilyWeight          Family = "weight"
	FamilyBodyComposition Family = "body-composition"
	FamilySleep           Family = "sleep"
	FamilyMood            Family = "mood"
	FamilyWater           Family = "water"
	FamilySteps           Family = "steps"
	FamilyExercise        Family = "exercise"
	FamilyHeartRate       Family = "heart-rate"
	FamilyBloodPressure   Family = "blood-pressure"
	FamilyNutrition       Family = "nutrition"
)

// Extraction selects how a value is pulled out of a raw record.
type Extraction int

const (
	// ExtractFields takes the first present field of Descriptor.Fields.
	ExtractFields Extraction = iota
	// ExtractBMI computes weight / (height_m)^2.
	ExtractBMI
	// ExtractSleep computes (duration_minutes - awake_minutes) / 60.
	ExtractSleep
	// ExtractHydration converts water_amount (mL) to glasses.
	ExtractHydration
)

// ChartType tells the renderer which widget to draw.
type ChartType string

const (
	ChartLine                ChartType = "line"
	ChartBar                 ChartType = "bar"
	ChartStacked             ChartType = "stacked"
	ChartBMIRanges           ChartType = "bmi-ranges"
	ChartBodyCompositionBar  ChartType = "body-composition-bar"
	ChartBodyCompositionLine ChartType = "body-composition-line"
)

// Descriptor is the static configuration of one metric.
type Descriptor struct {
	Metric        Metric     `json:"metric"`
	Label         string     `json:"label"`
	Family        Family     `json:"family"`
	Extraction    Extraction `json:"-"`
	Fields        []string   `json:"fields,omitempty"`
	DecimalPlaces int        `json:"decimal_places"`
	ChartType     ChartType  `json:"chart_type"`
	Unit          string     `json:"unit"`
	// TargetKey names the target endpoint; empty means no target overlay.
	TargetKey string `json:"target_key,omitempty"`
	// PositiveOnly drops zero and negative readings at extraction.
	PositiveOnly bool `json:"-"`
}

// HasTarget reports whether the metric takes part in the target overlay.
func (d Descriptor) HasTarget() bool {
	return d.TargetKey != ""
}

// GlassML is the volume of one glass of water.
const GlassML = 250.0

var (
	// ErrUnknownMetric is returned for metric identifiers with no descriptor.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrUnknownPeriod is returned for unsupported period names.
	ErrUnknownPeriod = errors.New("unknown period")
)

var descriptors = map[Metric]Descriptor{
	Weight: {
		Metric: Weight, Label: "Weight", Family: FamilyWeight,
		Fields: []string{"weight"}, DecimalPlaces: 1, ChartType: ChartLine, Unit: "kg",
		TargetKey: "ideal_weight",
	},
	BMI: {
		Metric: BMI, Label: "BMI", Family: FamilyBodyComposition, Extraction: ExtractBMI,
		Fields: []string{"weight"}, DecimalPlaces: 1, ChartType: ChartBMIRanges, Unit: "kg/m²",
	},
	BodyFat: {
		Metric: BodyFat, Label: "Body Fat", Family: FamilyBodyComposition,
		Fields: []string{"fat_percentage", "body_fat_percentage"}, DecimalPlaces: 1,
		ChartType: ChartBodyCompositionLine, Unit: "%", PositiveOnly: true,
	},
	MuscleMass: {
		Metric: MuscleMass, Label: "Muscle Mass", Family: FamilyBodyComposition,
		Fields: []string{"muscle_percentage", "muscle_mass_percentage"}, DecimalPlaces: 1,
		ChartType: ChartBodyCompositionLine, Unit: "%", PositiveOnly: true,
	},
	WaterPercentage: {
		Metric: WaterPercentage, Label: "Body Water", Family: FamilyBodyComposition,
		Fields: []string{"water_percentage", "body_water_percentage"}, DecimalPlaces: 1,
		ChartType: ChartBodyCompositionLine, Unit: "%", PositiveOnly: true,
	},
	Sleep: {
		Metric: Sleep, Label: "Sleep", Family: FamilySleep, Extraction: ExtractSleep,
		Fields: []string{"duration_minutes", "awake_minutes"}, DecimalPlaces: 1,
		ChartType: ChartStacked, Unit: "hours", TargetKey: "sleep",
	},
	Mood: {
		Metric: Mood, Label: "Mood", Family: FamilyMood,
		Fields: []string{"mood_value"}, DecimalPlaces: 1, ChartType: ChartLine, Unit: "scale",
	},
	Hydration: {
		Metric: Hydration, Label: "Water", Family: FamilyWater, Extraction: ExtractHydration,
		Fields: []string{"water_amount", "amount"}, DecimalPlaces: 1, ChartType: ChartLine,
		Unit: "glasses", TargetKey: "water",
	},
	Steps: {
		Metric: Steps, Label: "Steps", Family: FamilySteps,
		Fields: []string{"steps", "step_count"}, DecimalPlaces: 0, ChartType: ChartBar,
		Unit: "steps", TargetKey: "steps",
	},
	Active: {
		Metric: Active, Label: "Active Minutes", Family: FamilyExercise,
		Fields: []string{"duration_minutes", "active_minutes"}, DecimalPlaces: 0,
		ChartType: ChartBar, Unit: "min",
	},
	CaloriesBurned: {
		Metric: CaloriesBurned, Label: "Calories Burned", Family: FamilyExercise,
		Fields: []string{"calories_burned", "calories"}, DecimalPlaces: 0,
		ChartType: ChartBar, Unit: "kcal",
	},
	HeartRate: {
		Metric: HeartRate, Label: "Heart Rate", Family: FamilyHeartRate,
		Fields: []string{"resting_heart_rate", "heart_rate", "avg_heart_rate"}, DecimalPlaces: 1,
		ChartType: ChartLine, Unit: "bpm",
	},
	BloodPressure: {
		Metric: BloodPressure, Label: "Blood Pressure", Family: FamilyBloodPressure,
		Fields: []string{"systolic"}, DecimalPlaces: 1, ChartType: ChartLine, Unit: "mmHg",
	},
	Calories: {
		Metric: Calories, Label: "Calories", Family: FamilyNutrition,
		Fields: []string{"totalcalories", "calories"}, DecimalPlaces: 0, ChartType: ChartBar,
		Unit: "kcal", TargetKey: "calories",
	},
	Protein: {
		Metric: Protein, Label: "Protein", Family: FamilyNutrition,
		Fields: []string{"totalprotein", "protein"}, DecimalPlaces: 0, ChartType: ChartLine,
		Unit: "g", TargetKey: "protein",
	},
	Carbs: {
		Metric: Carbs, Label: "Carbs", Family: FamilyNutrition,
		Fields: []string{"totalcarbs", "carbs"}, DecimalPlaces: 0, ChartType: ChartLine,
		Unit: "g", TargetKey: "carbs",
	},
	Fat: {
		Metric: Fat, Label: "Fat", Family: FamilyNutrition,
		Fields: []string{"totalfat", "fat"}, DecimalPlaces: 0, ChartType: ChartLine,
		Unit: "g", TargetKey: "fat",
	},
	Fiber: {
		Metric: Fiber, Label: "Fiber", Family: FamilyNutrition,
		Fields: []string{"totalfiber", "fiber"}, DecimalPlaces: 0, ChartType: ChartLine,
		Unit: "g", TargetKey: "fiber",
	},
}

// Lookup returns the descriptor for m.
func Lookup(m Metric) (Descriptor, error) {
	d, ok := descriptors[m]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}
	return d, nil
}

// ParseMetric validates a metric identifier.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := descriptors[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return m, nil
}

// Catalog returns every descriptor in AllMetrics order.
func Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(AllMetrics))
	for _, m := range AllMetrics {
		out = append(out, descriptors[m])
	}
	return out
}

// IsBodyComposition reports whether m is charted as the three-series body
// composition view.
func IsBodyComposition(m Metric) bool {
	switch m {
	case BodyFat, MuscleMass, WaterPercentage:
		return true
	}
	return false
}
