package metrics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/claude/healthtrends/internal/models"
)

// ActivityLevel is a named TDEE multiplier.
type ActivityLevel struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// ActivityLevels lists the supported levels from least to most active.
var ActivityLevels = []ActivityLevel{
	{Key: "sedentary", Name: "Sedentary", Multiplier: 1.2},
	{Key: "light", Name: "Lightly Active", Multiplier: 1.375},
	{Key: "moderate", Name: "Moderately Active", Multiplier: 1.55},
	{Key: "very_active", Name: "Very Active", Multiplier: 1.725},
	{Key: "extra_active", Name: "Extra Active", Multiplier: 1.9},
}

// kcalPerKG is the energy content of one kilogram of body weight.
const kcalPerKG = 7700

// ActivityProjection is a suggested daily calorie intake for one level.
type ActivityProjection struct {
	ActivityLevel
	Calories int `json:"calories"`
}

// Derived holds point-in-time body metrics computed from the profile.
// Zero means unavailable; Messages explains why.
type Derived struct {
	WeightKG   float64              `json:"weight_kg"`
	BMI        float64              `json:"bmi"`
	BMIZone    Zone                 `json:"bmi_zone"`
	BMR        int                  `json:"bmr"`
	Activity   []ActivityProjection `json:"activity,omitempty"`
	Messages   []string             `json:"messages,omitempty"`
	ComputedAt time.Time            `json:"computed_at"`
}

// CalculateBMI returns weight / height_m², rounded to one decimal, or 0 when
// either input is not positive.
func CalculateBMI(weightKG, heightCM float64) float64 {
	if weightKG <= 0 || heightCM <= 0 {
		return 0
	}
	m := heightCM / 100
	return Round(weightKG/(m*m), 1)
}

// Age returns completed years between dob and now using 365.25-day years.
func Age(dob, now time.Time) int {
	days := now.Sub(dob).Hours() / 24
	return int(math.Floor(days / 365.25))
}

// isMale accepts the sex encodings the profile API uses.
func isMale(sex string) bool {
	s := strings.TrimSpace(sex)
	return s == "M" || strings.EqualFold(s, "male")
}

// CalculateBMR applies the Mifflin-St Jeor equation. Any missing input
// yields 0.
func CalculateBMR(weightKG, heightCM float64, dob *time.Time, sex string, now time.Time) int {
	if weightKG <= 0 || heightCM <= 0 || dob == nil || strings.TrimSpace(sex) == "" {
		return 0
	}
	age := float64(Age(*dob, now))
	bmr := 10*weightKG + 6.25*heightCM - 5*age
	if isMale(sex) {
		bmr += 5
	} else {
		bmr -= 161
	}
	return int(math.Round(bmr))
}

// ProjectActivity returns the daily calorie need at every activity level.
func ProjectActivity(bmr int) []ActivityProjection {
	if bmr <= 0 {
		return nil
	}
	out := make([]ActivityProjection, len(ActivityLevels))
	for i, l := range ActivityLevels {
		out[i] = ActivityProjection{
			ActivityLevel: l,
			Calories:      int(math.Round(float64(bmr) * l.Multiplier)),
		}
	}
	return out
}

// DailyAdjustment converts a weekly weight change goal into a daily calorie
// surplus (positive) or deficit (negative).
func DailyAdjustment(weeklyChangeKG float64) int {
	return int(math.Round(weeklyChangeKG * kcalPerKG / 7))
}

// TargetCalories returns TDEE at the given level plus the daily adjustment
// for weeklyChangeKG.
func TargetCalories(bmr int, level string, weeklyChangeKG float64) (int, error) {
	for _, l := range ActivityLevels {
		if l.Key == level {
			tdee := int(math.Round(float64(bmr) * l.Multiplier))
			return tdee + DailyAdjustment(weeklyChangeKG), nil
		}
	}
	return 0, fmt.Errorf("unknown activity level %q", level)
}

// ComputeDerived evaluates BMI, BMR and the activity projection. A nil
// profile is treated as empty.
func ComputeDerived(p *models.Profile, weightKG float64, now time.Time) Derived {
	if p == nil {
		p = &models.Profile{}
	}
	d := Derived{WeightKG: weightKG, ComputedAt: now}

	d.BMI = CalculateBMI(weightKG, p.HeightCM)
	d.BMIZone = ClassifyBMI(d.BMI)
	if d.BMI == 0 {
		d.Messages = append(d.Messages, "BMI not available. Please ensure your weight and height are set.")
	}

	d.BMR = CalculateBMR(weightKG, p.HeightCM, p.DateOfBirth, p.Sex, now)
	if d.BMR == 0 {
		d.Messages = append(d.Messages, "BMR not available. Please ensure your weight, height, age, and sex are set.")
	}
	d.Activity = ProjectActivity(d.BMR)
	return d
}
