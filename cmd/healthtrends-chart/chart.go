package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	chartPeriod string
	chartJSON   bool
	deriveLevel string
	weekChange  float64
)

var chartCmd = &cobra.Command{
	Use:   "chart <metric>",
	Short: "Render a metric chart",
	Long: `Render the chart of one metric for a week, month or year.

PERIODS:

  week    the last 7 days with data, one point per day
  month   the last 30 days, thinned to every 2nd or 3rd day when dense
  year    one mean per calendar month

Run 'healthtrends-chart metrics' for the list of metric names.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := metrics.ParseMetric(args[0])
		if err != nil {
			return err
		}
		period, err := metrics.ParsePeriod(chartPeriod)
		if err != nil {
			return err
		}

		be, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer be.Close()

		s, err := be.Pipeline(be.UserID).Chart(cmd.Context(), m, period)
		if err != nil {
			return fmt.Errorf("loading %s chart: %w", m, err)
		}
		if chartJSON {
			enc := json.NewEncoder(out(cmd))
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		renderSeries(out(cmd), s)
		return nil
	},
}

var derivedCmd = &cobra.Command{
	Use:   "derived",
	Short: "Show BMI, BMR and calorie needs per activity level",
	RunE: func(cmd *cobra.Command, args []string) error {
		be, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer be.Close()

		renderDerived(out(cmd), be.Pipeline(be.UserID).Derived(cmd.Context()))
		return nil
	},
}

var caloriesCmd = &cobra.Command{
	Use:   "calories",
	Short: "Daily calorie target for an activity level and weekly goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		be, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer be.Close()

		d := be.Pipeline(be.UserID).Derived(cmd.Context())
		if d.BMR == 0 {
			return fmt.Errorf("BMR not available: %s", strings.Join(d.Messages, " "))
		}
		cal, err := metrics.TargetCalories(d.BMR, deriveLevel, weekChange)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "%d kcal/day (BMR %d, %+d kcal/day for %+.2f kg/week)\n",
			cal, d.BMR, metrics.DailyAdjustment(weekChange), weekChange)
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List chartable metrics",
	Run: func(cmd *cobra.Command, args []string) {
		w := out(cmd)
		for _, d := range metrics.Catalog() {
			target := ""
			if d.HasTarget() {
				target = faint.Sprint(" target")
			}
			fmt.Fprintf(w, "%s %s %s%s\n",
				padRight(string(d.Metric), 18),
				padRight(d.Label, 16),
				faint.Sprint(d.Unit),
				target)
		}
	},
}

func init() {
	chartCmd.Flags().StringVarP(&chartPeriod, "period", "p", "week", "week, month or year")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "print the series as JSON")
	caloriesCmd.Flags().StringVar(&deriveLevel, "level", "sedentary", "activity level")
	caloriesCmd.Flags().Float64Var(&weekChange, "weekly-change", 0, "weekly weight change goal in kg (negative to lose)")
	rootCmd.AddCommand(chartCmd, derivedCmd, caloriesCmd, metricsCmd)
}
