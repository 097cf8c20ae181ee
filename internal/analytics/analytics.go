// Package analytics computes read-only projections over an ordered
// (newest-first) assessment sequence. Nothing here mutates its input.
package analytics

import (
	"fmt"
	"math"

	"github.com/terra-clan/growth-tracker/internal/models"
)

// DefaultTrendWindow is the number of recent assessments a trend
// comparison spans by default.
const DefaultTrendWindow = 4

// Trend describes the movement of one area's score across a recent
// window of assessments.
type Trend struct {
	Increasing bool `json:"increasing"`
	Percentage int  `json:"percentage"`
}

// AverageScore returns the arithmetic mean of the four scores of a
// single assessment. The scores map must be total over the four areas.
func AverageScore(a *models.Assessment) float64 {
	var sum int
	for _, area := range models.Areas() {
		sum += a.Scores[area]
	}
	return float64(sum) / float64(len(models.Areas()))
}

// AreaTrend compares the newest score of an area against the oldest
// score within a window of the most recent assessments. The list must
// be ordered newest first. Fewer than two assessments yields the
// neutral result {Increasing: true, Percentage: 0}.
func AreaTrend(list []*models.Assessment, area models.Area, window int) Trend {
	if len(list) < 2 {
		return Trend{Increasing: true, Percentage: 0}
	}
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if window > len(list) {
		window = len(list)
	}

	newest := list[0].Scores[area]
	oldest := list[window-1].Scores[area]
	diff := newest - oldest

	// The score range invariant keeps oldest >= 1, but the percentage
	// math must not depend on that holding forever.
	if oldest == 0 {
		return Trend{Increasing: diff >= 0, Percentage: 0}
	}

	pct := int(math.Round(math.Abs(float64(diff)) / float64(oldest) * 100))
	return Trend{Increasing: diff >= 0, Percentage: pct}
}

// Insights generates human-readable observations from the two most
// recent assessments. Per-area messages fire on a score movement of
// two or more points, in fixed area order; when none fire, a single
// holistic message keyed on the newest average is emitted instead.
func Insights(list []*models.Assessment) []string {
	if len(list) < 2 {
		return []string{"Start tracking your growth to receive personalized insights."}
	}

	var insights []string
	latest, previous := list[0], list[1]

	for _, area := range models.Areas() {
		diff := latest.Scores[area] - previous.Scores[area]
		name := area.Info().Name

		switch {
		case diff >= 2:
			insights = append(insights, fmt.Sprintf("Great progress in %s! You've improved by %d points.", name, diff))
		case diff <= -2:
			insights = append(insights, fmt.Sprintf("Your %s score has decreased by %d points. Consider focusing on this area.", name, -diff))
		}
	}

	if len(insights) == 0 {
		avg := AverageScore(latest)
		switch {
		case avg >= 8:
			insights = append(insights, "You're doing well across all areas. Keep up the great work!")
		case avg <= 6:
			insights = append(insights, "Consider setting specific goals for improvement in your lower-scoring areas.")
		default:
			insights = append(insights, "You're making steady progress. Focus on consistency for continued growth.")
		}
	}

	return insights
}

// DefaultChartLimit is the number of recent assessments included in
// chart data by default.
const DefaultChartLimit = 8

// Dataset is one area's line in a chart.
type Dataset struct {
	Area  models.Area `json:"area"`
	Label string      `json:"label"`
	Color string      `json:"color"`
	Data  []int       `json:"data"`
}

// Chart holds oldest-first plot data for the most recent assessments.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// ChartData projects the most recent assessments (up to limit) into
// oldest-first chart series, one dataset per area.
func ChartData(list []*models.Assessment, limit int) Chart {
	if limit <= 0 {
		limit = DefaultChartLimit
	}
	if limit > len(list) {
		limit = len(list)
	}

	// Reverse the newest-first prefix so the chart reads left to right.
	window := make([]*models.Assessment, limit)
	for i := 0; i < limit; i++ {
		window[i] = list[limit-1-i]
	}

	chart := Chart{Labels: make([]string, 0, limit)}
	for _, a := range window {
		chart.Labels = append(chart.Labels, a.Date.Format("Jan 2"))
	}

	for _, area := range models.Areas() {
		info := area.Info()
		ds := Dataset{
			Area:  area,
			Label: info.Name,
			Color: info.Color,
			Data:  make([]int, 0, limit),
		}
		for _, a := range window {
			ds.Data = append(ds.Data, a.Scores[area])
		}
		chart.Datasets = append(chart.Datasets, ds)
	}

	return chart
}
