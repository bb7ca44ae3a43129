// Package histogram renders a contact's hour-of-week response profile as
// a colored terminal grid.
package histogram

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/replymint/cadence/pkg/timing"
)

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// cellGlyph buckets a calibrated probability into an intensity glyph.
func cellGlyph(p, maxP float64) string {
	if maxP <= 0 {
		return "·"
	}
	switch ratio := p / maxP; {
	case ratio >= 0.85:
		return "█"
	case ratio >= 0.6:
		return "▓"
	case ratio >= 0.35:
		return "▒"
	case ratio >= 0.1:
		return "░"
	default:
		return "·"
	}
}

func cellColor(p, maxP float64, recommended bool) *color.Color {
	if recommended {
		return color.New(color.FgGreen, color.Bold)
	}
	if maxP <= 0 {
		return color.New(color.FgHiBlack)
	}
	switch ratio := p / maxP; {
	case ratio >= 0.6:
		return color.New(color.FgYellow)
	case ratio >= 0.35:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgHiBlack)
	}
}

// Render draws the full week grid plus the ranked window list. Windows
// recommended by the estimator show green regardless of intensity so the
// eye lands on them first. Color obeys the package-level color.NoColor
// switch, so -no-color output stays plain text.
func Render(res timing.Result, tzLabel string) string {
	var out strings.Builder

	out.WriteString(fmt.Sprintf("Response likelihood by local hour (%s)\n", tzLabel))
	out.WriteString(strings.Repeat("─", 60) + "\n")

	totalTrials := 0.0
	maxP := 0.0
	for _, b := range res.Bins {
		totalTrials += b.Trials
		if b.Calibrated > maxP {
			maxP = b.Calibrated
		}
	}
	if totalTrials < 5 {
		out.WriteString(fmt.Sprintf("limited history: %.1f weighted attempts, leaning on priors\n", totalTrials))
		out.WriteString(strings.Repeat("─", 60) + "\n")
	}

	recommended := make(map[int]bool, len(res.RecommendedWindows))
	for _, w := range res.RecommendedWindows {
		recommended[w.HourOfWeek] = true
	}

	// Hour ruler: one column per hour, labeled every third hour.
	out.WriteString("      ")
	for h := 0; h < 24; h += 3 {
		out.WriteString(fmt.Sprintf("%-3d", h))
	}
	out.WriteString("\n")

	for day := range 7 {
		out.WriteString(fmt.Sprintf("%s   ", dayNames[day]))
		for hour := range 24 {
			bin := res.Bins[day*24+hour]
			c := cellColor(bin.Calibrated, maxP, recommended[bin.HourOfWeek])
			out.WriteString(c.Sprint(cellGlyph(bin.Calibrated, maxP)))
		}
		out.WriteString("\n")
	}

	out.WriteString(strings.Repeat("─", 60) + "\n")
	if len(res.RecommendedWindows) == 0 {
		out.WriteString("no windows recommended\n")
		return out.String()
	}

	for i, w := range res.RecommendedWindows {
		line := fmt.Sprintf("%d. %s %02d:00  score %.3f\n", i+1, dayNames[w.Day], w.Hour, w.Score)
		if i == 0 {
			out.WriteString(color.New(color.FgGreen, color.Bold).Sprint(line))
		} else {
			out.WriteString(line)
		}
	}
	out.WriteString(fmt.Sprintf("confidence %.3f · recency %.3f · composite %.3f\n",
		res.MaxConfidence, res.RecencyScore, res.CompositeScore))
	return out.String()
}
