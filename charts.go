package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"creekwatch/internal/creek"
)

// Reading colors relative to the screening standard.
var (
	colorOK   = lipgloss.Color("82")  // Green
	colorWarn = lipgloss.Color("226") // Yellow
	colorOver = lipgloss.Color("196") // Red
	colorDim  = lipgloss.Color("240")
)

// bandColor maps a classification band to its display color.
func bandColor(band creek.Band) lipgloss.Color {
	switch band {
	case creek.BandAbove:
		return colorOver
	case creek.BandAt:
		return colorWarn
	}
	return colorOK
}

// Sparkline creates a simple sparkline from values
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	// Find min and max
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	// Sparkline characters from bottom to top
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var result strings.Builder
	for _, v := range values {
		var idx int
		if max == min {
			idx = len(chars) / 2
		} else {
			normalized := (v - min) / (max - min)
			idx = int(normalized * float64(len(chars)-1))
		}
		result.WriteRune(chars[idx])
	}

	return result.String()
}

// TrendLine pairs a sparkline of the series with its direction and net
// change. Every screening threshold here is an upper bound, so rising reads
// as red and falling as green.
func TrendLine(points []creek.TrendPoint, direction creek.TrendDirection) string {
	values := creek.PointValues(points)
	if len(values) == 0 {
		return "no readings in window"
	}

	arrow := "→"
	color := colorDim
	switch direction {
	case creek.TrendRising:
		arrow, color = "↑", colorOver
	case creek.TrendFalling:
		arrow, color = "↓", colorOK
	}

	arrowStyle := lipgloss.NewStyle().Foreground(color)
	change := values[len(values)-1] - values[0]
	return fmt.Sprintf("%s %s %s (%+.1f)",
		Sparkline(values),
		arrowStyle.Render(arrow),
		direction,
		change,
	)
}

// BarChart creates a horizontal bar chart
func BarChart(label string, value, max float64, width int, color lipgloss.Color) string {
	if max == 0 {
		max = value
	}

	percentage := value / max
	if percentage > 1 {
		percentage = 1
	}

	filledWidth := int(float64(width) * percentage)
	if filledWidth < 0 {
		filledWidth = 0
	}
	if filledWidth > width {
		filledWidth = width
	}

	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	barStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(colorDim)

	return fmt.Sprintf("%s %s%s %.1f",
		label,
		barStyle.Render(filled),
		emptyStyle.Render(empty),
		value,
	)
}

// RankingChart renders ranked sites as horizontal bars scaled to the worst
// reading, each colored by how it sits against the standard.
func RankingChart(ranked []creek.RankedSite, std creek.Standard, width int) string {
	if len(ranked) == 0 {
		return "No sites have a reading for this metric."
	}

	maxVal := ranked[0].Value
	if std.Threshold > maxVal {
		maxVal = std.Threshold
	}

	labelWidth := 0
	for i := range ranked {
		if len(ranked[i].Name) > labelWidth {
			labelWidth = len(ranked[i].Name)
		}
	}

	lines := make([]string, len(ranked))
	for i := range ranked {
		label := fmt.Sprintf("%-*s", labelWidth, ranked[i].Name)
		lines[i] = BarChart(label, ranked[i].Value, maxVal, width, bandColor(std.Classify(ranked[i].Value)))
	}
	return strings.Join(lines, "\n")
}

// ThresholdGauge places a reading on a scale with the screening threshold at
// its midpoint. ┃ marks the threshold, ● the reading.
func ThresholdGauge(value float64, std creek.Standard, width int) string {
	scale := std.Threshold * 2
	if value > scale {
		scale = value
	}
	if scale == 0 {
		scale = 1
	}

	position := int((value / scale) * float64(width))
	if position < 0 {
		position = 0
	}
	if position >= width {
		position = width - 1
	}

	tick := int((std.Threshold / scale) * float64(width))
	if tick >= width {
		tick = width - 1
	}

	gauge := make([]rune, width)
	for i := range gauge {
		gauge[i] = '─'
	}
	gauge[tick] = '┃'
	gauge[position] = '●'

	style := lipgloss.NewStyle().Foreground(bandColor(std.Classify(value)))
	return style.Render("│"+string(gauge)+"│") + " " + fmt.Sprintf("%.1f %s", value, std.Unit)
}

// RangeBar draws a metric's observed spread: the whisker spans min to max
// and ● marks the average.
func RangeBar(min, avg, max float64, width int) string {
	normalize := func(v float64) int {
		if max == min {
			return width / 2
		}
		pos := int(((v - min) / (max - min)) * float64(width))
		if pos < 0 {
			pos = 0
		}
		if pos >= width {
			pos = width - 1
		}
		return pos
	}

	plot := make([]rune, width)
	for i := range plot {
		plot[i] = '─'
	}
	plot[0] = '├'
	plot[width-1] = '┤'
	plot[normalize(avg)] = '●'

	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return fmt.Sprintf("%.1f %s %.1f (avg %.1f)",
		min,
		barStyle.Render(string(plot)),
		max,
		avg,
	)
}

// ComplianceSummaryBar shows the share of sites at or below the criterion.
func ComplianceSummaryBar(compliant, total, width int) string {
	if total == 0 {
		return "No sites with readings"
	}

	percentage := float64(compliant) / float64(total) * 100
	filledWidth := int(float64(width) * percentage / 100)
	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	// Color based on percentage
	var color lipgloss.Color
	switch {
	case percentage >= 75:
		color = colorOK
	case percentage >= 50:
		color = colorWarn
	default:
		color = colorOver
	}

	barStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(colorDim)

	return fmt.Sprintf("%d/%d sites compliant %s%s %.0f%%",
		compliant,
		total,
		barStyle.Render(filled),
		emptyStyle.Render(empty),
		percentage,
	)
}
