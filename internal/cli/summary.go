// This file contains the aligned-column table infrastructure used for the
// post-run loudness summary (Measured → Target → Output).

package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/levelwise/levelwise/internal/media"
)

// MetricRow represents a single row in a comparison table.
// Values are pre-formatted strings to allow for mixed formatting.
type MetricRow struct {
	Label  string   // Row label, e.g., "Integrated Loudness"
	Values []string // One value per column
	Unit   string   // Unit suffix, e.g., "LUFS", "dBTP", "" for unitless
}

// MetricTable formats aligned columns for metric comparison.
// Handles variable column widths and missing values.
type MetricTable struct {
	Headers []string    // Column headers, e.g., ["Measured", "Target", "Output"]
	Rows    []MetricRow // Data rows
}

// String renders the table with aligned columns.
// - Labels are left-aligned
// - Numeric values are right-aligned within their column
// - Units are appended after the last value column
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth := 0
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	// Value column widths (one per header)
	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header) // Start with header width
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
			}
		}
	}

	var sb strings.Builder

	// Header row
	sb.WriteString(strings.Repeat(" ", labelWidth+2)) // Label column + gap
	for i, header := range t.Headers {
		sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], header))
	}
	sb.WriteString("\n")

	// Data rows
	for _, row := range t.Rows {
		// Label (left-aligned)
		sb.WriteString(fmt.Sprintf("%-*s  ", labelWidth, row.Label))

		// Values (right-aligned within their columns)
		for i := 0; i < len(t.Headers); i++ {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], val))
		}

		// Unit (left-aligned, after values)
		if row.Unit != "" {
			sb.WriteString(row.Unit)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// AddRow adds a row with numeric values, formatting them automatically.
// Pass math.NaN() for missing values - they will display as "-".
func (t *MetricTable) AddRow(label string, decimals int, unit string, values ...float64) {
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = formatMetric(v, decimals)
	}
	t.Rows = append(t.Rows, MetricRow{Label: label, Values: formatted, Unit: unit})
}

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// formatMetric formats a numeric value with appropriate precision.
// NaN and Inf display as MissingValue.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricSigned formats a value with explicit sign for positive values.
// Useful for showing gain changes like "+2.5 dB" or "-1.2 dB".
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%+.*f", decimals, value)
}

// PrintSummary prints a per-file loudness summary to stdout after the UI
// has released the terminal.
func PrintSummary(results []*media.Result, targetLevel float64) {
	for _, result := range results {
		if result == nil {
			continue
		}

		header := result.InputPath + " → " + result.OutputPath
		if result.Skipped {
			header += " (dry run)"
		}
		fmt.Println(TitleStyle.Render(header))

		for _, plan := range result.Streams {
			if len(result.Streams) > 1 {
				fmt.Printf("%s\n", KeyStyle.Render(fmt.Sprintf("Audio stream %d", plan.Index)))
			}
			if plan.Report != nil {
				mode := "linear"
				if plan.Dynamic {
					mode = "dynamic"
				}
				table := &MetricTable{Headers: []string{"Measured", "Target", "Output"}}
				table.AddRow("Integrated Loudness", 1, "LUFS", plan.Report.InputI, targetLevel, plan.Report.OutputI)
				table.AddRow("True Peak", 1, "dBTP", plan.Report.InputTP, math.NaN(), plan.Report.OutputTP)
				table.AddRow("Loudness Range", 1, "LU", plan.Report.InputLRA, plan.EffectiveLRA, plan.Report.OutputLRA)
				table.AddRow("Threshold", 1, "LUFS", plan.Report.InputThresh, math.NaN(), plan.Report.OutputThresh)
				fmt.Print(table.String())
				fmt.Printf("%s %s\n", KeyStyle.Render("Normalisation:"), ValueStyle.Render(mode))
			} else {
				fmt.Printf("%s %s\n", KeyStyle.Render("Gain adjustment:"),
					ValueStyle.Render(formatMetricSigned(plan.Adjustment, 2)+" dB"))
			}
			if result.Skipped {
				fmt.Printf("%s %s\n", KeyStyle.Render("Planned filter:"), plan.Filter)
			}
		}
		fmt.Println()
	}
}
