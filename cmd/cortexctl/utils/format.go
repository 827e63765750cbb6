// Package utils provides utility functions for the cortexctl CLI.
package utils

import (
	"fmt"
	"time"
)

// FormatDuration converts a duration into a short human-readable string using
// progressive unit scaling. Keeps table columns narrow when displaying node
// session ages and hub uptimes.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	} else {
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// FormatMetric renders an optional sensor value for table output. Sensors a
// node doesn't carry arrive as nil and display as a dash rather than a fake
// zero.
func FormatMetric(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
