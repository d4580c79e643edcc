package domain

import (
	"fmt"
	"time"
)

// RenderDuration formats d as HH:MM:SS. Hours are not wrapped at 24.
func RenderDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
