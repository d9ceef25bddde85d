package models

import (
	"fmt"
	"time"
)

// FormatCount renders a view/like/comment count the way the UI shows it:
// 1.2M, 3.4K or the plain number.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatPublished turns an RFC3339 publish timestamp into "Jan 2, 2006".
func FormatPublished(s string) string {
	if s == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "Invalid Date"
	}
	return t.Format("Jan 2, 2006")
}
