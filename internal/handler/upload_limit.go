package handler

import "strconv"

// formatUploadLimit renders a byte limit for error messages, rounding down to
// whole MB or KB.
func formatUploadLimit(limit int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case limit <= 0:
		return "unlimited"
	case limit >= mb:
		return strconv.FormatInt(limit/mb, 10) + "MB"
	case limit >= kb:
		return strconv.FormatInt(limit/kb, 10) + "KB"
	default:
		return strconv.FormatInt(limit, 10) + "B"
	}
}
