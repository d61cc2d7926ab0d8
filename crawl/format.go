package crawl

import "fmt"

// TruncateURL shortens a URL for progress output. API URLs share a long
// prefix, so the tail with the query is kept.
func TruncateURL(url string, maxLen int) string {
	switch {
	case maxLen <= 0:
		return ""
	case len(url) <= maxLen:
		return url
	case maxLen < 4:
		return url[:maxLen]
	}
	return "..." + url[len(url)-maxLen+3:]
}

// byteUnits are the binary units FormatBytes scales through.
var byteUnits = []string{"KB", "MB", "GB", "TB"}

// FormatBytes formats a transfer size in human-readable form.
func FormatBytes(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	size := float64(bytes) / 1024
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", size, byteUnits[unit])
}
