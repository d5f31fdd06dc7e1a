// Package useragent classifies User-Agent strings into coarse browser
// and platform buckets by substring matching. It trades accuracy for
// stable, low-cardinality analytics categories.
package useragent

import "strings"

const Unknown = "Unknown"

// Browser returns one of Firefox, Chrome, Safari, Edge,
// Internet Explorer, Other, or Unknown for an empty input.
//
// Order matters: Chrome ships "Safari" in its UA and Edge ships
// "Chrome", so the more specific checks come first.
func Browser(ua string) string {
	if ua == "" {
		return Unknown
	}
	switch {
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "Edg"):
		return "Edge"
	case strings.Contains(ua, "Chrome"):
		return "Chrome"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	case strings.Contains(ua, "MSIE"), strings.Contains(ua, "Trident"):
		return "Internet Explorer"
	default:
		return "Other"
	}
}

// Platform returns one of Windows, MacOS, iOS, Android, Linux, Other,
// or Unknown for an empty input.
func Platform(ua string) string {
	if ua == "" {
		return Unknown
	}
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS"):
		return "MacOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return "Other"
	}
}
