package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo holds parsed information from a User-Agent string
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, tablet, desktop
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	Platform   string `json:"platform"` // android, ios, windows, mac, linux
	IsBot      bool   `json:"is_bot"`
}

var tabletIndicators = []string{"ipad", "tablet", "kindle", "playbook", "nexus 7", "nexus 9", "nexus 10", "xoom", "sm-t"}

// ordered so "mac os x" is not shadowed by a shorter match
var platformNames = []struct{ key, platform string }{
	{"android", "android"},
	{"iphone os", "ios"},
	{"ios", "ios"},
	{"windows", "windows"},
	{"mac os x", "mac"},
	{"macos", "mac"},
	{"chrome os", "chromeos"},
	{"ubuntu", "linux"},
	{"linux", "linux"},
}

// ParseUserAgent parses a User-Agent string and extracts device information
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return DeviceInfo{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown", Platform: "unknown"}
	}

	parser := ua.New(userAgent)
	info := DeviceInfo{
		DeviceType: "desktop",
		OS:         "Unknown",
		Browser:    "Unknown",
		Platform:   "unknown",
		IsBot:      parser.Bot(),
	}

	if parser.Mobile() {
		info.DeviceType = "mobile"
		lower := strings.ToLower(userAgent)
		for _, indicator := range tabletIndicators {
			if strings.Contains(lower, indicator) {
				info.DeviceType = "tablet"
				break
			}
		}
	}

	if name, _ := parser.Browser(); name != "" {
		info.Browser = name
	}

	osInfo := parser.OSInfo()
	if osInfo.Name != "" {
		info.OS = strings.TrimSpace(osInfo.Name + " " + osInfo.Version)
		osName := strings.ToLower(osInfo.Name)
		for _, p := range platformNames {
			if strings.Contains(osName, p.key) {
				info.Platform = p.platform
				break
			}
		}
	}
	return info
}
