package collect

import (
	"strings"

	"github.com/jobsift/jobsift/internal/urlnorm"
)

// Platform identifies the hosting platform of a source URL. The platform
// drives link selectors and pagination rules.
type Platform string

// Known platforms.
const (
	PlatformLinkedIn   Platform = "linkedin"
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformAshby      Platform = "ashby"
	PlatformGeneric    Platform = "generic"
)

// DetectPlatform inspects the source host and picks a platform.
func DetectPlatform(sourceURL string) Platform {
	host := urlnorm.Host(sourceURL)
	switch {
	case strings.Contains(host, "linkedin."):
		return PlatformLinkedIn
	case strings.Contains(host, "greenhouse.io"):
		return PlatformGreenhouse
	case strings.Contains(host, "lever.co"):
		return PlatformLever
	case strings.Contains(host, "ashbyhq.com"):
		return PlatformAshby
	default:
		return PlatformGeneric
	}
}
