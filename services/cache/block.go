package cache

import (
	"fmt"
	"time"
)

// The worker uses the cache to remember that the extraction service
// rate-limited a platform, so subsequent fetches within the cooldown
// window are skipped instead of burning credits on blocked requests.

func blockKey(platform string) string {
	return platform + "_rate_limited"
}

// BlockPlatform records a rate-limit cooldown for a platform.
// A nil service means blocking is disabled.
func BlockPlatform(svc CacheService, platform string, cooldown time.Duration) {
	if svc == nil {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(cooldown.Seconds())))
	svc.Set(blockKey(platform), value, cooldown)
}

// PlatformBlocked reports whether a platform is inside a rate-limit cooldown.
func PlatformBlocked(svc CacheService, platform string) bool {
	if svc == nil {
		return false
	}
	_, err := svc.Get(blockKey(platform))
	return err == nil
}
