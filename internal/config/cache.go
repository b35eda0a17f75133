package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the Redis-backed caches.  Two caches
// share it: the assignment decision cache (AssignmentTTL) and the response
// cache placed on the doctor trend endpoint (TTL).  Response cache keys
// always include the authenticated principal so one user's data is never
// served to another.
type CacheConfig struct {
    Enabled       bool
    Methods       map[string]bool
    TTL           time.Duration
    AssignmentTTL time.Duration
    Prefix        string
    MaxBodyBytes  int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:       envBool("CACHE_ENABLED", true),
        Methods:       parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:           envDur("CACHE_TTL", 5*time.Second),
        AssignmentTTL: envDur("ASSIGNMENT_CACHE_TTL", time.Minute),
        Prefix:        envStr("CACHE_PREFIX", "cache"),
        MaxBodyBytes:  envInt("CACHE_MAX_BODY_BYTES", 1048576),
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
