package constants

import (
	"fmt"
	"time"
)

// Redis key and TTL conventions for CineBook.
// Pattern: cinebook:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

// Static catalog data (changes only on admin edits)
const (
	TTL_MOVIES   = 1 * time.Hour
	TTL_THEATRES = 4 * time.Hour
	TTL_SHOWS    = 15 * time.Minute
)

// Highly dynamic data (real-time sensitive)
const (
	TTL_SEATMAP = 5 * time.Second // at most one reconciliation interval stale
)

// ================== KEY PREFIX ==================

const CACHE_PREFIX = "cinebook"

// ================== CATALOG MODULE ==================

func BuildMovieKey(movieID string) string {
	return fmt.Sprintf("%s:catalog:movie:%s", CACHE_PREFIX, movieID)
}

func BuildMovieListKey() string {
	return fmt.Sprintf("%s:catalog:movies:all", CACHE_PREFIX)
}

func BuildShowKey(showID string) string {
	return fmt.Sprintf("%s:catalog:show:%s", CACHE_PREFIX, showID)
}

func BuildMovieShowsKey(movieID string) string {
	return fmt.Sprintf("%s:catalog:shows:movie:%s", CACHE_PREFIX, movieID)
}

// ================== LOCK MODULE ==================

// Seat lock keys carry the owning user, lock id and expiry; the value is
// authoritative only after re-checking expires_at against the clock.

func BuildSeatLockKey(showID, seatLabel string) string {
	return fmt.Sprintf("%s:lock:seat:%s:%s", CACHE_PREFIX, showID, seatLabel)
}

func BuildLockKey(lockID string) string {
	return fmt.Sprintf("%s:lock:meta:%s", CACHE_PREFIX, lockID)
}

func BuildLockSeatsKey(lockID string) string {
	return fmt.Sprintf("%s:lock:seats:%s", CACHE_PREFIX, lockID)
}

func BuildShowLocksKey(showID string) string {
	return fmt.Sprintf("%s:lock:show:%s", CACHE_PREFIX, showID)
}

// ================== RATE LIMIT MODULE ==================

func BuildRateLimitKey(clientIP, limitType string) string {
	return fmt.Sprintf("%s:ratelimit:%s:%s", CACHE_PREFIX, limitType, clientIP)
}
