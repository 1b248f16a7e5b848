// Package services implements the client for the remote music service.
//
// [SpotifyService] covers the two surfaces the backend needs:
//
//  1. The accounts token endpoint: authorization-code exchange and
//     refresh-token exchange, both single-attempt, fail-fast, with upstream
//     status and body preserved in [shared.UpstreamError].
//  2. The web API: profile lookup, the caller's playlist listing (following
//     pagination to exhaustion), and playlist creation.
//
// Outbound calls share one rate limiter and a fixed 10 second timeout.
// Retry policy is deliberately absent; it belongs to callers, and none is
// applied in this service.
package services
