// Package middleware provides the HTTP middleware wrapped around the ODM API router.
//
// Chain composes middleware with the first one listed running outermost:
//
//	handler := middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Logger,
//		middleware.Recovery,
//		middleware.CORS(cfg.Server.AllowedOrigins),
//		middleware.RateLimit(limiter),
//		middleware.Compress,
//		middleware.Idempotency(idempotency),
//	)
//
// RateLimit and Idempotency key their state by client address (ClientKey).
// Idempotency only applies to POST and PATCH requests that carry an
// Idempotency-Key header. It remembers uncompressed bodies, so replays are
// encoded for whichever client asks.
package middleware
