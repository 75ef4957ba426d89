package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/joke-bot-go/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a Huma middleware that flood-protects the API, keyed on
// the client identity RequestMeta extracted. This is transport-level
// protection against webhook storms, independent of the per-user daily
// content quota. RequestMeta must run before it in the middleware chain.
func RateLimiter(api huma.API, limiter ratelimit.Limiter, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := MetaFromContext(ctx.Context())

		allowed, err := limiter.Allow(ctx.Context(), clientKey(meta))
		if err != nil {
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			logger.Warn("request rate limited",
				zap.String("client_ip", meta.ClientIP),
			)

			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

// clientKey hashes client IP and User-Agent into a limiter key.
func clientKey(meta Meta) string {
	hash := sha256.Sum256([]byte(meta.ClientIP + "|" + meta.UserAgent))

	return hex.EncodeToString(hash[:])
}
