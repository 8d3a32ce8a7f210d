package middleware

import (
	"context"
	"net/http"

	"github.com/upb/casting-agency/auth"
	"github.com/upb/casting-agency/metrics"
	"github.com/upb/casting-agency/utils"
	"go.uber.org/zap"
)

// Authorizer decides whether an Authorization header grants a permission
type Authorizer interface {
	Authorize(ctx context.Context, header, required string) (*auth.DecodedClaims, error)
}

// Gate protects handlers with a single required permission each
type Gate struct {
	authorizer Authorizer
	logger     *zap.Logger
}

// NewGate creates a new Gate
func NewGate(authorizer Authorizer, logger *zap.Logger) *Gate {
	return &Gate{
		authorizer: authorizer,
		logger:     logger,
	}
}

// Require returns middleware that admits only requests whose bearer token
// grants permission. Verified claims are added to the request context.
func (g *Gate) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			claims, err := g.authorizer.Authorize(ctx, r.Header.Get("Authorization"), permission)
			if err != nil {
				authErr, ok := auth.AsAuthError(err)
				if !ok {
					authErr = &auth.AuthError{Kind: auth.KindTokenMalformed, Description: "unable to verify token", Err: err}
				}

				metrics.AuthDecisions.WithLabelValues(permission, authErr.Code()).Inc()
				g.logger.Warn("authorization failed",
					zap.String("request_id", requestID),
					zap.String("permission", permission),
					zap.String("code", authErr.Code()),
					zap.Error(err))

				if err := utils.WriteError(w, authErr.Status(), authErr.Code(), authErr.Description); err != nil {
					g.logger.Error("failed to write authorization error", zap.Error(err))
				}
				return
			}

			metrics.AuthDecisions.WithLabelValues(permission, "allowed").Inc()
			g.logger.Debug("authorization granted",
				zap.String("request_id", requestID),
				zap.String("permission", permission),
				zap.String("sub", claims.Subject()))

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(ctx, claims)))
		})
	}
}
