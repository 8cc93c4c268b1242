package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/volunteerhub/backend/internal/apperrors"
	"github.com/volunteerhub/backend/internal/auth/service"
	"github.com/volunteerhub/backend/internal/metrics"
	"github.com/volunteerhub/backend/internal/models"
	"go.uber.org/zap"
)

// Rejection messages returned by the gates
const (
	MsgNoToken          = "No token provided"
	MsgTokenExpired     = "Token expired"
	MsgInvalidToken     = "Invalid token"
	MsgInsufficientRole = "insufficient role"
)

// TokenDecoder verifies a raw token and returns its claims
type TokenDecoder interface {
	Decode(token string) (*service.Claims, error)
}

// Outcome is the result of applying a filter to a request.
// A nil Err means the request continues with Request.
type Outcome struct {
	Request *http.Request
	Err     error
}

// Continue lets the request pass on to the next stage
func Continue(r *http.Request) Outcome {
	return Outcome{Request: r}
}

// Reject stops the pipeline with err
func Reject(err error) Outcome {
	return Outcome{Err: err}
}

// Rejected reports whether the filter stopped the request
func (o Outcome) Rejected() bool {
	return o.Err != nil
}

// Filter is one stage of a request pipeline
type Filter interface {
	Apply(r *http.Request) Outcome
}

// FilterFunc adapts a function to Filter
type FilterFunc func(r *http.Request) Outcome

// Apply calls f(r)
func (f FilterFunc) Apply(r *http.Request) Outcome {
	return f(r)
}

// Pipeline applies filters in order and stops at the first rejection
type Pipeline []Filter

// Apply runs every filter, passing each the request produced by the previous one
func (p Pipeline) Apply(r *http.Request) Outcome {
	for _, filter := range p {
		outcome := filter.Apply(r)
		if outcome.Rejected() {
			return outcome
		}
		r = outcome.Request
	}
	return Continue(r)
}

// Authenticate verifies the request's session token and attaches its claims to the request context
func Authenticate(decoder TokenDecoder) Filter {
	return FilterFunc(func(r *http.Request) Outcome {
		token, ok := ExtractToken(r)
		if !ok {
			return Reject(apperrors.Unauthenticated(MsgNoToken))
		}

		claims, err := decoder.Decode(token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				return Reject(apperrors.Wrap(apperrors.KindUnauthenticated, MsgTokenExpired, err))
			case errors.Is(err, service.ErrInvalidToken):
				return Reject(apperrors.Wrap(apperrors.KindUnauthenticated, MsgInvalidToken, err))
			default:
				return Reject(apperrors.Infrastructure(err))
			}
		}

		return Continue(r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRoles checks the authenticated identity's role against roles.
// An empty set admits any role. It must run after Authenticate.
func RequireRoles(roles ...models.Role) Filter {
	return FilterFunc(func(r *http.Request) Outcome {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			return Reject(apperrors.Infrastructure(errors.New("role check reached without an authenticated identity")))
		}
		if claims.Role == "" {
			return Reject(apperrors.Infrastructure(errors.New("verified token carries no role")))
		}
		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			return Reject(apperrors.Forbidden(MsgInsufficientRole))
		}
		return Continue(r)
	})
}

// Authorize authenticates the request and then requires one of roles
func Authorize(decoder TokenDecoder, roles ...models.Role) Pipeline {
	return Pipeline{Authenticate(decoder), RequireRoles(roles...)}
}

// Middleware adapts a filter to a chi middleware. Rejections are written as JSON errors.
func Middleware(filter Filter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome := filter.Apply(r)
			if !outcome.Rejected() {
				metrics.GateDecisionsTotal.WithLabelValues("allowed").Inc()
				next.ServeHTTP(w, outcome.Request)
				return
			}

			kind := apperrors.KindOf(outcome.Err)
			metrics.GateDecisionsTotal.WithLabelValues(kind.String()).Inc()
			if kind == apperrors.KindInfrastructure {
				logger.Error("request gate failed", zap.String("path", r.URL.Path), zap.Error(outcome.Err))
			} else {
				logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Stringer("kind", kind), zap.Error(outcome.Err))
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(kind.Status())
			json.NewEncoder(w).Encode(map[string]string{"error": apperrors.PublicMessage(outcome.Err)})
		})
	}
}

// AuthMiddleware admits any authenticated request
func AuthMiddleware(decoder TokenDecoder, logger *zap.Logger) func(http.Handler) http.Handler {
	return Middleware(Authenticate(decoder), logger)
}

// RoleMiddleware admits authenticated requests whose role is one of roles
func RoleMiddleware(decoder TokenDecoder, logger *zap.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return Middleware(Authorize(decoder, roles...), logger)
}
