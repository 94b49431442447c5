package admission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"postboard/internal/models"

	"github.com/gorilla/mux"
)

type contextKey string

// memberContextKey is where the middleware stores the authenticated member.
const memberContextKey contextKey = "member"

// MemberFromContext returns the authenticated member, or nil on public routes
// and when auth is disabled.
func MemberFromContext(ctx context.Context) *models.Member {
	member, _ := ctx.Value(memberContextKey).(*models.Member)
	return member
}

// Middleware wires token resolution, privilege gating, and rate admission
// into HTTP handler chains. One instance serves all routes; each route picks
// its privilege level via Require.
type Middleware struct {
	resolver   *Resolver
	controller *Controller

	// enableAuth false puts the service in dev mode: privileged routes
	// accept any request and admission is keyed by client IP.
	enableAuth bool

	// countDenied true runs admission before the privilege check, so
	// requests that will be rejected still consume rate budget.
	countDenied bool
}

// NewMiddleware creates the admission middleware.
func NewMiddleware(resolver *Resolver, controller *Controller, enableAuth, countDenied bool) *Middleware {
	return &Middleware{
		resolver:    resolver,
		controller:  controller,
		enableAuth:  enableAuth,
		countDenied: countDenied,
	}
}

// Require returns middleware enforcing the given privilege level and the
// admission policy. The default order is authenticate, gate, then admit, so
// rejected requests spend no rate budget; countDenied flips admission ahead
// of the gate.
func (m *Middleware) Require(level PrivilegeLevel) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			member, err := m.authenticate(r, level)
			if err != nil {
				writeAdmissionError(w, err)
				return
			}

			key := admissionKey(r, member)

			if m.countDenied {
				if !m.admit(w, r, key) {
					return
				}
				if err := m.gate(member, level); err != nil {
					writeAdmissionError(w, err)
					return
				}
			} else {
				if err := m.gate(member, level); err != nil {
					writeAdmissionError(w, err)
					return
				}
				if !m.admit(w, r, key) {
					return
				}
			}

			if member != nil {
				r = r.WithContext(context.WithValue(r.Context(), memberContextKey, member))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate resolves the bearer token when the route needs one. Public
// routes skip resolution entirely, even when a token is present.
func (m *Middleware) authenticate(r *http.Request, level PrivilegeLevel) (*models.Member, error) {
	if level == PrivilegeNone || !m.enableAuth {
		return nil, nil
	}

	token, err := ExtractToken(r)
	if err != nil {
		return nil, err
	}

	member, err := m.resolver.Resolve(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (m *Middleware) gate(member *models.Member, level PrivilegeLevel) error {
	if !m.enableAuth {
		return nil
	}
	return Authorize(member, level)
}

// admit runs the rate decision and writes the response when denied.
// Returns whether the request may proceed.
func (m *Middleware) admit(w http.ResponseWriter, r *http.Request, key string) bool {
	decision := m.controller.Admit(r.Context(), key)

	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))

	if decision.Allowed {
		return true
	}

	if decision.Reason == ReasonStoreUnavailable {
		writeJSONError(w, http.StatusServiceUnavailable,
			models.NewErrorResponse("Rate store unavailable", models.ErrorCodeRateStoreUnavailable))
		return false
	}

	// Round up to whole seconds so the hint is never early; exact
	// whole-second cooldowns stay exact.
	retryAfterSecs := int64((decision.RetryAfter + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
	writeJSONError(w, http.StatusTooManyRequests,
		models.NewErrorResponse(
			fmt.Sprintf("Too many requests, retry in %ds", retryAfterSecs),
			models.ErrorCodeCooldownActive))
	return false
}

// admissionKey picks the identity the rate window is keyed by: the member ID
// when authenticated, otherwise the client IP.
func admissionKey(r *http.Request, member *models.Member) string {
	if member != nil {
		return "member:" + member.ID
	}
	return "ip:" + clientIP(r)
}

// clientIP extracts the client IP from the request, checking proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

func writeAdmissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer realm="postboard"`)
		writeJSONError(w, http.StatusUnauthorized,
			models.NewErrorResponse("Authentication required", models.ErrorCodeUnauthorized))
	case errors.Is(err, ErrForbidden):
		writeJSONError(w, http.StatusForbidden,
			models.NewErrorResponse("Insufficient privileges", models.ErrorCodeForbidden))
	default:
		writeJSONError(w, http.StatusInternalServerError,
			models.NewErrorResponse("Internal server error", models.ErrorCodeInternalError))
	}
}

func writeJSONError(w http.ResponseWriter, status int, resp *models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
