package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/marketplace/core/services"
)

// Services are the application services behind the REST API.
type Services struct {
	Auth     *services.AuthService
	Catalog  *services.CatalogService
	Cart     *services.CartService
	Orders   *services.OrderService
	Checkout *services.CheckoutService
	Payments *services.PaymentService
	Samples  *services.SampleService
}

// Handler serves the /api endpoints of the marketplace.
type Handler struct {
	auth     *services.AuthService
	catalog  *services.CatalogService
	carts    *services.CartService
	orders   *services.OrderService
	checkout *services.CheckoutService
	payments *services.PaymentService
	samples  *services.SampleService
	validate *validator.Validate
}

func NewHandler(s Services) *Handler {
	return &Handler{
		auth:     s.Auth,
		catalog:  s.Catalog,
		carts:    s.Cart,
		orders:   s.Orders,
		checkout: s.Checkout,
		payments: s.Payments,
		samples:  s.Samples,
		validate: newValidator(),
	}
}

type sessionKey struct{}

// sessionFrom returns the session stored by requireAuth.
func sessionFrom(ctx context.Context) (ports.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(ports.Session)
	return s, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireAuth resolves the bearer token to a session or answers 401.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, *sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole lets through sessions holding one of roles. It must run after requireAuth.
func requireRole(roles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := sessionFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "")
				return
			}
			for _, role := range roles {
				if sess.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden", "role "+string(sess.Role)+" cannot access this resource")
		})
	}
}

// ownUserID resolves the user a request acts for. Buyers may only act for
// themselves; back-office roles may name any user.
func ownUserID(sess ports.Session, requested int64) (int64, error) {
	if requested == 0 || requested == sess.UserID {
		return sess.UserID, nil
	}
	if sess.Role == entity.RoleUser {
		return 0, entity.ErrForbidden
	}
	return requested, nil
}

func pathInt(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		v := entity.NewValidationError()
		v.Add(name, "must be a positive integer")
		return 0, v
	}
	return id, nil
}

// queryInt returns the query value as an int, or fallback when absent or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return n
	}
	return fallback
}
