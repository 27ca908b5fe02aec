// pkg/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"bloom/pkg/config"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// jwksCache caches JWKS sets per URL.
type jwksCache struct {
	mu   sync.RWMutex
	sets map[string]cachedJWKS
}

type cachedJWKS struct {
	set     jwk.Set
	expires time.Time
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		return e.set, nil
	}
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.sets[url] = cachedJWKS{set: set, expires: time.Now().Add(ttl)}
	return set, nil
}

type ctxUserKey struct{}

// User identifies the Supabase account behind a verified access token.
type User struct {
	ID    string
	Email string
}

// UserFrom returns the verified user, if the request carried one.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxUserKey{}).(User)
	return u, ok
}

// WithUser attaches a verified user to the context the way SupabaseAuth does.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// SupabaseAuth validates the bearer access token against the project JWKS and
// puts the user into the request context. Requests without a valid token get 401.
func SupabaseAuth(cfg config.Config) func(http.Handler) http.Handler {
	cache := &jwksCache{}
	jwksTTL := 6 * time.Hour
	issuer := strings.TrimRight(cfg.SupabaseURL, "/") + "/auth/v1"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SupabaseURL == "" || cfg.SupabaseJWKSURL == "" {
				http.Error(w, "auth not configured", http.StatusInternalServerError)
				return
			}
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimSpace(authz[len("Bearer "):])

			set, err := cache.get(r.Context(), cfg.SupabaseJWKSURL, jwksTTL)
			if err != nil {
				http.Error(w, "jwks fetch failed", http.StatusInternalServerError)
				return
			}

			tok, err := jwt.Parse([]byte(raw),
				jwt.WithKeySet(set),
				jwt.WithIssuer(issuer),
				jwt.WithAudience("authenticated"),
				jwt.WithValidate(true),
				jwt.WithVerify(true),
				jwt.WithAcceptableSkew(cfg.JWTClockSkew),
			)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			u := User{ID: tok.Subject()}
			if v, ok := tok.Get("email"); ok {
				if s, ok := v.(string); ok {
					u.Email = s
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}
