package httpmw

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pollhub/poll-service/internal/domain"

	"github.com/patrickmn/go-cache"
)

// Identifier проверяет access token и возвращает пользователя.
type Identifier interface {
	Identify(ctx context.Context, token string) (*domain.User, error)
}

type ctxKey int

const userKey ctxKey = 0

// UserFromCtx возвращает пользователя, положенного Auth middleware.
// Паника при отсутствии намеренная: хэндлер за пределами Auth это баг роутинга.
func UserFromCtx(ctx context.Context) *domain.User {
	return ctx.Value(userKey).(*domain.User)
}

type Auth struct {
	ids   Identifier
	cache *cache.Cache
}

func NewAuth(ids Identifier) *Auth {
	return &Auth{
		ids:   ids,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Handle проверяет Bearer token; валидные токены кэшируются на 5 минут.
func (a *Auth) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		if cached, found := a.cache.Get(token); found {
			u := cached.(*domain.User)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
			return
		}

		u, err := a.ids.Identify(r.Context(), token)
		if err != nil {
			slog.Debug("middleware.auth: identify failed", slog.Any("err", err))
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		a.cache.SetDefault(token, u)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

// RequireAdmin пускает дальше только админов. Вешается после Handle.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := UserFromCtx(r.Context()); !u.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
