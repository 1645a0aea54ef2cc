package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"autoservice/internal/storage"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type ctxKey struct{}

// Claims - то, что внешний сервис авторизации кладет в токен.
type Claims struct {
	Role storage.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) Actor() (storage.Actor, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return storage.Actor{}, fmt.Errorf("%w: subject %q", ErrInvalidToken, c.Subject)
	}
	switch c.Role {
	case storage.RoleMaster, storage.RoleOperator, storage.RoleApprentice:
	default:
		return storage.Actor{}, fmt.Errorf("%w: role %q", ErrInvalidToken, c.Role)
	}
	return storage.Actor{UserID: id, Role: c.Role}, nil
}

func ParseToken(secret []byte, header string) (storage.Actor, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return storage.Actor{}, ErrMissingToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return storage.Actor{}, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	return claims.Actor()
}

// JWT кладет Actor из Bearer токена в контекст запроса.
func JWT(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := ParseToken(key, r.Header.Get("Authorization"))
			if err != nil {
				requireAuth(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func RequireRole(roles ...storage.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				requireAuth(w)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

func WithActor(ctx context.Context, actor storage.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

func ActorFrom(ctx context.Context) (storage.Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(storage.Actor)
	return actor, ok
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="autoservice"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
