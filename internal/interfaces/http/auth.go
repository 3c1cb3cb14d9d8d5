package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewToken signs an HS256 token for actor.
func NewToken(secret string, actor entities.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseActor(secret, raw string) (entities.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(
		raw,
		&claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return entities.Actor{}, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return entities.Actor{}, fmt.Errorf("invalid subject: %w", err)
	}

	role := entities.Role(claims.Role)
	if role == "" {
		role = entities.RoleUser
	}
	if !role.Valid() {
		return entities.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return entities.Actor{ID: id, Role: role}, nil
}

// AuthMiddleware resolves the bearer token into the request actor.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			actor, err := parseActor(secret, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			ctx := entities.ContextWithActor(c.Request().Context(), actor)
			ctx = log.ToContext(ctx, log.FromContext(ctx).WithField("actor_id", actor.ID))
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func actorFrom(c echo.Context) entities.Actor {
	actor, _ := entities.ActorFromContext(c.Request().Context())
	return actor
}
