package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-mastery-api/internal/service"
	"github.com/noah-isme/gema-mastery-api/internal/utils"
)

const actorLocalKey = "actor"

var errUnknownRole = errors.New("unknown role")

// JWTProtected validates HMAC-signed bearer tokens and binds the caller as a service.Actor.
// Tokens without a subject or with a role outside the recognised set are rejected.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		scheme, tokenString, found := strings.Cut(authorization, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, keyFunc)
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		WithActor(c, actor)
		return c.Next()
	}
}

// WithActor binds the authenticated actor to the request.
func WithActor(c *fiber.Ctx, actor service.Actor) {
	c.Locals(actorLocalKey, actor)
}

// ActorFromContext returns the actor bound by JWTProtected, or the zero Actor when the request is anonymous.
func ActorFromContext(c *fiber.Ctx) service.Actor {
	if actor, ok := c.Locals(actorLocalKey).(service.Actor); ok {
		return actor
	}
	return service.Actor{}
}

func actorFromClaims(claims jwt.MapClaims) (service.Actor, error) {
	var actor service.Actor
	for _, key := range []string{"sub", "user_id", "id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		if userID, err := parseUserID(value); err == nil {
			actor.UserID = userID
			break
		}
	}
	if actor.UserID == 0 {
		return service.Actor{}, fmt.Errorf("subject missing")
	}

	for _, key := range []string{"role", "roles"} {
		if role, ok := firstKnownRole(claims[key]); ok {
			actor.Role = role
			return actor, nil
		}
	}
	return service.Actor{}, errUnknownRole
}

func parseUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v <= 0 || v != float64(uint64(v)) {
			return 0, fmt.Errorf("invalid subject %v", v)
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported subject type %T", value)
	}
}

func firstKnownRole(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return service.ParseRole(v)
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				if role, known := service.ParseRole(str); known {
					return role, true
				}
			}
		}
	}
	return "", false
}
