package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
)

const localsCourierID = "deliveryBoyID"

// requireAuth guards protected routes with a bearer JWT. The three failure
// modes get distinct messages for client diagnostics but share the 401
// status.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fiber.NewError(fiber.StatusUnauthorized, "missing or malformed authorization header")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "token has expired")
		}
		return fiber.NewError(fiber.StatusUnauthorized, "token is invalid")
	}

	id, _ := claims["id"].(string)
	c.Locals(localsCourierID, id)
	return c.Next()
}

func (s *Server) issueToken(deliveryBoyID string) (string, error) {
	claims := jwt.MapClaims{
		"id":  deliveryBoyID,
		"exp": time.Now().Add(s.cfg.JWT.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.SecretKey))
}

// validateWSToken mirrors requireAuth for websocket upgrades, where couriers
// pass credentials as query parameters.
func (s *Server) validateWSToken(tokenString, courierID string) bool {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return false
	}
	id, _ := claims["id"].(string)
	return id == courierID
}
