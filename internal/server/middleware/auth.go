package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var allPermissions = []string{
	"analysis.create",
	"analysis.view",
	"relation.view",
	"cache.refresh",
}

// AuthMiddleware accepts the master API key or a JWT signed by a key from
// the JWKS endpoint. When neither is configured every request is let in as
// an administrator.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cc := c.(*AppContext)
		app := cc.App

		if app.MasterAPIKey == "" && app.Key == nil {
			cc.User = &AppUser{Subject: "anonymous", Role: "admin", Permissions: allPermissions}
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		if app.MasterAPIKey != "" && token == app.MasterAPIKey {
			cc.User = &AppUser{Subject: "master", Role: "admin", Permissions: allPermissions}
			return next(c)
		}
		if app.Key == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		parsed, err := jwt.Parse(token, app.Key.Keyfunc)
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		user, ok := userFromClaims(claims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
		}
		cc.User = user
		return next(c)
	}
}

func userFromClaims(claims jwt.MapClaims) (*AppUser, bool) {
	var subject string
	switch id := claims["id"].(type) {
	case string:
		subject = id
	case float64:
		subject = strconv.FormatInt(int64(id), 10)
	default:
		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			return nil, false
		}
		subject = sub
	}

	role := "user"
	if roleClaim, ok := claims["role"].(string); ok {
		role = roleClaim
	}

	var permissions []string
	if permsClaim, ok := claims["permissions"].([]any); ok {
		for _, p := range permsClaim {
			if pStr, ok := p.(string); ok {
				permissions = append(permissions, pStr)
			}
		}
	}
	if role == "admin" && len(permissions) == 0 {
		permissions = allPermissions
	}
	if role != "admin" && permissions == nil {
		permissions = []string{"analysis.create", "analysis.view", "relation.view"}
	}

	return &AppUser{Subject: subject, Role: role, Permissions: permissions}, true
}
