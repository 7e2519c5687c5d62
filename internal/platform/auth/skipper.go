package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are routes served without a bearer token.
var publicPaths = map[string]bool{
	"/health":         true,
	"/health/db":      true,
	"/api/auth/login": true,
}

// AuthSkipper returns true for requests whose route skips authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
