package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

// SessionVerifier confirms that the user behind a token is still allowed to
// act with the identity the token claims.
type SessionVerifier interface {
	VerifySession(ctx context.Context, id Identity) error
}

type JWTConfig struct {
	Tokens      *TokenIssuer
	Revocations *TokenRevocationStore
	// Sessions is optional. When set, every request is re-checked against
	// the credential store.
	Sessions SessionVerifier
	Skipper  func(echo.Context) bool
}

// JWTMiddleware authenticates the bearer token and stores the Identity on
// the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			tokenStr, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return apperr.Unauthenticated(err.Error())
			}

			claims, err := cfg.Tokens.Verify(tokenStr)
			if err != nil {
				return apperr.Unauthenticated(err.Error())
			}
			id, err := claims.Identity()
			if err != nil {
				return apperr.Unauthenticated(err.Error())
			}

			if cfg.Revocations != nil {
				issuedAt := claims.IssuedAt
				if issuedAt == nil || cfg.Revocations.IsRevoked(id.TokenID, id.UserID, issuedAt.Time) {
					return apperr.Unauthenticated("token revoked")
				}
			}

			ctx := c.Request().Context()
			if cfg.Sessions != nil {
				if err := cfg.Sessions.VerifySession(ctx, id); err != nil {
					// Storage failures surface as INTERNAL, not as a logout.
					var appErr *apperr.Error
					if errors.As(err, &appErr) && appErr.Code == apperr.CodeUnauthenticated {
						return apperr.Unauthenticated("session no longer valid")
					}
					return fmt.Errorf("verify session: %w", err)
				}
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(ctx, id)))
			c.Set("user_id", id.UserID)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrTokenMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}
