package mw

import (
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Claims is the subset of a Keycloak access token the API uses.
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
}

// JWTAuth validates the Bearer token from Keycloak against the JWKS in kf.
// It extracts the realm from the "iss" claim (issuer URL contains the realm name).
// The validated claims are stored in echo.Context for downstream use.
func JWTAuth(kf keyfunc.Keyfunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims := &Claims{}
			_, err := jwt.ParseWithClaims(tokenStr, claims,
				kf.KeyfuncCtx(c.Request().Context()),
				jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256"}),
				jwt.WithExpirationRequired(),
			)
			if err != nil {
				log.Warn().Err(err).Msg("JWT verification failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			realm := extractRealm(claims.Issuer)
			if realm == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "cannot extract realm from token issuer")
			}

			c.Set("userID", claims.Subject)
			c.Set("username", claims.PreferredUsername)
			c.Set(CtxRealm, realm)

			return next(c)
		}
	}
}

// Context keys set by JWTAuth and RealmScope.
const (
	CtxRealm      = "realm"
	CtxCrossRealm = "crossRealm"
)

// RealmScope confines a request to the realm of its token. Tokens issued by
// adminRealm may act on any realm and may pick one with the X-Realm header.
func RealmScope(adminRealm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenRealm, _ := c.Get(CtxRealm).(string)
			cross := adminRealm != "" && tokenRealm == adminRealm
			c.Set(CtxCrossRealm, cross)

			if realm := c.Request().Header.Get("X-Realm"); realm != "" {
				if !cross {
					return echo.NewHTTPError(http.StatusForbidden, "X-Realm requires an admin realm token")
				}
				c.Set(CtxRealm, realm)
			}
			return next(c)
		}
	}
}

// Realm returns the realm the request is scoped to.
func Realm(c echo.Context) string {
	realm, _ := c.Get(CtxRealm).(string)
	return realm
}

// CrossRealm reports whether the caller may act on every realm.
func CrossRealm(c echo.Context) bool {
	cross, _ := c.Get(CtxCrossRealm).(bool)
	return cross
}

// CanAccessRealm reports whether the caller may read realm (a realm name).
func CanAccessRealm(c echo.Context, realm string) bool {
	return CrossRealm(c) || (realm != "" && realm == Realm(c))
}

func extractRealm(issuer string) string {
	// issuer format: http://keycloak:8080/realms/{realm}
	parts := strings.Split(issuer, "/realms/")
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSuffix(parts[1], "/")
}
