package middleware

import (
	"backend/internal/authz"
	"backend/internal/model"
	"backend/pkg/response"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only, never use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	// access_token: 24h, refresh_token: 7 days
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// extractToken reads the access token from the cookie or Authorization header
func extractToken(c *gin.Context) (string, bool) {
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr == nil && tokenString != "" {
		return tokenString, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// parseClaims validates the JWT and returns its claims
func parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// RequireAuth validates the JWT and injects the caller's user id into the
// context. Missing or invalid credentials yield 401; permission checks are
// left to RequirePermission.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		claims, err := parseClaims(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		c.Set("userID", sub)
		c.Next()
	}
}

// --- Permission-based middleware ---

// permCacheEntry stores a cached permission set for a user with TTL
type permCacheEntry struct {
	set       authz.PermissionSet
	expiresAt time.Time
}

var (
	permCache    sync.Map // userID -> permCacheEntry
	permCacheTTL = 5 * time.Minute
)

// permDB holds the database reference for permission queries, set via InitPermissionMiddleware
var permDB *gorm.DB

// InitPermissionMiddleware sets the DB reference for RequirePermission middleware
func InitPermissionMiddleware(db *gorm.DB) {
	permDB = db
}

// resolveCallerSet authenticates the request and loads the caller's
// aggregated permission set. On failure the request is already aborted
// (401 for credential problems, 500 when the set cannot be built).
func resolveCallerSet(c *gin.Context) (authz.PermissionSet, bool) {
	tokenString, ok := extractToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return nil, false
	}

	claims, err := parseClaims(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return nil, false
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return nil, false
	}
	c.Set("userID", sub)

	set, err := getPermissionSet(sub)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
		return nil, false
	}
	return set, true
}

// RequirePermission validates the JWT and checks the caller's aggregated
// permission set for (module, action) at minLevel. Unauthenticated requests
// get 401, authenticated-but-denied requests get 403.
func RequirePermission(module, action string, minLevel int) gin.HandlerFunc {
	return func(c *gin.Context) {
		set, ok := resolveCallerSet(c)
		if !ok {
			return
		}

		if !set.HasPermission(module, action, minLevel) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden,
				"Access denied: missing permission '"+module+"."+action+"'"))
			return
		}

		c.Next()
	}
}

// PermissionRef names one (module, action) pair for RequireAnyPermission
type PermissionRef struct {
	Module string
	Action string
}

// RequireAnyPermission authorizes the request when the caller holds any of
// the given pairs at minLevel. Used where two grants legitimately open the
// same route, e.g. dashboard.read and statistics.read on the overview.
func RequireAnyPermission(minLevel int, refs ...PermissionRef) gin.HandlerFunc {
	return func(c *gin.Context) {
		set, ok := resolveCallerSet(c)
		if !ok {
			return
		}

		for _, ref := range refs {
			if set.HasPermission(ref.Module, ref.Action, minLevel) {
				c.Next()
				return
			}
		}

		keys := make([]string, 0, len(refs))
		for _, ref := range refs {
			keys = append(keys, ref.Module+"."+ref.Action)
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden,
			"Access denied: missing permission '"+strings.Join(keys, "' or '")+"'"))
	}
}

// getPermissionSet returns the cached or DB-built permission set for a user
func getPermissionSet(userID string) (authz.PermissionSet, error) {
	if entry, ok := permCache.Load(userID); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.set, nil
		}
	}

	if permDB == nil {
		return nil, fmt.Errorf("permission middleware not initialized")
	}

	var user model.User
	err := permDB.
		Preload("Roles.Grants.Permission").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		// Deactivated users keep their rows but lose every grant
		return authz.PermissionSet{}, nil
	}

	set := authz.BuildSet(user.Roles)
	permCache.Store(userID, permCacheEntry{
		set:       set,
		expiresAt: time.Now().Add(permCacheTTL),
	})

	return set, nil
}

// GetPermissionSetForUser exposes permission aggregation for handlers (e.g., /me endpoint)
func GetPermissionSetForUser(userID string) (authz.PermissionSet, error) {
	return getPermissionSet(userID)
}

// ClearPermissionCache removes the cached set for a specific user (or all users if empty).
// Role and grant mutations must call this so changes take effect before the TTL.
func ClearPermissionCache(userID string) {
	if userID == "" {
		permCache.Range(func(key, _ interface{}) bool {
			permCache.Delete(key)
			return true
		})
	} else {
		permCache.Delete(userID)
	}
}
