package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminCookie  = "pitfalls_admin"
	AdminSubject = "admin"
	RoleAdmin    = "admin"
)

var ErrUnauthorized = errors.New("unauthorized")

// Claims holds the admin token claims.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// AdminAuthConfig configures the admin password gate.
type AdminAuthConfig struct {
	Password      string        // compared verbatim
	PasswordHash  string        // bcrypt; used when Password is empty
	JWTSigningKey string        // random per process when empty
	Issuer        string
	TokenTTL      time.Duration
}

// Authenticator checks the admin password and issues short-lived admin tokens.
type Authenticator struct {
	password []byte
	hash     []byte
	key      []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewAuthenticator(cfg AdminAuthConfig, logger *zap.Logger) (*Authenticator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(cfg.JWTSigningKey)
	if len(key) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		key = []byte(hex.EncodeToString(buf))
		logger.Warn("no admin JWT signing key configured, admin sessions will not survive a restart")
	}
	if cfg.Password == "" && cfg.PasswordHash == "" {
		logger.Warn("no admin password configured, admin export is disabled")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Authenticator{
		password: []byte(cfg.Password),
		hash:     []byte(cfg.PasswordHash),
		key:      key,
		issuer:   cfg.Issuer,
		ttl:      ttl,
		now:      time.Now,
		log:      logger,
	}, nil
}

// TTL is the lifetime of issued tokens.
func (a *Authenticator) TTL() time.Duration { return a.ttl }

// CheckPassword reports whether password matches the configured secret.
func (a *Authenticator) CheckPassword(password string) bool {
	switch {
	case len(a.password) > 0:
		return subtle.ConstantTimeCompare([]byte(password), a.password) == 1
	case len(a.hash) > 0:
		return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
	default:
		return false
	}
}

// Login exchanges the admin password for a signed token.
func (a *Authenticator) Login(password string) (string, error) {
	if !a.CheckPassword(password) {
		return "", ErrUnauthorized
	}
	now := a.now()
	c := Claims{
		Roles: []string{RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminSubject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.key)
}

// Parse validates a token and returns its claims.
func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.key, nil
	}, jwt.WithIssuer(a.issuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Authenticated reports whether the request carries a valid admin token.
func (a *Authenticator) Authenticated(c *gin.Context) bool {
	tok := tokenFromRequest(c)
	if tok == "" {
		return false
	}
	_, err := a.Parse(tok)
	return err == nil
}

func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(AdminCookie); err == nil {
		return cookie
	}
	return ""
}

// AdminAuth validates the admin token from the Authorization header or the
// admin cookie and sets the subject and roles on the context. Rejected
// requests get a JSON 401.
func (a *Authenticator) AdminAuth() gin.HandlerFunc {
	return a.adminAuth(func(c *gin.Context, msg string) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
	})
}

// AdminPageAuth is AdminAuth for HTML pages: rejected requests are sent to
// loginPath instead.
func (a *Authenticator) AdminPageAuth(loginPath string) gin.HandlerFunc {
	return a.adminAuth(func(c *gin.Context, _ string) {
		c.Redirect(http.StatusSeeOther, loginPath)
		c.Abort()
	})
}

func (a *Authenticator) adminAuth(reject func(c *gin.Context, msg string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			reject(c, "Admin authentication required")
			return
		}
		cl, err := a.Parse(tokenString)
		if err != nil {
			a.log.Info("admin token rejected", zap.Error(err))
			if errors.Is(err, jwt.ErrTokenExpired) {
				reject(c, "Token expired")
				return
			}
			reject(c, "Invalid token")
			return
		}
		c.Set("admin_subject", cl.Subject)
		c.Set("admin_roles", cl.Roles)
		c.Next()
	}
}

// RoleCheckMiddleware checks if the admin has one of the required roles.
func RoleCheckMiddleware(requiredRoles []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles, exists := c.Get("admin_roles")
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Roles not found in context"})
			return
		}
		roles, ok := userRoles.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Invalid roles format"})
			return
		}
		for _, required := range requiredRoles {
			for _, role := range roles {
				if role == required {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}
