package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/infrastructure/auth"
	"github.com/vendorbill/backend/internal/infrastructure/logger"
	"github.com/vendorbill/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys set by VendorAuth
const (
	JWTClaimsKey  = "jwt_claims"
	VendorUUIDKey = "vendor_uuid"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// VendorAuthConfig holds configuration for the vendor scoping middleware
type VendorAuthConfig struct {
	// JWTService validates bearer tokens. When nil the X-Vendor-ID header
	// is trusted instead, which is only meant for development.
	JWTService *auth.JWTService
	// SkipPaths are full paths that don't require a vendor
	SkipPaths []string
	Logger    *zap.Logger
}

// VendorAuth resolves the calling vendor and stores it in the gin context
// and the request context logger. Requests without a vendor get 401.
func VendorAuth(cfg VendorAuthConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		var (
			vendorID uuid.UUID
			err      error
		)
		if cfg.JWTService != nil {
			vendorID, err = vendorFromToken(c, cfg.JWTService)
		} else {
			vendorID, err = vendorFromHeader(c)
		}
		if err != nil {
			log.Warn("Vendor authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			abortUnauthorized(c, err)
			return
		}

		SetVendorID(c, vendorID)
		c.Next()
	}
}

func vendorFromToken(c *gin.Context, jwtService *auth.JWTService) (uuid.UUID, error) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return uuid.Nil, errMissingCredentials
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if tokenString == "" {
		return uuid.Nil, errMissingCredentials
	}

	claims, err := jwtService.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	c.Set(JWTClaimsKey, claims)
	return claims.VendorUUID()
}

func vendorFromHeader(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(VendorIDHeader)
	if raw == "" {
		return uuid.Nil, errMissingCredentials
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, auth.ErrInvalidClaims
	}
	return id, nil
}

var errMissingCredentials = errors.New("missing vendor credentials")

func abortUnauthorized(c *gin.Context, err error) {
	code := dto.ErrCodeUnauthorized
	message := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		message = "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		code = dto.ErrCodeTokenInvalid
		message = "Invalid token"
	case errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrMissingVendorID):
		code = dto.ErrCodeTokenInvalid
		message = "Invalid vendor identity"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// SetVendorID stores the vendor in the gin context and tags the request logger
func SetVendorID(c *gin.Context, vendorID uuid.UUID) {
	c.Set(VendorUUIDKey, vendorID)
	c.Set(logger.GinVendorIDKey, vendorID.String())

	ctx := c.Request.Context()
	ctx, _ = logger.WithVendorID(ctx, logger.FromContext(ctx), vendorID.String())
	c.Request = c.Request.WithContext(ctx)
}

// GetVendorID returns the vendor resolved by VendorAuth
func GetVendorID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(VendorUUIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}
