package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const identityKey = "identity"

type Claims struct {
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	OrganisationID string `json:"organisation_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 bearer token for the identity.
func IssueToken(secret string, identity models.Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: identity.UserID.String(),
		Role:   string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	if identity.OrganisationID != nil {
		claims.OrganisationID = identity.OrganisationID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, tokenString string) (models.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Identity{}, err
	}
	if !token.Valid {
		return models.Identity{}, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return models.Identity{}, errors.New("invalid user id claim")
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return models.Identity{}, errors.New("invalid role claim")
	}
	identity := models.Identity{UserID: userID, Role: role}
	if claims.OrganisationID != "" {
		orgID, err := uuid.Parse(claims.OrganisationID)
		if err != nil {
			return models.Identity{}, errors.New("invalid organisation claim")
		}
		identity.OrganisationID = &orgID
	}
	return identity, nil
}

func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			helpers.AbortWithError(c, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		identity, err := parseToken(secret, tokenString)
		if err != nil {
			helpers.AbortWithError(c, http.StatusUnauthorized, "Invalid token.")
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireCapability rejects callers whose role lacks the capability.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok || !identity.Role.Can(capability) {
			helpers.AbortWithError(c, http.StatusForbidden, "Forbidden.")
			return
		}
		c.Next()
	}
}

func GetIdentity(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}
