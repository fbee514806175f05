package webserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxVoterID = "voterID"
	ctxVoter   = "voter"
)

// JWTMiddleware accepts HS256 bearer tokens whose subject is a voter id.
func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "missing bearer token"})
			return
		}
		var claims jwt.RegisteredClaims
		tok, err := jwt.ParseWithClaims(h[7:], &claims, func(t *jwt.Token) (interface{}, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "invalid token"})
			return
		}
		id, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "invalid token subject"})
			return
		}
		c.Set(ctxVoterID, id)
		c.Next()
	}
}

// IdentityMiddleware loads the roster entry named by the token.
func IdentityMiddleware(svc *council.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Voter(c.Request.Context(), c.GetUint64(ctxVoterID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "unknown voter"})
			return
		}
		c.Set(ctxVoter, v)
		c.Next()
	}
}

// RequireCapability rejects callers lacking c before the handler runs.
func RequireCapability(capability council.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := council.Require(actor(c), capability); err != nil {
			respondErr(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func actor(c *gin.Context) types.Voter {
	v, _ := c.Get(ctxVoter)
	voter, _ := v.(types.Voter)
	return voter
}

// IssueToken signs a bearer token for voterID.
func IssueToken(secret []byte, voterID uint64, ttl time.Duration) (string, error) {
	if voterID == 0 {
		return "", fmt.Errorf("voter id is required")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatUint(voterID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(secret)
}

func voterMe(c *gin.Context) {
	c.JSON(http.StatusOK, newVoterView(actor(c)))
}
