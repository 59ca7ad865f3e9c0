/*
Copyright 2025 Mosolo Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mosolohq/mosolo/config"
)

const (
	// CallerKey is the gin context key holding the authenticated account id.
	CallerKey = "callerID"

	// AccountHeader carries the caller identity when secure mode is off
	// (local development only), or alongside the master key.
	AccountHeader = "X-Mosolo-Account"

	// MasterKeyHeader carries the operator master key. A request holding the
	// configured secret key acts on behalf of the account named in
	// AccountHeader, bypassing the JWT requirement.
	MasterKeyHeader = "X-Mosolo-Key"
)

// CallerID returns the authenticated account id set by AuthMiddleware.
func CallerID(c *gin.Context) string {
	return c.GetString(CallerKey)
}

// Claims is the JWT payload issued by the identity service. Subject carries
// the wallet account id.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs a token for an account id. Used by tests and the local
// development tooling; production tokens come from the identity service.
func IssueToken(secret, accountID string, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func parseToken(secret, tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// AuthMiddleware authenticates every request and stores the caller's account
// id on the context. With secure mode on, a bearer JWT or the operator
// master key is required; with it off, the account header stands in so local
// development does not need an identity service.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		conf, err := config.Fetch()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server configuration unavailable"})
			return
		}

		if !conf.Server.Secure {
			if account := c.GetHeader(AccountHeader); account != "" {
				c.Set(CallerKey, account)
			}
			c.Next()
			return
		}

		if clientKey := c.GetHeader(MasterKeyHeader); clientKey != "" {
			if conf.Server.SecretKey == "" || !secureCompare(conf.Server.SecretKey, clientKey) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid master key"})
				return
			}
			account := c.GetHeader(AccountHeader)
			if account == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Master key requests must name an account"})
				return
			}
			c.Set(CallerKey, account)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required. Use a Bearer token"})
			return
		}

		subject, err := parseToken(conf.Server.JWTSecret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CallerKey, subject)
		c.Next()
	}
}
