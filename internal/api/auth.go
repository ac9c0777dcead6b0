package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Claims identify the caller; ID is the owner id every ledger call is
// scoped by.
type Claims struct {
	ID string `json:"id"`
	jwt.StandardClaims
}

type ownerKey struct{}

// OwnerFromContext returns the owner id stored by Authenticate.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

func withOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// IssueToken signs an HS256 token for ownerID.
func IssueToken(secret []byte, ownerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		ID: ownerID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	})
	return t.SignedString(secret)
}

// ParseToken validates token against secret and returns the owner id.
func ParseToken(secret []byte, token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.ID == "" {
		return "", errors.New("token carries no owner")
	}
	return claims.ID, nil
}

// Authenticate requires a "Bearer <token>" header and stores the caller's
// owner id in the request context.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "no token provided"})
				return
			}

			owner, err := ParseToken(secret, token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "invalid or expired token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
		})
	}
}
