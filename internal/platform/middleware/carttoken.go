package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trolley/pkg/domain"
)

// The cart session token pins a browser session to its cart key so cart IDs
// are not guessable. It carries only the cart ID; it is not authentication.

const (
	cartTokenHeader = "X-Cart-Token"
	cartTokenCookie = "trolley_cart"
	cartTokenTTL    = 30 * 24 * time.Hour
)

type contextKeyCartID struct{}

// ContextKeyCartID is exported for use in handlers.
var ContextKeyCartID = contextKeyCartID{}

// GetCartID retrieves the cart ID placed in the context by CartToken.
func GetCartID(ctx context.Context) domain.CartID {
	id, ok := ctx.Value(ContextKeyCartID).(domain.CartID)
	if !ok {
		return domain.CartID{}
	}
	return id
}

// MintCartToken signs a token carrying the given cart ID.
func MintCartToken(key []byte, id domain.CartID, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"cid": id.String(),
		"iat": now.Unix(),
		"exp": now.Add(cartTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseCartToken verifies a token and extracts its cart ID.
func ParseCartToken(key []byte, tokenString string) (domain.CartID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return domain.CartID{}, fmt.Errorf("parse cart token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.CartID{}, fmt.Errorf("invalid cart token")
	}
	cid, _ := claims["cid"].(string)
	return domain.ParseCartID(cid)
}

// CartToken resolves the cart ID for the request: a valid token (header or
// cookie) keeps its cart, anything else gets a fresh cart and a new token in
// the response.
func CartToken(key []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cartID, ok := cartIDFromRequest(key, r)
			if !ok {
				cartID = domain.NewCartID()
				token, err := MintCartToken(key, cartID, time.Now())
				if err != nil {
					logger.ErrorContext(r.Context(), "mint cart token failed",
						"request_id", GetRequestID(r.Context()),
						"error", err.Error(),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				w.Header().Set(cartTokenHeader, token)
				http.SetCookie(w, &http.Cookie{
					Name:     cartTokenCookie,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cartTokenTTL.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ContextKeyCartID, cartID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func cartIDFromRequest(key []byte, r *http.Request) (domain.CartID, bool) {
	tokenString := r.Header.Get(cartTokenHeader)
	if tokenString == "" {
		if c, err := r.Cookie(cartTokenCookie); err == nil {
			tokenString = c.Value
		}
	}
	if tokenString == "" {
		return domain.CartID{}, false
	}
	id, err := ParseCartToken(key, tokenString)
	if err != nil {
		// Expired or tampered tokens fall through to a fresh cart.
		return domain.CartID{}, false
	}
	return id, true
}
