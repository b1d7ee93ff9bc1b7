package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const issuer = "live-quiz-service"

var (
	// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTokenFormat is returned when the Authorization header is not "Bearer <token>".
	ErrTokenFormat = errors.New("authorization header format must be Bearer {token}")
)

// Claims carries the caller identity in the subject.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier issues and checks HS256 tokens. With an empty secret it runs in
// development mode: the caller identity is taken from the X-User-ID header
// (or userId query parameter) without any check.
type Verifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewVerifier(secret string, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Verifier{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether tokens are required.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Issue signs a token for userID.
func (v *Verifier) Issue(userID, name string) (string, error) {
	if !v.Enabled() {
		return "", fmt.Errorf("jwt secret not configured")
	}
	now := v.now()
	claims := &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify returns the subject of a valid token.
func (v *Verifier) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" || !claims.VerifyIssuer(issuer, true) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Identify resolves the caller of r, or "" for an anonymous caller. Browsers
// cannot set headers on websocket upgrades, so a token query parameter is
// accepted as well.
func (v *Verifier) Identify(r *http.Request) (string, error) {
	if !v.Enabled() {
		if id := r.Header.Get("X-User-ID"); id != "" {
			return id, nil
		}
		return r.URL.Query().Get("userId"), nil
	}

	token := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", ErrTokenFormat
		}
		token = parts[1]
	}
	if token == "" {
		return "", nil
	}
	return v.Verify(token)
}
