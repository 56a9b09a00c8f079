package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"quizforge-session-service/internal/domain"
)

// Context is the authenticated caller's capability. It is passed explicitly to
// the components that need it (question source, submitter, route guard) instead
// of being read from ambient shared storage.
type Context struct {
	Token    string
	UserID   int
	Role     string
	Username string
	Email    string
}

// Authenticated reports whether a token is present.
func (c Context) Authenticated() bool {
	return c.Token != ""
}

// IsAdmin reports whether the caller holds the admin role.
func (c Context) IsAdmin() bool {
	return c.Role == "admin"
}

// Verifier validates bearer tokens issued by the auth backend. Tokens are
// HS256 JWTs carrying email, role and user id claims.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a raw token and builds the caller Context.
// An empty token maps to ErrNoToken, anything unparseable or expired to
// ErrInvalidToken.
func (v *Verifier) Verify(raw string) (Context, error) {
	if raw == "" {
		return Context{}, domain.ErrNoToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Context{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Context{}, domain.ErrInvalidToken
	}

	ctx := Context{Token: raw}
	if email, ok := claims["email"].(string); ok {
		ctx.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		ctx.Role = role
	}
	// JSON numbers decode as float64.
	if id, ok := claims["user"].(float64); ok {
		ctx.UserID = int(id)
	}
	return ctx, nil
}

// BearerToken extracts the raw token from an incoming request: the
// Authorization header when present, with a token query parameter fallback
// for browser WebSocket clients that cannot set headers.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
