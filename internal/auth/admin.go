package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized covers a wrong password, a missing bearer header and
// an invalid or expired token alike.
var ErrUnauthorized = errors.New("unauthorized")

// AdminService issues and verifies the bearer credential that gates
// privileged actions (solution commits, participant listing, exports).
// The password is checked against a bcrypt hash when one is
// configured, with a plaintext fallback for dev setups.
type AdminService struct {
	hmac     []byte
	passHash string
	password string
	ttl      time.Duration
}

func NewAdminService(secret, passHash, password string, ttl time.Duration) *AdminService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminService{hmac: []byte(secret), passHash: passHash, password: password, ttl: ttl}
}

// TTL reports the configured token lifetime.
func (a *AdminService) TTL() time.Duration { return a.ttl }

// Login exchanges the admin password for a signed token.
func (a *AdminService) Login(password string) (string, error) {
	if !a.check(password) {
		return "", ErrUnauthorized
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "mailstudy",
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

// Verify checks a previously issued token.
func (a *AdminService) Verify(tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ErrUnauthorized
	}
	return nil
}

func (a *AdminService) check(password string) bool {
	if a.passHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.passHash), []byte(password)) == nil
	}
	return a.password != "" && password == a.password
}

// POST /api/admin/login  { "password": "..." }
func LoginHandler(a *AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		tok, err := a.Login(req.Password)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":       tok,
			"ttl_seconds": int(a.ttl.Seconds()),
		})
	}
}

// RequireAdmin guards privileged routes with the bearer credential.
func RequireAdmin(a *AdminService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			if err := a.Verify(strings.TrimPrefix(h, "Bearer ")); err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
