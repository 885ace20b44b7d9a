// Package auth guards the service behind a single shared password. A
// successful login sets a signed session cookie; API calls may also present
// the token as a bearer credential.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/metrics"
)

// CookieName carries the session token.
const CookieName = "auth_token"

// LoginPath is where unauthenticated page requests are redirected.
const LoginPath = "/login"

const issuer = "recruitstat"

// exemptPrefixes are reachable without a session.
var exemptPrefixes = []string{
	"/static/",
	"/favicon.ico",
	"/healthz",
	"/readyz",
	LoginPath,
	"/auth/login",
	"/auth/logout",
}

// Guard checks the shared password and session tokens.
type Guard struct {
	tokens TokenService
	hash   []byte
	log    logger.Logger
}

// NewGuard builds a guard for password. A value that already looks like a
// bcrypt hash is used as is. An empty secret is replaced by a random one.
func NewGuard(password string, secret []byte, ttl time.Duration, log logger.Logger) (*Guard, error) {
	if password == "" {
		return nil, ErrNoPassword
	}
	if log == nil {
		log = logger.Nop()
	}
	hash := []byte(password)
	if !isBcryptHash(password) {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost); err != nil {
			return nil, err
		}
	}
	if len(secret) == 0 {
		var err error
		if secret, err = NewSecret(); err != nil {
			return nil, err
		}
		log.Warn(context.Background(), "auth: no jwt secret configured, sessions end on restart")
	}
	return &Guard{
		tokens: TokenService{Secret: secret, Issuer: issuer, Duration: ttl},
		hash:   hash,
		log:    log,
	}, nil
}

func isBcryptHash(s string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Register attaches the login and logout endpoints to mux.
func (g *Guard) Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/auth/login", g.HandleLogin)
	mux.HandleFunc("/auth/logout", g.HandleLogout)
}

// Authenticated reports whether r carries a valid session token.
func (g *Guard) Authenticated(r *http.Request) bool {
	tok := bearer(r)
	if tok == "" {
		c, err := r.Cookie(CookieName)
		if err != nil {
			return false
		}
		tok = c.Value
	}
	_, err := g.tokens.Parse(tok)
	return err == nil
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Middleware rejects requests without a session. API paths get a 401 JSON
// body; everything else is redirected to the login page.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exempt(r.URL.Path) || g.Authenticated(r) {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSON(w, http.StatusUnauthorized, loginResponse{Detail: "未登录或登录已过期"})
			return
		}
		http.Redirect(w, r, LoginPath, http.StatusFound)
	})
}

func exempt(path string) bool {
	for _, p := range exemptPrefixes {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Token   string `json:"token,omitempty"`
}

// HandleLogin handles POST /auth/login with a form field "password".
func (g *Guard) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	password := r.PostFormValue("password")
	if bcrypt.CompareHashAndPassword(g.hash, []byte(password)) != nil {
		metrics.RecordAuthAttempt("failure")
		g.log.Warn(r.Context(), "auth: login rejected", logger.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, loginResponse{Detail: "密码错误"})
		return
	}

	token, exp, err := g.tokens.Sign()
	if err != nil {
		metrics.RecordAuthAttempt("error")
		g.log.Error(r.Context(), "auth: sign token", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, loginResponse{Detail: "服务器错误"})
		return
	}
	metrics.RecordAuthAttempt("success")
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(g.tokens.Duration.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: "登录成功", Token: token})
}

// HandleLogout handles POST /auth/logout by expiring the session cookie.
func (g *Guard) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: "已成功退出登录"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
