package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/server/gate"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

const adminHome = "/admin/dashboard"

type ctxKey int

const sessionKey ctxKey = iota

func sessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireAdmin lets a request through once the gate for its session cookie
// says Authorized. Unauthorized visitors go to the login page. If the gate
// is still pending when the wait budget runs out a loading page is shown
// that retries shortly.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g := gate.Open(r.Context(), s.auth, sessionToken(r))
		defer g.Close()

		ctx, cancel := context.WithTimeout(r.Context(), s.gateWait)
		defer cancel()
		decision, _ := g.Wait(ctx)

		switch decision {
		case gate.Authorized:
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, g.Session())))
		case gate.Unauthorized:
			if err := g.Err(); err != nil {
				s.logger.Error(r.Context(), "session check failed", "error", err.Error())
			}
			http.Redirect(w, r, loginURL(r), http.StatusSeeOther)
		default:
			w.Header().Set("Retry-After", "1")
			s.render(w, r, http.StatusOK, "loading.html", page{Title: "Memuat"})
		}
	})
}

func loginURL(r *http.Request) string {
	next := r.URL.Path
	if r.Method != http.MethodGet {
		next = adminHome
	} else if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	return common.LoginPath + "?next=" + url.QueryEscape(next)
}

// safeNext keeps redirects after login on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return adminHome
	}
	return next
}

type loginView struct {
	Next     string
	Username string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if sess, _ := s.services.Sessions.Current(r.Context(), sessionToken(r)); sess != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", page{Title: "Masuk", Data: loginView{Next: next}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	view := loginView{Next: safeNext(r.FormValue("next")), Username: r.FormValue("username")}

	token, session, err := s.services.Sessions.SignIn(r.Context(), view.Username, r.FormValue("password"))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrorValidation) {
			s.render(w, r, http.StatusUnauthorized, "login.html", page{
				Title: "Masuk",
				Error: "Nama pengguna atau kata sandi salah.",
				Data:  view,
			})
			return
		}
		s.internalError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     common.HomePath,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, view.Next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Sessions.SignOut(r.Context(), sessionToken(r)); err != nil {
		s.internalError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     common.HomePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, common.HomePath, http.StatusSeeOther)
}
