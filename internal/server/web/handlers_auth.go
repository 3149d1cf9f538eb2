package web

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/podmate/internal/common"
)

type loginPage struct {
	Error    string
	Notice   string
	UserName string
	Tab      string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", loginPage{Tab: "login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		s.render(w, r, http.StatusBadRequest, "login.html", loginPage{
			Error: "Please enter both username and password.", UserName: username, Tab: "login",
		})
		return
	}

	_, token, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		s.render(w, r, statusFor(err), "login.html", loginPage{Error: messageFor(err), UserName: username, Tab: "login"})
		return
	}

	// an earlier session on this browser ends with the new login
	if c, err := r.Cookie(common.SessionCookieName); err == nil && c.Value != "" {
		s.auth.Logout(r.Context(), c.Value)
	}

	setSessionCookie(w, r, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm")

	page := loginPage{UserName: username, Tab: "register"}

	if password != confirm {
		page.Error = "Passwords do not match."
		s.render(w, r, http.StatusBadRequest, "login.html", page)
		return
	}

	if _, err := s.registrar.Register(r.Context(), username, password); err != nil {
		page.Error = messageFor(err)
		s.render(w, r, statusFor(err), "login.html", page)
		return
	}

	page.Tab = "login"
	page.Notice = "Account created. You can now log in."
	s.render(w, r, http.StatusCreated, "login.html", page)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		s.auth.Logout(r.Context(), c.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error(r.Context(), "template error", "template", name, "error", err)
	}
}
