package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/lamacoid/Vurmz.com-sub003/internal/auth"
	"github.com/lamacoid/Vurmz.com-sub003/internal/blob"
	"github.com/lamacoid/Vurmz.com-sub003/internal/labelgen"
	"github.com/lamacoid/Vurmz.com-sub003/internal/lifecycle"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

type AdminHandler struct {
	Store        *store.Store
	Lifecycle    *lifecycle.Service
	Auth         *auth.Service
	Labels       *labelgen.Generator
	Blobs        blob.Store
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
	Cookies      CookieWriter
}

func (h *AdminHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("admin_login.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-flash")
	data := map[string]interface{}{
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// SendLoginLink is the primary admin login: a magic link by email.
func (h *AdminHandler) SendLoginLink(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		session.AddFlash(FlashMessage{Type: "error", Message: "Email address is required."})
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	if err := h.Auth.RequestLink(r.Context(), email, models.PrincipalAdmin); err != nil {
		slog.Error("Admin login link failed", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Couldn't send the login link. Check SMTP settings or use password login."})
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: "If that address belongs to an admin, a login link is on its way."})
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *AdminHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")

	_, cookieValue, err := h.Auth.Verify(r.Context(), email, token, models.PrincipalAdmin)
	if err != nil {
		slog.Info("Admin verify rejected", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid or expired link. Please request a new one."})
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	h.Cookies.Set(w, cookieValue, auth.AdminSessionTTL)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// PasswordLogin is the bootstrap fallback for installs without SMTP.
// Admins seeded through cmd/cli may carry a bcrypt password.
func (h *AdminHandler) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	admin, err := h.Store.GetAdminByEmail(r.Context(), email)
	if err != nil {
		slog.Error("Admin lookup failed", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	if admin == nil || admin.Password == "" {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid email or password"})
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid email or password"})
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	_, cookieValue, err := h.Auth.MintSession(r.Context(), models.PrincipalAdmin, admin.ID)
	if err != nil {
		slog.Error("Failed to mint session", "error", err)
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}

	h.Cookies.Set(w, cookieValue, auth.AdminSessionTTL)
	slog.Info("Admin password login", "admin_id", admin.ID)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.Auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.Error("Logout cleanup failed", "error", err)
		}
	}
	h.Cookies.Clear(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// RequireAdmin gates admin routes.
func (h *AdminHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequirePrincipal(h.Auth, models.PrincipalAdmin, "/admin/login", next)
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetDashboardStats(r.Context())
	if err != nil {
		http.Error(w, "Error fetching stats", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("admin.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	var adminName string
	if sess := SessionFromContext(r.Context()); sess != nil {
		if admin, err := h.Store.GetAdminByID(r.Context(), sess.PrincipalID); err == nil && admin != nil {
			adminName = admin.Name
		}
	}

	session, _ := h.SessionStore.Get(r, "admin-flash")
	data := map[string]interface{}{
		"Stats":     stats,
		"AdminName": adminName,
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}
