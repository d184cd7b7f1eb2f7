package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/lamacoid/Vurmz.com-sub003/internal/auth"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

type PortalHandler struct {
	Store        *store.Store
	Auth         *auth.Service
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
	Cookies      CookieWriter
}

// RequireCustomer gates portal routes.
func (h *PortalHandler) RequireCustomer(next http.HandlerFunc) http.HandlerFunc {
	return RequirePrincipal(h.Auth, models.PrincipalCustomer, "/portal/login", next)
}

func (h *PortalHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("portal_login.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "public-session")
	data := map[string]interface{}{
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// SendLoginLink emails a magic link when the address belongs to a
// customer. The response is the same either way so the form cannot be
// used to probe which emails exist.
func (h *PortalHandler) SendLoginLink(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "public-session")
	defer session.Save(r, w)

	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		session.AddFlash(FlashMessage{Type: "error", Message: "Email address is required."})
		http.Redirect(w, r, "/portal/login", http.StatusSeeOther)
		return
	}

	if err := h.Auth.RequestLink(r.Context(), email, models.PrincipalCustomer); err != nil {
		// The link email could not be delivered; pretending otherwise
		// would strand the customer.
		slog.Error("Portal login link failed", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "We couldn't send your login link. Please try again."})
		http.Redirect(w, r, "/portal/login", http.StatusSeeOther)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: "If that address is on file, a login link is on its way."})
	http.Redirect(w, r, "/portal/login", http.StatusSeeOther)
}

// VerifyLogin exchanges the emailed token for a portal session.
func (h *PortalHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "public-session")
	defer session.Save(r, w)

	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")

	_, cookieValue, err := h.Auth.Verify(r.Context(), email, token, models.PrincipalCustomer)
	if err != nil {
		// Expired, spent, mismatched and unknown all read the same to
		// the caller; the real reason lands in the log.
		slog.Info("Portal verify rejected", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid or expired link. Please request a new one."})
		http.Redirect(w, r, "/portal/login", http.StatusSeeOther)
		return
	}

	h.Cookies.Set(w, cookieValue, auth.CustomerSessionTTL)
	http.Redirect(w, r, "/portal", http.StatusSeeOther)
}

// Dashboard lists the signed-in customer's quotes and orders.
func (h *PortalHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/portal/login", http.StatusSeeOther)
		return
	}

	customer, err := h.Store.GetCustomerByID(r.Context(), sess.PrincipalID)
	if err != nil {
		http.Error(w, "Error loading your account", http.StatusInternalServerError)
		return
	}
	quotes, err := h.Store.ListQuotesByCustomer(r.Context(), customer.ID)
	if err != nil {
		http.Error(w, "Error loading your quotes", http.StatusInternalServerError)
		return
	}
	orders, err := h.Store.ListOrdersByCustomer(r.Context(), customer.ID)
	if err != nil {
		http.Error(w, "Error loading your orders", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("portal.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "public-session")
	data := map[string]interface{}{
		"Customer":  customer,
		"Quotes":    quotes,
		"Orders":    orders,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.Auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.Error("Logout cleanup failed", "error", err)
		}
	}
	h.Cookies.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
