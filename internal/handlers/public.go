package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/lamacoid/Vurmz.com-sub003/internal/lifecycle"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

var validate = validator.New()

type PublicHandler struct {
	Store        *store.Store
	Lifecycle    *lifecycle.Service
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
}

func (h *PublicHandler) Index(w http.ResponseWriter, r *http.Request) {
	materials, err := h.Store.ListPublicMaterials(r.Context())
	if err != nil {
		http.Error(w, "Error fetching materials", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("home.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "public-session")
	data := map[string]interface{}{
		"Materials": materials,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

type quoteRequestForm struct {
	Name           string `validate:"required"`
	Email          string `validate:"required,email"`
	Phone          string
	Company        string
	ProductType    string `validate:"required"`
	Quantity       string `validate:"required"`
	Description    string
	Turnaround     string
	DeliveryMethod string
}

// SubmitQuoteRequest is the public intake funnel: create or reuse the
// customer by email, open a quote in status new.
func (h *PublicHandler) SubmitQuoteRequest(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "public-session")
	defer session.Save(r, w)

	if err := r.ParseForm(); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid form data."})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	form := quoteRequestForm{
		Name:           strings.TrimSpace(r.FormValue("name")),
		Email:          strings.TrimSpace(r.FormValue("email")),
		Phone:          r.FormValue("phone"),
		Company:        r.FormValue("company"),
		ProductType:    strings.TrimSpace(r.FormValue("product_type")),
		Quantity:       strings.TrimSpace(r.FormValue("quantity")),
		Description:    r.FormValue("description"),
		Turnaround:     r.FormValue("turnaround"),
		DeliveryMethod: r.FormValue("delivery_method"),
	}

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				session.AddFlash(FlashMessage{Type: "error", Message: fieldError(fe)})
			}
		} else {
			session.AddFlash(FlashMessage{Type: "error", Message: "Invalid form data."})
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	customer := models.Customer{
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Company: form.Company,
	}
	quote := models.Quote{
		ProductType:    form.ProductType,
		Quantity:       form.Quantity,
		Description:    form.Description,
		Turnaround:     form.Turnaround,
		DeliveryMethod: form.DeliveryMethod,
	}

	if _, err := h.Lifecycle.SubmitQuote(r.Context(), customer, quote); err != nil {
		slog.Error("Quote intake failed", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Failed to submit your request. Please try again."})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: "Thanks! We'll email you a quote shortly."})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func fieldError(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		return "Your name is required."
	case "Email":
		return "Please enter a valid email address."
	case "ProductType":
		return "Tell us what you'd like engraved."
	case "Quantity":
		return "Quantity is required."
	default:
		return "Please check the " + fe.Field() + " field."
	}
}

// ViewQuote serves the customer-facing quote page for a token link.
// Path is /quote/{token}.
func (h *PublicHandler) ViewQuote(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "public-session")
	defer session.Save(r, w)

	token := r.PathValue("token")
	if token == "" {
		http.NotFound(w, r)
		return
	}

	quote, err := h.Store.GetQuoteByToken(r.Context(), token)
	if err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Quote not found or link is invalid."})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	tmpl := h.Templates.Get("quote.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	data := map[string]interface{}{
		"Quote":     quote,
		"Decided":   quote.Status != models.QuoteQuoted,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func (h *PublicHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Lifecycle.AcceptQuote, "Quote accepted — we'll be in touch about your order!")
}

func (h *PublicHandler) DeclineQuote(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Lifecycle.DeclineQuote, "Quote declined. Thanks for letting us know.")
}

func (h *PublicHandler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*models.Quote, error), successMsg string) {
	session, _ := h.SessionStore.Get(r, "public-session")
	defer session.Save(r, w)

	token := r.PathValue("token")
	if token == "" {
		token = r.FormValue("token")
	}
	quote, err := fn(r.Context(), token)
	if err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: decisionError(err)})
		if token != "" {
			http.Redirect(w, r, "/quote/"+token, http.StatusSeeOther)
		} else {
			http.Redirect(w, r, "/", http.StatusSeeOther)
		}
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: successMsg})
	http.Redirect(w, r, "/quote/"+quote.CustomerToken, http.StatusSeeOther)
}

func decisionError(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrAlreadyAccepted):
		return "This quote has already been accepted."
	case errors.Is(err, lifecycle.ErrNotQuoted):
		return "This quote is no longer awaiting a decision."
	case errors.Is(err, lifecycle.ErrTokenExpired):
		return "This link has expired. Please contact us for a fresh quote."
	default:
		return "Quote not found or link is invalid."
	}
}
