package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"github.com/lamacoid/Vurmz.com-sub003/internal/lifecycle"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

const adminPageSize = 25

func pageParam(r *http.Request) (page, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * adminPageSize
}

func (h *AdminHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.NormalizeQuoteStatus(status).Valid() {
		status = ""
	} else if status != "" {
		status = string(models.NormalizeQuoteStatus(status))
	}

	page, offset := pageParam(r)
	quotes, err := h.Store.ListQuotes(r.Context(), status, adminPageSize, offset)
	if err != nil {
		slog.Error("Failed to list quotes", "error", err)
		http.Error(w, "Error fetching quotes", http.StatusInternalServerError)
		return
	}
	total, err := h.Store.CountQuotes(r.Context(), status)
	if err != nil {
		http.Error(w, "Error fetching quotes", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("admin_quotes.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-flash")
	data := map[string]interface{}{
		"Quotes":   quotes,
		"Status":   status,
		"Page":     page,
		"HasPrev":  page > 1,
		"HasNext":  offset+len(quotes) < total,
		"PrevPage": page - 1,
		"NextPage": page + 1,
		"Flashes":  GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func (h *AdminHandler) QuoteDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	quote, err := h.Store.GetQuoteByID(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// The promoted order, if any, gets linked on the detail page.
	order, err := h.Store.GetOrderByQuoteID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to look up order for quote", "quote_id", id, "error", err)
	}

	tmpl := h.Templates.Get("admin_quote_detail.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-flash")
	data := map[string]interface{}{
		"Quote":     quote,
		"Order":     order,
		"Statuses":  models.QuoteStatuses,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// SendQuote prices a quote and emails the customer their accept/decline
// link. The quote is saved as quoted even when the email bounces; the
// flash tells the admin which of the two happened.
func (h *AdminHandler) SendQuote(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/admin/quotes/" + strconv.Itoa(id)

	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
	if err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Price must be a number."})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	quote, notified, err := h.Lifecycle.SendQuote(r.Context(), id, price, r.FormValue("admin_notes"))
	switch {
	case errors.Is(err, lifecycle.ErrInvalidPrice):
		session.AddFlash(FlashMessage{Type: "error", Message: "Price must be greater than zero."})
	case errors.Is(err, lifecycle.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		slog.Error("Failed to send quote", "quote_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
	case notified:
		session.AddFlash(FlashMessage{Type: "success", Message: "Quote " + quote.OrderNumber + " sent to " + quote.CustomerEmail + "."})
	default:
		session.AddFlash(FlashMessage{Type: "warning", Message: "Quote saved, but the email to " + quote.CustomerEmail + " failed. Resend it once email is working."})
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// UpdateQuoteStatus is the manual override for when the normal flow
// didn't happen, e.g. a customer accepted over the phone. It bypasses
// the token and email machinery entirely.
func (h *AdminHandler) UpdateQuoteStatus(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/admin/quotes/" + strconv.Itoa(id)

	status := models.NormalizeQuoteStatus(r.FormValue("status"))
	if !status.Valid() {
		session.AddFlash(FlashMessage{Type: "error", Message: "Unknown quote status."})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if err := h.Store.UpdateQuoteStatus(r.Context(), id, status); err != nil {
		slog.Error("Failed to update quote status", "quote_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
	} else {
		session.AddFlash(FlashMessage{Type: "success", Message: "Status set to " + string(status) + "."})
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// PromoteQuote turns an accepted quote into an order.
func (h *AdminHandler) PromoteQuote(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/admin/quotes/" + strconv.Itoa(id)

	in := lifecycle.PromoteInput{
		Material:        r.FormValue("material"),
		DeliveryMethod:  r.FormValue("delivery_method"),
		ProductionNotes: r.FormValue("production_notes"),
	}
	if qty, err := strconv.Atoi(r.FormValue("quantity")); err == nil {
		in.Quantity = qty
	}
	if p, err := strconv.ParseFloat(r.FormValue("price"), 64); err == nil {
		in.Price = p
	}
	if due := r.FormValue("due_date"); due != "" {
		if t, err := time.Parse("2006-01-02", due); err == nil {
			in.DueDate = &t
		}
	}

	order, err := h.Lifecycle.PromoteQuote(r.Context(), id, in)
	switch {
	case errors.Is(err, lifecycle.ErrAlreadyPromoted):
		session.AddFlash(FlashMessage{Type: "error", Message: "This quote already has an order."})
		http.Redirect(w, r, back, http.StatusSeeOther)
	case errors.Is(err, lifecycle.ErrNotFound):
		http.NotFound(w, r)
	case err != nil:
		slog.Error("Failed to promote quote", "quote_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
		http.Redirect(w, r, back, http.StatusSeeOther)
	default:
		session.AddFlash(FlashMessage{Type: "success", Message: "Order " + order.OrderNumber + " created."})
		http.Redirect(w, r, "/admin/orders/"+strconv.Itoa(order.ID), http.StatusSeeOther)
	}
}
