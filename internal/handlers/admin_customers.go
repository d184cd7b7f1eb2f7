package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

func (h *AdminHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page, offset := pageParam(r)
	customers, err := h.Store.ListCustomers(r.Context(), adminPageSize, offset)
	if err != nil {
		slog.Error("Failed to list customers", "error", err)
		http.Error(w, "Error fetching customers", http.StatusInternalServerError)
		return
	}
	total, err := h.Store.CountCustomers(r.Context())
	if err != nil {
		http.Error(w, "Error fetching customers", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("admin_customers.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-flash")
	data := map[string]interface{}{
		"Customers": customers,
		"Page":      page,
		"HasPrev":   page > 1,
		"HasNext":   offset+len(customers) < total,
		"PrevPage":  page - 1,
		"NextPage":  page + 1,
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func (h *AdminHandler) CustomerDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	customer, err := h.Store.GetCustomerByID(r.Context(), id)
	if err != nil || customer == nil {
		http.NotFound(w, r)
		return
	}

	quotes, err := h.Store.ListQuotesByCustomer(r.Context(), id)
	if err != nil {
		slog.Error("Failed to list customer quotes", "customer_id", id, "error", err)
	}
	orders, err := h.Store.ListOrdersByCustomer(r.Context(), id)
	if err != nil {
		slog.Error("Failed to list customer orders", "customer_id", id, "error", err)
	}

	tmpl := h.Templates.Get("admin_customer_detail.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-flash")
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

func (h *AdminHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/admin/customers/" + strconv.Itoa(id)

	customer, err := h.Store.GetCustomerByID(r.Context(), id)
	if err != nil || customer == nil {
		http.NotFound(w, r)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			session.AddFlash(FlashMessage{Type: "error", Message: "That email address doesn't look valid."})
			http.Redirect(w, r, back, http.StatusSeeOther)
			return
		}
	}

	updated := models.Customer{
		ID:       id,
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    email,
		Phone:    strings.TrimSpace(r.FormValue("phone")),
		Company:  strings.TrimSpace(r.FormValue("company")),
		Address:  strings.TrimSpace(r.FormValue("address")),
		City:     strings.TrimSpace(r.FormValue("city")),
		Province: strings.TrimSpace(r.FormValue("province")),
		Postal:   strings.TrimSpace(r.FormValue("postal")),
		Notes:    r.FormValue("notes"),
	}
	if updated.Name == "" {
		session.AddFlash(FlashMessage{Type: "error", Message: "Name is required."})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if err := h.Store.UpdateCustomer(r.Context(), &updated); err != nil {
		slog.Error("Failed to update customer", "customer_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: "Customer updated."})
	http.Redirect(w, r, back, http.StatusSeeOther)
}
