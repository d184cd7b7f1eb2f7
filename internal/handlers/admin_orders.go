package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"

	"github.com/lamacoid/Vurmz.com-sub003/internal/labelgen"
	"github.com/lamacoid/Vurmz.com-sub003/internal/lifecycle"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, offset := pageParam(r)
	orders, err := h.Store.ListOrders(r.Context(), adminPageSize, offset)
	if err != nil {
		slog.Error("Failed to list orders", "error", err)
		http.Error(w, "Error fetching orders", http.StatusInternalServerError)
		return
	}
	total, err := h.Store.CountOrders(r.Context())
	if err != nil {
		http.Error(w, "Error fetching orders", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("admin_orders.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-flash")
	data := map[string]interface{}{
		"Orders":   orders,
		"Page":     page,
		"HasPrev":  page > 1,
		"HasNext":  offset+len(orders) < total,
		"PrevPage": page - 1,
		"NextPage": page + 1,
		"Flashes":  GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func (h *AdminHandler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	order, err := h.Store.GetOrderByID(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	activity, err := h.Store.ListOrderActivity(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load order activity", "order_id", id, "error", err)
	}
	receipt, err := h.Store.LatestReceiptByOrder(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load receipt", "order_id", id, "error", err)
	}

	tmpl := h.Templates.Get("admin_order_detail.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-flash")
	data := map[string]interface{}{
		"Order":     order,
		"Activity":  activity,
		"Receipt":   receipt,
		"Statuses":  models.OrderStatuses,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// UpdateOrderStatus applies a status transition. The "notify" checkbox
// controls whether the customer gets an email; either way the change
// itself is committed first.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/admin/orders/" + strconv.Itoa(id)

	to := models.OrderStatus(r.FormValue("status"))
	notify := r.FormValue("notify") == "on"

	change, err := h.Lifecycle.ChangeOrderStatus(r.Context(), id, to, notify)
	switch {
	case errors.Is(err, lifecycle.ErrInvalidStatus):
		session.AddFlash(FlashMessage{Type: "error", Message: "Unknown order status."})
	case errors.Is(err, lifecycle.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		slog.Error("Failed to update order status", "order_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
	case notify && !change.Notified:
		session.AddFlash(FlashMessage{Type: "warning", Message: "Status updated, but the notification email failed."})
	default:
		session.AddFlash(FlashMessage{Type: "success", Message: "Order marked " + string(change.Order.Status) + "."})
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *AdminHandler) MarkOrderPaid(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/admin/orders/" + strconv.Itoa(id)

	order, err := h.Lifecycle.MarkPaid(r.Context(), id)
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		slog.Error("Failed to mark order paid", "order_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
	default:
		session.AddFlash(FlashMessage{Type: "success", Message: "Order " + order.OrderNumber + " marked paid."})
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// ResendReceipt emails the receipt for a paid order. Unlike status
// notifications, a failed send here is reported as a failure.
func (h *AdminHandler) ResendReceipt(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/admin/orders/" + strconv.Itoa(id)

	order, err := h.Lifecycle.ResendReceipt(r.Context(), id)
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, lifecycle.ErrNoCustomerEmail):
		session.AddFlash(FlashMessage{Type: "error", Message: "This customer has no email address on file."})
	case err != nil:
		slog.Error("Failed to send receipt", "order_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Receipt email failed to send."})
	default:
		session.AddFlash(FlashMessage{Type: "success", Message: "Receipt sent to " + order.CustomerEmail + "."})
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *AdminHandler) NewOrderForm(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Store.ListCustomers(r.Context(), 500, 0)
	if err != nil {
		http.Error(w, "Error fetching customers", http.StatusInternalServerError)
		return
	}
	materials, err := h.Store.ListAllMaterials(r.Context())
	if err != nil {
		http.Error(w, "Error fetching materials", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("admin_order_new.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	tmpl.Execute(w, map[string]interface{}{
		"Customers": customers,
		"Materials": materials,
		"CsrfField": csrf.TemplateField(r),
	})
}

// CreateOrder makes a walk-in order with no originating quote.
func (h *AdminHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	customerID, err := strconv.Atoi(r.FormValue("customer_id"))
	if err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Pick a customer."})
		http.Redirect(w, r, "/admin/orders/new", http.StatusSeeOther)
		return
	}

	in := lifecycle.CreateOrderInput{
		CustomerID:         customerID,
		ProjectDescription: r.FormValue("project_description"),
		Material:           r.FormValue("material"),
		DeliveryMethod:     r.FormValue("delivery_method"),
		ProductionNotes:    r.FormValue("production_notes"),
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

	order, err := h.Lifecycle.CreateOrder(r.Context(), in)
	switch {
	case errors.Is(err, lifecycle.ErrInvalidPrice):
		session.AddFlash(FlashMessage{Type: "error", Message: "Price must be greater than zero."})
		http.Redirect(w, r, "/admin/orders/new", http.StatusSeeOther)
	case err != nil:
		slog.Error("Failed to create order", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
		http.Redirect(w, r, "/admin/orders/new", http.StatusSeeOther)
	default:
		session.AddFlash(FlashMessage{Type: "success", Message: "Order " + order.OrderNumber + " created."})
		http.Redirect(w, r, "/admin/orders/"+strconv.Itoa(order.ID), http.StatusSeeOther)
	}
}

// UpdateOrderDetails edits the production fields without touching the
// lifecycle or payment axes.
func (h *AdminHandler) UpdateOrderDetails(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/admin/orders/" + strconv.Itoa(id)

	order, err := h.Store.GetOrderByID(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	order.ProjectDescription = r.FormValue("project_description")
	order.Material = r.FormValue("material")
	order.DeliveryMethod = r.FormValue("delivery_method")
	order.DeliveryNotes = r.FormValue("delivery_notes")
	order.ProductionNotes = r.FormValue("production_notes")
	if qty, err := strconv.Atoi(r.FormValue("quantity")); err == nil && qty > 0 {
		order.Quantity = qty
	}
	if p, err := strconv.ParseFloat(r.FormValue("price"), 64); err == nil && p > 0 {
		order.Price = p
	}
	order.DueDate = nil
	if due := r.FormValue("due_date"); due != "" {
		if t, err := time.Parse("2006-01-02", due); err == nil {
			order.DueDate = &t
		}
	}

	if err := h.Store.UpdateOrderDetails(r.Context(), order); err != nil {
		slog.Error("Failed to update order details", "order_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: "Order details saved."})
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// OrderLabel serves the engraver job file for an order.
func (h *AdminHandler) OrderLabel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	order, err := h.Store.GetOrderByID(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	job := labelgen.Job{
		OrderNumber: order.OrderNumber,
		Material:    order.Material,
		Lines: []labelgen.Line{
			{Text: order.OrderNumber, Height: 6},
			{Text: order.CustomerName, Height: 4},
		},
	}
	data, err := h.Labels.Render(job)
	if err != nil {
		slog.Error("Failed to render label", "order_id", id, "error", err)
		http.Error(w, "Error generating label", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+order.OrderNumber+`.job"`)
	w.Write(data)
}
