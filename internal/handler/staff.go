package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tabletap/internal/api"
	"tabletap/internal/auth"
	"tabletap/internal/model"
	"tabletap/internal/store"
)

// StaffHandler serves the back-office surface: the live dashboard, order
// management, and billing. Every backend call carries the staff token; a 401
// means the token died server-side, so the stored session is dropped and the
// user is sent back to login.
type StaffHandler struct {
	api      *api.Client
	sessions *store.SessionStore
	tables   *store.TableCache
	orders   *store.OrderCache
	renderer *Renderer
	logger   *slog.Logger
}

func NewStaffHandler(apiClient *api.Client, sessions *store.SessionStore, tables *store.TableCache, orders *store.OrderCache, renderer *Renderer, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{
		api:      apiClient,
		sessions: sessions,
		tables:   tables,
		orders:   orders,
		renderer: renderer,
		logger:   logger,
	}
}

// staffError maps backend failures to responses. A 401 invalidates the local
// staff session entirely.
func staffError(w http.ResponseWriter, r *http.Request, err error, sessions *store.SessionStore, logger *slog.Logger, action string) {
	if errors.Is(err, api.ErrUnauthorized) {
		sessions.ClearStaff(auth.SessionID(r.Context()))
		redirect(w, r, "/restaurant/login")
		return
	}
	logger.Error(action, "error", err)
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		http.Error(w, apiErr.Message, apiErr.Status)
		return
	}
	http.Error(w, "failed to "+action, http.StatusInternalServerError)
}

func (h *StaffHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	token := auth.StaffToken(r.Context())
	restaurantID := auth.RestaurantID(r.Context())
	staff, _ := auth.StaffFromContext(r.Context())

	tables, err := h.api.Tables(r.Context(), token, restaurantID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load tables")
		return
	}
	h.tables.Set(restaurantID, tables)

	orders, err := h.api.ActiveOrders(r.Context(), token, restaurantID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load active orders")
		return
	}
	h.orders.SetActive(restaurantID, orders)

	// Stats are decoration; the dashboard still works without them.
	analytics, err := h.api.Analytics(r.Context(), token, restaurantID)
	if err != nil {
		h.logger.Warn("load analytics", "error", err)
		analytics = nil
	}

	h.renderer.Render(w, "staff_dashboard.html", map[string]any{
		"Title":        staff.User.Restaurant.Name + " Dashboard",
		"Staff":        staff.User,
		"RestaurantID": restaurantID,
		"Tables":       tables,
		"Orders":       orders,
		"Analytics":    analytics,
		"CanManage":    auth.CanManageMenu(r.Context()),
	})
}

// TablesPartial refreshes the floor grid, serving the cache when a push event
// already updated it.
func (h *StaffHandler) TablesPartial(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())

	tables := h.tables.Tables(restaurantID)
	if len(tables) == 0 {
		fetched, err := h.api.Tables(r.Context(), auth.StaffToken(r.Context()), restaurantID)
		if err != nil {
			staffError(w, r, err, h.sessions, h.logger, "load tables")
			return
		}
		h.tables.Set(restaurantID, fetched)
		tables = fetched
	}

	h.renderer.RenderPartial(w, "table-grid", map[string]any{"Tables": tables})
}

func (h *StaffHandler) ActiveOrdersPartial(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())

	orders, err := h.api.ActiveOrders(r.Context(), auth.StaffToken(r.Context()), restaurantID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load active orders")
		return
	}
	h.orders.SetActive(restaurantID, orders)

	h.renderer.RenderPartial(w, "active-orders", map[string]any{"Orders": orders})
}

func (h *StaffHandler) AnalyticsPartial(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.api.Analytics(r.Context(), auth.StaffToken(r.Context()), auth.RestaurantID(r.Context()))
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load analytics")
		return
	}
	h.renderer.RenderPartial(w, "analytics-cards", map[string]any{"Analytics": analytics})
}

func (h *StaffHandler) OrderDetailPage(w http.ResponseWriter, r *http.Request) {
	order, err := h.api.Order(r.Context(), auth.StaffToken(r.Context()), r.PathValue("id"))
	if err != nil {
		if api.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		staffError(w, r, err, h.sessions, h.logger, "load order")
		return
	}

	h.renderer.Render(w, "staff_order.html", map[string]any{
		"Title":        "Order " + order.OrderNumber,
		"Order":        order,
		"NextStatuses": nextOrderStatuses(order.Status),
	})
}

func (h *StaffHandler) OrderDetailPartial(w http.ResponseWriter, r *http.Request) {
	h.renderOrderDetail(w, r, r.PathValue("id"))
}

func (h *StaffHandler) renderOrderDetail(w http.ResponseWriter, r *http.Request, orderID string) {
	order, err := h.api.Order(r.Context(), auth.StaffToken(r.Context()), orderID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load order")
		return
	}
	h.renderer.RenderPartial(w, "order-detail", map[string]any{
		"Order":        order,
		"NextStatuses": nextOrderStatuses(order.Status),
	})
}

func (h *StaffHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	orderID := r.PathValue("id")
	status := r.FormValue("status")
	if !validOrderStatus(status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	if err := h.api.UpdateOrderStatus(r.Context(), auth.StaffToken(r.Context()), orderID, status); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "update order status")
		return
	}
	h.orders.PatchStatus(orderID, status)

	h.logger.Info("order status updated", "order", orderID, "status", status)
	h.renderOrderDetail(w, r, orderID)
}

// CreateKOT sends the order to the kitchen as a printable ticket.
func (h *StaffHandler) CreateKOT(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	kot, err := h.api.CreateKOT(r.Context(), auth.StaffToken(r.Context()), orderID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "create kitchen ticket")
		return
	}

	h.logger.Info("kitchen ticket created", "order", orderID, "kot", kot.ID)
	h.renderOrderDetail(w, r, orderID)
}

// TableDetailPage lists one table's orders for staff working the floor.
func (h *StaffHandler) TableDetailPage(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("tableId")
	token := auth.StaffToken(r.Context())

	table, err := h.api.Table(r.Context(), token, tableID)
	if err != nil {
		if api.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		staffError(w, r, err, h.sessions, h.logger, "load table")
		return
	}

	orders, err := h.api.OrdersByTable(r.Context(), token, tableID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load table orders")
		return
	}
	h.orders.SetForTable(tableID, orders)

	h.renderer.Render(w, "staff_table.html", map[string]any{
		"Title":        "Table " + table.TableNumber,
		"RestaurantID": auth.RestaurantID(r.Context()),
		"Table":        table,
		"TableID":      tableID,
		"Orders":       orders,
	})
}

func (h *StaffHandler) TableOrdersPartial(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("tableId")

	orders, err := h.api.OrdersByTable(r.Context(), auth.StaffToken(r.Context()), tableID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load table orders")
		return
	}
	h.orders.SetForTable(tableID, orders)

	h.renderer.RenderPartial(w, "table-orders", map[string]any{"Orders": orders})
}

func (h *StaffHandler) HistoryPage(w http.ResponseWriter, r *http.Request) {
	orders, err := h.api.OrderHistory(r.Context(), auth.StaffToken(r.Context()), auth.RestaurantID(r.Context()))
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load order history")
		return
	}

	h.renderer.Render(w, "staff_history.html", map[string]any{
		"Title":  "Order History",
		"Orders": orders,
	})
}

// BillingPage shows the settlement view for one table.
func (h *StaffHandler) BillingPage(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("tableId")
	token := auth.StaffToken(r.Context())

	table, err := h.api.Table(r.Context(), token, tableID)
	if err != nil {
		if api.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		staffError(w, r, err, h.sessions, h.logger, "load table")
		return
	}

	orders, err := h.api.OrdersByTable(r.Context(), token, tableID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load table orders")
		return
	}
	h.orders.SetForTable(tableID, orders)

	h.renderer.Render(w, "staff_billing.html", map[string]any{
		"Title":          "Billing, Table " + table.TableNumber,
		"Table":          table,
		"TableID":        tableID,
		"Bill":           buildBill(orders),
		"PaymentMethods": []string{model.PayCash, model.PayCard, model.PayUPI},
	})
}

func (h *StaffHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	orderID := r.PathValue("id")
	amount, err := parseAmount(r.FormValue("amount"))
	if err != nil {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Invalid discount amount"})
		return
	}

	order, err := h.api.ApplyDiscount(r.Context(), auth.StaffToken(r.Context()), orderID, amount)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "apply discount")
		return
	}

	h.logger.Info("discount applied", "order", orderID, "amount", amount)
	h.renderBillPartial(w, r, order.TableID)
}

func (h *StaffHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	orderID := r.PathValue("id")
	method := r.FormValue("method")
	if method != model.PayCash && method != model.PayCard && method != model.PayUPI {
		http.Error(w, "invalid payment method", http.StatusBadRequest)
		return
	}

	if err := h.api.RecordPayment(r.Context(), auth.StaffToken(r.Context()), orderID, method); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "record payment")
		return
	}
	h.orders.Remove(orderID)

	h.logger.Info("payment recorded", "order", orderID, "method", method)
	h.renderBillPartial(w, r, r.FormValue("table_id"))
}

func (h *StaffHandler) renderBillPartial(w http.ResponseWriter, r *http.Request, tableID string) {
	orders, err := h.api.OrdersByTable(r.Context(), auth.StaffToken(r.Context()), tableID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load table orders")
		return
	}
	h.orders.SetForTable(tableID, orders)

	h.renderer.RenderPartial(w, "bill", map[string]any{
		"TableID":        tableID,
		"Bill":           buildBill(orders),
		"PaymentMethods": []string{model.PayCash, model.PayCard, model.PayUPI},
	})
}

// nextOrderStatuses lists the transitions offered from the current status.
// Kitchen progress (PREPARING and onward) can no longer be cancelled from the
// dashboard.
func nextOrderStatuses(status string) []string {
	switch status {
	case model.OrderPending:
		return []string{model.OrderConfirmed, model.OrderCancelled}
	case model.OrderConfirmed:
		return []string{model.OrderPreparing, model.OrderCancelled}
	case model.OrderPreparing:
		return []string{model.OrderReady}
	case model.OrderReady:
		return []string{model.OrderServed}
	default:
		return nil
	}
}

func parseAmount(s string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || amount < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func validOrderStatus(status string) bool {
	switch status {
	case model.OrderPending, model.OrderConfirmed, model.OrderPreparing,
		model.OrderReady, model.OrderServed, model.OrderCancelled:
		return true
	}
	return false
}
