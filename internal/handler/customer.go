package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tabletap/internal/api"
	"tabletap/internal/auth"
	"tabletap/internal/events"
	"tabletap/internal/model"
	"tabletap/internal/store"
)

// CustomerHandler serves the table-side surface: menu browsing, the cart,
// order placement and tracking, and the bill. The cart never talks to the
// backend; it lives locally until the order is placed.
type CustomerHandler struct {
	api      *api.Client
	sessions *store.SessionStore
	carts    *store.CartStore
	menus    *store.MenuCache
	orders   *store.OrderCache
	events   *events.Client
	renderer *Renderer
	logger   *slog.Logger
}

func NewCustomerHandler(apiClient *api.Client, sessions *store.SessionStore, carts *store.CartStore, menus *store.MenuCache, orders *store.OrderCache, ev *events.Client, renderer *Renderer, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		api:      apiClient,
		sessions: sessions,
		carts:    carts,
		menus:    menus,
		orders:   orders,
		events:   ev,
		renderer: renderer,
		logger:   logger,
	}
}

// MenuPage is the landing page a table QR code points at.
func (h *CustomerHandler) MenuPage(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")
	tableID := r.PathValue("tableId")

	restaurant, err := h.api.Restaurant(r.Context(), restaurantID)
	if err != nil {
		if api.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to load restaurant", http.StatusInternalServerError)
		return
	}

	categories, err := h.loadMenu(r.Context(), restaurantID)
	if err != nil {
		http.Error(w, "failed to load menu", http.StatusInternalServerError)
		return
	}

	sessionID := auth.SessionID(r.Context())
	cart, err := h.carts.Load(sessionID)
	if err != nil {
		http.Error(w, "failed to load cart", http.StatusInternalServerError)
		return
	}
	customer, _ := h.sessions.Customer(sessionID)

	categoryID, query, dietary := menuFilters(r)
	h.renderer.Render(w, "customer_menu.html", map[string]any{
		"Title":        restaurant.Name,
		"Restaurant":   restaurant,
		"RestaurantID": restaurantID,
		"TableID":      tableID,
		"Categories":   store.FilterCategories(categories, categoryID, query, dietary),
		"AllCats":      categories,
		"CategoryID":   categoryID,
		"Query":        query,
		"Dietary":      dietary,
		"Cart":         cartData(cart, restaurantID, tableID),
		"Customer":     customer,
	})
}

// MenuPartial re-renders the item grid for a changed filter.
func (h *CustomerHandler) MenuPartial(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")
	tableID := r.PathValue("tableId")

	categories, err := h.loadMenu(r.Context(), restaurantID)
	if err != nil {
		http.Error(w, "failed to load menu", http.StatusInternalServerError)
		return
	}

	categoryID, query, dietary := menuFilters(r)
	h.renderer.RenderPartial(w, "menu-sections", map[string]any{
		"RestaurantID": restaurantID,
		"TableID":      tableID,
		"Categories":   store.FilterCategories(categories, categoryID, query, dietary),
	})
}

// ItemModal renders the customization dialog for one menu item.
func (h *CustomerHandler) ItemModal(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")

	item, ok := h.menus.FindItem(restaurantID, r.PathValue("itemId"))
	if !ok {
		if _, err := h.loadMenu(r.Context(), restaurantID); err == nil {
			item, ok = h.menus.FindItem(restaurantID, r.PathValue("itemId"))
		}
	}
	if !ok {
		http.Error(w, "menu item not found", http.StatusNotFound)
		return
	}

	h.renderer.RenderPartial(w, "item-modal", map[string]any{
		"RestaurantID": restaurantID,
		"TableID":      r.PathValue("tableId"),
		"Item":         item,
	})
}

func (h *CustomerHandler) CartAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	restaurantID := r.PathValue("restaurantId")
	tableID := r.PathValue("tableId")

	item, ok := h.menus.FindItem(restaurantID, r.FormValue("item_id"))
	if !ok {
		if _, err := h.loadMenu(r.Context(), restaurantID); err == nil {
			item, ok = h.menus.FindItem(restaurantID, r.FormValue("item_id"))
		}
	}
	if !ok {
		http.Error(w, "menu item not found", http.StatusNotFound)
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil || quantity < 1 {
		quantity = 1
	}

	line := model.CartItem{
		MenuItem:            item,
		Quantity:            quantity,
		SpecialInstructions: strings.TrimSpace(r.FormValue("special_instructions")),
	}
	for i := range item.Variations {
		if item.Variations[i].ID == r.FormValue("variation_id") {
			line.Variation = &item.Variations[i]
			break
		}
	}
	addonTotal := 0.0
	for _, addonID := range r.Form["addons"] {
		for _, addon := range item.Addons {
			if addon.ID == addonID {
				line.Addons = append(line.Addons, addon)
				addonTotal += addon.Price
			}
		}
	}
	line.TotalPrice = (line.UnitPrice() + addonTotal) * float64(quantity)

	h.mutateCart(w, r, restaurantID, tableID, func(cart *store.Cart) {
		cart.Add(line)
	})
}

func (h *CustomerHandler) CartUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		http.Error(w, "invalid quantity", http.StatusBadRequest)
		return
	}

	h.mutateCart(w, r, r.PathValue("restaurantId"), r.PathValue("tableId"), func(cart *store.Cart) {
		cart.UpdateQuantity(r.FormValue("item_id"), quantity, r.FormValue("variation_id"))
	})
}

func (h *CustomerHandler) CartRemove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	h.mutateCart(w, r, r.PathValue("restaurantId"), r.PathValue("tableId"), func(cart *store.Cart) {
		cart.Remove(r.FormValue("item_id"), r.FormValue("variation_id"))
	})
}

func (h *CustomerHandler) CartClear(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, r.PathValue("restaurantId"), r.PathValue("tableId"), func(cart *store.Cart) {
		cart.Clear()
	})
}

// mutateCart loads the browser's cart, applies fn, persists, and re-renders
// the cart fragment.
func (h *CustomerHandler) mutateCart(w http.ResponseWriter, r *http.Request, restaurantID, tableID string, fn func(*store.Cart)) {
	sessionID := auth.SessionID(r.Context())
	cart, err := h.carts.Load(sessionID)
	if err != nil {
		http.Error(w, "failed to load cart", http.StatusInternalServerError)
		return
	}

	fn(cart)

	if err := h.carts.Save(sessionID, cart); err != nil {
		h.logger.Error("save cart", "error", err)
		http.Error(w, "failed to save cart", http.StatusInternalServerError)
		return
	}

	h.renderer.RenderPartial(w, "cart", cartData(cart, restaurantID, tableID))
}

// PlaceOrder submits the cart as a backend order. Requires a verified
// customer; otherwise the identity form is returned in place of the cart.
func (h *CustomerHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")
	tableID := r.PathValue("tableId")
	sessionID := auth.SessionID(r.Context())

	customer, err := h.sessions.Customer(sessionID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if customer == nil {
		h.renderer.RenderPartial(w, "otp-request-form", map[string]any{
			"RestaurantID": restaurantID,
			"TableID":      tableID,
		})
		return
	}

	cart, err := h.carts.Load(sessionID)
	if err != nil {
		http.Error(w, "failed to load cart", http.StatusInternalServerError)
		return
	}
	items := cart.Items()
	if len(items) == 0 {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Your cart is empty"})
		return
	}

	req := api.CreateOrderRequest{
		RestaurantID: restaurantID,
		TableID:      tableID,
		CustomerID:   customer.Customer.ID,
	}
	for _, line := range items {
		input := api.OrderItemInput{
			MenuItemID:          line.MenuItem.ID,
			VariationID:         line.VariationID(),
			Quantity:            line.Quantity,
			AddonIDs:            []string{},
			SpecialInstructions: line.SpecialInstructions,
		}
		for _, addon := range line.Addons {
			input.AddonIDs = append(input.AddonIDs, addon.ID)
		}
		req.Items = append(req.Items, input)
	}

	order, err := h.api.CreateOrder(r.Context(), customer.SessionToken, req)
	if err != nil {
		h.logger.Error("create order", "table", tableID, "error", err)
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": orderErrorMessage(err)})
		return
	}

	if err := h.carts.Clear(sessionID); err != nil {
		h.logger.Error("clear cart after order", "error", err)
	}
	h.orders.Prepend(*order)

	h.logger.Info("order placed", "order", order.ID, "table", tableID)
	redirect(w, r, "/order/"+restaurantID+"/"+tableID+"/orders")
}

// OrdersPage lists the table's orders with live status.
func (h *CustomerHandler) OrdersPage(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")
	tableID := r.PathValue("tableId")

	orders, err := h.fetchTableOrders(r, tableID)
	if err != nil {
		http.Error(w, "failed to load orders", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, "customer_orders.html", map[string]any{
		"Title":        "Your Orders",
		"RestaurantID": restaurantID,
		"TableID":      tableID,
		"Orders":       orders,
	})
}

// OrderListPartial refreshes the order list after a push event.
func (h *CustomerHandler) OrderListPartial(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("tableId")
	orders := h.orders.ForTable(tableID)
	if len(orders) == 0 {
		fetched, err := h.fetchTableOrders(r, tableID)
		if err != nil {
			http.Error(w, "failed to load orders", http.StatusInternalServerError)
			return
		}
		orders = fetched
	}
	h.renderer.RenderPartial(w, "order-list", map[string]any{
		"RestaurantID": r.PathValue("restaurantId"),
		"TableID":      tableID,
		"Orders":       orders,
	})
}

// BillPage aggregates the table's unsettled orders into one bill view.
func (h *CustomerHandler) BillPage(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")
	tableID := r.PathValue("tableId")

	orders, err := h.fetchTableOrders(r, tableID)
	if err != nil {
		http.Error(w, "failed to load bill", http.StatusInternalServerError)
		return
	}

	bill := buildBill(orders)
	h.renderer.Render(w, "customer_bill.html", map[string]any{
		"Title":        "Your Bill",
		"RestaurantID": restaurantID,
		"TableID":      tableID,
		"Bill":         bill,
	})
}

// RequestBill notifies staff that the table wants to settle.
func (h *CustomerHandler) RequestBill(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("tableId")
	if err := h.events.RequestBill(tableID); err != nil {
		h.logger.Warn("bill request emit", "table", tableID, "error", err)
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Could not notify staff, please try again"})
		return
	}
	h.renderer.RenderPartial(w, "bill-requested", nil)
}

func (h *CustomerHandler) loadMenu(ctx context.Context, restaurantID string) ([]model.Category, error) {
	categories, err := h.api.CustomerMenu(ctx, restaurantID)
	if err != nil {
		// Serve the last known menu when the backend is briefly unreachable.
		if cached := h.menus.Categories(restaurantID); len(cached) > 0 {
			h.logger.Warn("menu fetch failed, serving cached menu", "restaurant", restaurantID, "error", err)
			return cached, nil
		}
		return nil, err
	}
	h.menus.SetCategories(restaurantID, categories)
	return categories, nil
}

func (h *CustomerHandler) fetchTableOrders(r *http.Request, tableID string) ([]model.Order, error) {
	token := ""
	if cs, err := h.sessions.Customer(auth.SessionID(r.Context())); err == nil && cs != nil {
		token = cs.SessionToken
	}
	orders, err := h.api.OrdersByTable(r.Context(), token, tableID)
	if err != nil {
		return nil, err
	}
	h.orders.SetForTable(tableID, orders)
	return orders, nil
}

func menuFilters(r *http.Request) (categoryID, query, dietary string) {
	q := r.URL.Query()
	return q.Get("category"), strings.TrimSpace(q.Get("q")), q.Get("dietary")
}

func cartData(cart *store.Cart, restaurantID, tableID string) map[string]any {
	return map[string]any{
		"RestaurantID": restaurantID,
		"TableID":      tableID,
		"Items":        cart.Items(),
		"Total":        cart.Total(),
		"Count":        cart.ItemCount(),
	}
}

// Bill is the customer-facing settlement view across a table's open orders.
type Bill struct {
	Orders   []model.Order
	Subtotal float64
	Discount float64
	Tax      float64
	Total    float64
}

func buildBill(orders []model.Order) Bill {
	var bill Bill
	for _, o := range orders {
		if o.Status == model.OrderCancelled || o.PaymentStatus == model.PaymentPaid {
			continue
		}
		bill.Orders = append(bill.Orders, o)
		bill.Subtotal += o.Subtotal
		bill.Discount += o.Discount
		bill.Tax += o.TaxAmount
		bill.Total += o.TotalAmount
	}
	return bill
}

func orderErrorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Could not place the order, try again"
}
