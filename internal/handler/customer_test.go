package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tabletap/internal/api"
	"tabletap/internal/events"
	"tabletap/internal/model"
)

func newCustomerHandler(f *fixture) *CustomerHandler {
	ev := events.NewClient("ws://127.0.0.1:1/ws", testLogger())
	return NewCustomerHandler(f.api, f.sessions, f.carts, f.menus, f.orders, ev, f.renderer, testLogger())
}

func cartRequest(f *fixture, method, path string, form url.Values) *http.Request {
	r := f.request(method, path, form)
	r.SetPathValue("restaurantId", "r1")
	r.SetPathValue("tableId", "t1")
	return r
}

func TestCartAddIncludesAddonCost(t *testing.T) {
	f := newFixture(t, nil)
	f.menus.SetCategories("r1", testMenu())
	h := newCustomerHandler(f)

	form := url.Values{
		"item_id":  {"m1"},
		"quantity": {"2"},
		"addons":   {"a1"},
	}
	w := httptest.NewRecorder()
	h.CartAdd(w, cartRequest(f, http.MethodPost, "/order/r1/t1/cart/items", form))

	cart, err := f.carts.Load(f.sessionID)
	if err != nil {
		t.Fatal(err)
	}
	// (100 base + 20 addon) x 2
	if got := cart.Total(); got != 240 {
		t.Errorf("cart total = %v, want 240", got)
	}
	if !strings.Contains(w.Body.String(), "₹240.00") {
		t.Errorf("rendered cart missing total: %q", w.Body.String())
	}
}

func TestCartAddWithVariationUsesVariationPrice(t *testing.T) {
	f := newFixture(t, nil)
	f.menus.SetCategories("r1", testMenu())
	h := newCustomerHandler(f)

	form := url.Values{
		"item_id":      {"m1"},
		"variation_id": {"v1"},
		"quantity":     {"1"},
	}
	w := httptest.NewRecorder()
	h.CartAdd(w, cartRequest(f, http.MethodPost, "/order/r1/t1/cart/items", form))

	cart, _ := f.carts.Load(f.sessionID)
	items := cart.Items()
	if len(items) != 1 {
		t.Fatalf("cart has %d lines, want 1", len(items))
	}
	if items[0].VariationID() != "v1" || items[0].TotalPrice != 150 {
		t.Errorf("line = %+v, want variation v1 at 150", items[0])
	}
}

// Merging an existing line recomputes the total from the unit price alone, so
// add-on cost from the first add does not survive a merge.
func TestCartAddMergeRecomputesFromUnitPrice(t *testing.T) {
	f := newFixture(t, nil)
	f.menus.SetCategories("r1", testMenu())
	h := newCustomerHandler(f)

	form := url.Values{"item_id": {"m1"}, "quantity": {"2"}, "addons": {"a1"}}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.CartAdd(w, cartRequest(f, http.MethodPost, "/order/r1/t1/cart/items", form))
	}

	cart, _ := f.carts.Load(f.sessionID)
	items := cart.Items()
	if len(items) != 1 {
		t.Fatalf("cart has %d lines, want 1 merged line", len(items))
	}
	if items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", items[0].Quantity)
	}
	if got := cart.Total(); got != 400 {
		t.Errorf("cart total = %v, want 400", got)
	}
}

func TestCartUpdateQuantityZeroRemovesLine(t *testing.T) {
	f := newFixture(t, nil)
	f.menus.SetCategories("r1", testMenu())
	h := newCustomerHandler(f)

	add := url.Values{"item_id": {"m2"}, "quantity": {"1"}}
	h.CartAdd(httptest.NewRecorder(), cartRequest(f, http.MethodPost, "/order/r1/t1/cart/items", add))

	upd := url.Values{"item_id": {"m2"}, "quantity": {"0"}}
	w := httptest.NewRecorder()
	h.CartUpdateQuantity(w, cartRequest(f, http.MethodPost, "/order/r1/t1/cart/quantity", upd))

	cart, _ := f.carts.Load(f.sessionID)
	if n := len(cart.Items()); n != 0 {
		t.Errorf("cart has %d lines after zeroing, want 0", n)
	}
	if !strings.Contains(w.Body.String(), "Nothing here yet") {
		t.Errorf("rendered cart not empty: %q", w.Body.String())
	}
}

func TestPlaceOrderWithoutCustomerShowsIdentityForm(t *testing.T) {
	f := newFixture(t, nil)
	h := newCustomerHandler(f)

	w := httptest.NewRecorder()
	h.PlaceOrder(w, cartRequest(f, http.MethodPost, "/order/r1/t1/order", url.Values{}))

	if !strings.Contains(w.Body.String(), `name="phone"`) {
		t.Errorf("expected identity form, got %q", w.Body.String())
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t, nil)
	h := newCustomerHandler(f)

	if err := f.sessions.SetCustomer(f.sessionID, model.CustomerSession{
		SessionToken: "cust-tok",
		Customer:     model.Customer{ID: "cust1"},
		TableID:      "t1",
	}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	h.PlaceOrder(w, cartRequest(f, http.MethodPost, "/order/r1/t1/order", url.Values{}))

	if !strings.Contains(w.Body.String(), "cart is empty") {
		t.Errorf("body = %q, want empty-cart message", w.Body.String())
	}
}

func TestPlaceOrderSubmitsCartAndClears(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer cust-tok" {
			t.Errorf("authorization = %q, want customer token", got)
		}
		var req api.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode order request: %v", err)
		}
		if req.TableID != "t1" || req.CustomerID != "cust1" {
			t.Errorf("request = %+v", req)
		}
		if len(req.Items) != 1 || req.Items[0].MenuItemID != "m1" || len(req.Items[0].AddonIDs) != 1 {
			t.Errorf("items = %+v", req.Items)
		}
		json.NewEncoder(w).Encode(model.Order{
			ID: "o1", RestaurantID: "r1", TableID: "t1",
			OrderNumber: "ORD-1", Status: model.OrderPending,
		})
	})

	f := newFixture(t, mux)
	f.menus.SetCategories("r1", testMenu())
	h := newCustomerHandler(f)

	if err := f.sessions.SetCustomer(f.sessionID, model.CustomerSession{
		SessionToken: "cust-tok",
		Customer:     model.Customer{ID: "cust1"},
		TableID:      "t1",
	}); err != nil {
		t.Fatal(err)
	}

	add := url.Values{"item_id": {"m1"}, "quantity": {"1"}, "addons": {"a1"}}
	h.CartAdd(httptest.NewRecorder(), cartRequest(f, http.MethodPost, "/order/r1/t1/cart/items", add))

	r := cartRequest(f, http.MethodPost, "/order/r1/t1/order", url.Values{})
	r.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	h.PlaceOrder(w, r)

	if got := w.Header().Get("HX-Redirect"); got != "/order/r1/t1/orders" {
		t.Fatalf("HX-Redirect = %q, want orders page", got)
	}
	cart, _ := f.carts.Load(f.sessionID)
	if n := len(cart.Items()); n != 0 {
		t.Errorf("cart has %d lines after order, want 0", n)
	}
	if _, ok := f.orders.Get("o1"); !ok {
		t.Error("placed order not cached")
	}
}

func TestMenuPageFiltersByDietary(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/restaurants/r1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Restaurant{ID: "r1", Name: "Test Kitchen"})
	})
	mux.HandleFunc("GET /api/menu/customer/r1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testMenu())
	})

	f := newFixture(t, mux)
	h := newCustomerHandler(f)

	r := cartRequest(f, http.MethodGet, "/order/r1/t1?dietary=VEG", nil)
	w := httptest.NewRecorder()
	h.MenuPage(w, r)

	body := w.Body.String()
	if !strings.Contains(body, "Paneer Tikka") {
		t.Errorf("veg item missing from filtered menu")
	}
	if strings.Contains(body, "Chicken Curry") {
		t.Errorf("non-veg item shown despite VEG filter")
	}
}

func TestMenuServedFromCacheOnBackendFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/menu/customer/r1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	f := newFixture(t, mux)
	f.menus.SetCategories("r1", testMenu())
	h := newCustomerHandler(f)

	r := cartRequest(f, http.MethodGet, "/order/r1/t1/menu", nil)
	w := httptest.NewRecorder()
	h.MenuPartial(w, r)

	if !strings.Contains(w.Body.String(), "Paneer Tikka") {
		t.Errorf("cached menu not served during outage: %q", w.Body.String())
	}
}

func TestRequestBillWithoutChannelShowsError(t *testing.T) {
	f := newFixture(t, nil)
	h := newCustomerHandler(f)

	r := cartRequest(f, http.MethodPost, "/order/r1/t1/bill/request", url.Values{})
	w := httptest.NewRecorder()
	h.RequestBill(w, r)

	if !strings.Contains(w.Body.String(), "Could not notify staff") {
		t.Errorf("body = %q, want notify-failure message", w.Body.String())
	}
}

func TestBuildBillSkipsCancelledAndPaid(t *testing.T) {
	orders := []model.Order{
		{ID: "o1", Status: model.OrderServed, PaymentStatus: model.PaymentUnpaid, Subtotal: 100, TaxAmount: 5, TotalAmount: 105},
		{ID: "o2", Status: model.OrderCancelled, Subtotal: 50, TotalAmount: 50},
		{ID: "o3", Status: model.OrderServed, PaymentStatus: model.PaymentPaid, Subtotal: 80, TotalAmount: 80},
		{ID: "o4", Status: model.OrderPreparing, PaymentStatus: model.PaymentUnpaid, Subtotal: 200, Discount: 20, TaxAmount: 9, TotalAmount: 189},
	}

	bill := buildBill(orders)

	if len(bill.Orders) != 2 {
		t.Fatalf("bill has %d orders, want 2", len(bill.Orders))
	}
	if bill.Subtotal != 300 || bill.Discount != 20 || bill.Tax != 14 || bill.Total != 294 {
		t.Errorf("bill = %+v", bill)
	}
}
