package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tabletap/internal/model"
)

func newStaffHandler(f *fixture) *StaffHandler {
	return NewStaffHandler(f.api, f.sessions, f.tables, f.orders, f.renderer, testLogger())
}

func TestBackendUnauthorizedClearsStaffSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/restaurant/r1/history", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	f := newFixture(t, mux)
	if err := f.sessions.SetStaff(f.sessionID, "stale-token", model.Staff{ID: "u1"}); err != nil {
		t.Fatal(err)
	}
	h := newStaffHandler(f)

	w := httptest.NewRecorder()
	h.HistoryPage(w, f.staffRequest(http.MethodGet, "/restaurant/orders/history", nil, model.RoleWaiter))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if got := w.Header().Get("Location"); got != "/restaurant/login" {
		t.Errorf("redirect = %q, want /restaurant/login", got)
	}
	if staff, _ := f.sessions.Staff(f.sessionID); staff != nil {
		t.Error("stale staff session survived a 401")
	}
}

func TestUpdateOrderStatusRejectsUnknown(t *testing.T) {
	f := newFixture(t, nil)
	h := newStaffHandler(f)

	form := url.Values{"status": {"TELEPORTED"}}
	r := f.staffRequest(http.MethodPost, "/restaurant/orders/o1/status", form, model.RoleWaiter)
	r.SetPathValue("id", "o1")
	w := httptest.NewRecorder()
	h.UpdateOrderStatus(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpdateOrderStatusPatchesCache(t *testing.T) {
	order := model.Order{
		ID: "o1", RestaurantID: "r1", TableID: "t1",
		OrderNumber: "ORD-1", Status: model.OrderPending,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/orders/o1/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["status"] != model.OrderConfirmed {
			t.Errorf("status = %q, want CONFIRMED", body["status"])
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/orders/o1", func(w http.ResponseWriter, r *http.Request) {
		confirmed := order
		confirmed.Status = model.OrderConfirmed
		json.NewEncoder(w).Encode(confirmed)
	})

	f := newFixture(t, mux)
	f.orders.SetActive("r1", []model.Order{order})
	h := newStaffHandler(f)

	form := url.Values{"status": {model.OrderConfirmed}}
	r := f.staffRequest(http.MethodPost, "/restaurant/orders/o1/status", form, model.RoleWaiter)
	r.SetPathValue("id", "o1")
	w := httptest.NewRecorder()
	h.UpdateOrderStatus(w, r)

	cached, ok := f.orders.Get("o1")
	if !ok || cached.Status != model.OrderConfirmed {
		t.Errorf("cached order = %+v, want CONFIRMED", cached)
	}
	if !strings.Contains(w.Body.String(), model.OrderPreparing) {
		t.Errorf("rendered detail missing next transition: %q", w.Body.String())
	}
}

func TestTablesPartialServesCache(t *testing.T) {
	f := newFixture(t, nil)
	f.tables.Set("r1", []model.Table{
		{ID: "t1", RestaurantID: "r1", TableNumber: "7", Capacity: 4, Status: model.TableOccupied},
	})
	h := newStaffHandler(f)

	w := httptest.NewRecorder()
	h.TablesPartial(w, f.staffRequest(http.MethodGet, "/restaurant/partials/tables", nil, model.RoleWaiter))

	body := w.Body.String()
	if !strings.Contains(body, ">7<") {
		t.Errorf("rendered grid missing table number: %q", body)
	}
	if !strings.Contains(body, model.TableOccupied) {
		t.Errorf("rendered grid missing status: %q", body)
	}
}

func TestTableDetailListsOrders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tables/t1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Table{
			ID: "t1", RestaurantID: "r1", TableNumber: "4", Capacity: 4, Status: model.TableOccupied,
		})
	})
	mux.HandleFunc("GET /api/orders/table/t1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.Order{
			{ID: "o1", RestaurantID: "r1", TableID: "t1", OrderNumber: "ORD-1", Status: model.OrderPreparing, TotalAmount: 420},
		})
	})

	f := newFixture(t, mux)
	h := newStaffHandler(f)

	r := f.staffRequest(http.MethodGet, "/restaurant/table/t1", nil, model.RoleWaiter)
	r.SetPathValue("tableId", "t1")
	w := httptest.NewRecorder()
	h.TableDetailPage(w, r)

	body := w.Body.String()
	if !strings.Contains(body, "ORD-1") {
		t.Errorf("page missing order: %q", body)
	}
	if got := f.orders.ForTable("t1"); len(got) != 1 {
		t.Errorf("table orders cached = %d, want 1", len(got))
	}
}

func TestRecordPaymentValidatesMethod(t *testing.T) {
	f := newFixture(t, nil)
	h := newStaffHandler(f)

	form := url.Values{"method": {"BARTER"}, "table_id": {"t1"}}
	r := f.staffRequest(http.MethodPost, "/restaurant/orders/o1/payment", form, model.RoleCashier)
	r.SetPathValue("id", "o1")
	w := httptest.NewRecorder()
	h.RecordPayment(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestNextOrderStatuses(t *testing.T) {
	tests := []struct {
		status string
		want   []string
	}{
		{model.OrderPending, []string{model.OrderConfirmed, model.OrderCancelled}},
		{model.OrderConfirmed, []string{model.OrderPreparing, model.OrderCancelled}},
		{model.OrderPreparing, []string{model.OrderReady}},
		{model.OrderReady, []string{model.OrderServed}},
		{model.OrderServed, nil},
		{model.OrderCancelled, nil},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := nextOrderStatuses(tt.status)
			if len(got) != len(tt.want) {
				t.Fatalf("nextOrderStatuses(%s) = %v, want %v", tt.status, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("nextOrderStatuses(%s)[%d] = %s, want %s", tt.status, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"50", 50, false},
		{" 12.75 ", 12.75, false},
		{"0", 0, false},
		{"-5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
