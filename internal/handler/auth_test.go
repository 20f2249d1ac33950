package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tabletap/internal/api"
	"tabletap/internal/model"
)

func TestStaffLoginStoresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/staff/login", func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode login request: %v", err)
		}
		if req.Email != "ana@example.com" {
			t.Errorf("email = %q, want ana@example.com", req.Email)
		}
		sess := model.StaffSession{Token: "tok-123"}
		sess.User.ID = "u1"
		sess.User.Role = model.RoleManager
		sess.User.RestaurantID = "r1"
		json.NewEncoder(w).Encode(sess)
	})

	f := newFixture(t, mux)
	h := NewAuthHandler(f.api, f.sessions, f.renderer, testLogger())

	form := url.Values{"email": {"ana@example.com"}, "password": {"secret"}}
	r := f.request(http.MethodPost, "/restaurant/login", form)
	r.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	h.StaffLogin(w, r)

	if got := w.Header().Get("HX-Redirect"); got != "/restaurant/dashboard" {
		t.Fatalf("HX-Redirect = %q, want /restaurant/dashboard", got)
	}

	stored, err := f.sessions.Staff(f.sessionID)
	if err != nil {
		t.Fatalf("load staff session: %v", err)
	}
	if stored == nil || stored.Token != "tok-123" {
		t.Errorf("stored session = %+v, want token tok-123", stored)
	}
}

func TestStaffLoginBadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/staff/login", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	f := newFixture(t, mux)
	h := NewAuthHandler(f.api, f.sessions, f.renderer, testLogger())

	form := url.Values{"email": {"ana@example.com"}, "password": {"wrong"}}
	w := httptest.NewRecorder()
	h.StaffLogin(w, f.request(http.MethodPost, "/restaurant/login", form))

	if !strings.Contains(w.Body.String(), "Invalid credentials") {
		t.Errorf("body = %q, want invalid credentials message", w.Body.String())
	}
	if stored, _ := f.sessions.Staff(f.sessionID); stored != nil {
		t.Error("staff session stored despite failed login")
	}
}

func TestStaffLoginMissingFields(t *testing.T) {
	f := newFixture(t, nil)
	h := NewAuthHandler(f.api, f.sessions, f.renderer, testLogger())

	w := httptest.NewRecorder()
	h.StaffLogin(w, f.request(http.MethodPost, "/restaurant/login", url.Values{"email": {"ana@example.com"}}))

	if !strings.Contains(w.Body.String(), "required") {
		t.Errorf("body = %q, want required-fields message", w.Body.String())
	}
}

func TestStaffLogoutClearsOnlyStaff(t *testing.T) {
	f := newFixture(t, nil)
	h := NewAuthHandler(f.api, f.sessions, f.renderer, testLogger())

	if err := f.sessions.SetStaff(f.sessionID, "tok", model.Staff{ID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if err := f.sessions.SetCustomer(f.sessionID, model.CustomerSession{
		SessionToken: "cust-tok",
		Customer:     model.Customer{ID: "cust1"},
		TableID:      "t1",
	}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	h.StaffLogout(w, f.request(http.MethodPost, "/restaurant/logout", url.Values{}))

	if staff, _ := f.sessions.Staff(f.sessionID); staff != nil {
		t.Error("staff session survived logout")
	}
	customer, err := f.sessions.Customer(f.sessionID)
	if err != nil || customer == nil {
		t.Fatalf("customer session lost on staff logout: %v", err)
	}
	if customer.TableID != "t1" {
		t.Errorf("customer table = %q, want t1", customer.TableID)
	}
}

func TestVerifyOTPBindsCustomerToTable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/customer/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		var req api.OTPVerification
		json.NewDecoder(r.Body).Decode(&req)
		if req.TableID != "t1" {
			t.Errorf("tableId = %q, want t1", req.TableID)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sessionToken": "cust-tok",
			"customer":     model.Customer{ID: "cust1", Name: "Ravi", Phone: req.Phone},
		})
	})

	f := newFixture(t, mux)
	h := NewAuthHandler(f.api, f.sessions, f.renderer, testLogger())

	form := url.Values{"phone": {"9876543210"}, "name": {"Ravi"}, "otp": {"123456"}}
	r := f.request(http.MethodPost, "/order/r1/t1/otp/verify", form)
	r.SetPathValue("restaurantId", "r1")
	r.SetPathValue("tableId", "t1")
	w := httptest.NewRecorder()
	h.VerifyOTP(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if got := w.Header().Get("Location"); got != "/order/r1/t1" {
		t.Errorf("redirect = %q, want /order/r1/t1", got)
	}

	cs, err := f.sessions.Customer(f.sessionID)
	if err != nil || cs == nil {
		t.Fatalf("customer session not stored: %v", err)
	}
	if cs.SessionToken != "cust-tok" || cs.TableID != "t1" {
		t.Errorf("stored session = %+v", cs)
	}
}

func TestRequestOTPShowsVerifyForm(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/customer/request-otp", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.OTPResponse{Message: "sent", OTP: "424242"})
	})

	f := newFixture(t, mux)
	h := NewAuthHandler(f.api, f.sessions, f.renderer, testLogger())

	form := url.Values{"phone": {"9876543210"}, "name": {"Ravi"}}
	r := f.request(http.MethodPost, "/order/r1/t1/otp/request", form)
	r.SetPathValue("restaurantId", "r1")
	r.SetPathValue("tableId", "t1")
	w := httptest.NewRecorder()
	h.RequestOTP(w, r)

	body := w.Body.String()
	if !strings.Contains(body, `name="otp"`) {
		t.Errorf("body missing otp input: %q", body)
	}
	if !strings.Contains(body, "424242") {
		t.Errorf("body missing demo code: %q", body)
	}
}

func TestLoginErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", api.ErrUnauthorized, "Invalid credentials"},
		{"backend message", &api.Error{Status: 422, Message: "Account locked"}, "Account locked"},
		{"opaque", errors.New("dial tcp: refused"), "Could not reach the server, try again"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loginErrorMessage(tt.err); got != tt.want {
				t.Errorf("loginErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
