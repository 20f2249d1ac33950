package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestBasePathNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:5000", "http://localhost:5000/api"},
		{"http://localhost:5000/", "http://localhost:5000/api"},
		{"http://localhost:5000/api", "http://localhost:5000/api"},
		{"http://localhost:5000/api/", "http://localhost:5000/api"},
	}
	for _, tc := range cases {
		c := NewClient(tc.in, discardLogger())
		if c.BaseURL() != tc.want {
			t.Errorf("NewClient(%q).BaseURL() = %q, want %q", tc.in, c.BaseURL(), tc.want)
		}
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]any{})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, discardLogger())
	if _, err := c.Tables(context.Background(), "tok-123", "rest-1"); err != nil {
		t.Fatalf("tables: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
}

func TestNoBearerWhenTokenEmpty(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]any{})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, discardLogger())
	if _, err := c.CustomerMenu(context.Background(), "rest-1"); err != nil {
		t.Fatalf("customer menu: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, discardLogger())
	_, err := c.ActiveOrders(context.Background(), "stale", "rest-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestValidationErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "table number already exists"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, discardLogger())
	_, err := c.CreateTable(context.Background(), "tok", TableInput{TableNumber: "1"})

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
	if apiErr.Message != "table number already exists" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "order not found"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, discardLogger())
	_, err := c.Order(context.Background(), "tok", "order-x")
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("404 must not map to ErrUnauthorized")
	}
}

func TestStaffLoginDecodesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/staff/login" {
			t.Errorf("path = %q, want /api/auth/staff/login", r.URL.Path)
		}
		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "a@b.c" {
			t.Errorf("email = %q", req.Email)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "T1",
			"user": map[string]any{
				"id": "staff-1", "name": "Asha", "role": "MANAGER", "restaurantId": "rest-1",
			},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, discardLogger())
	sess, err := c.StaffLogin(context.Background(), LoginRequest{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token != "T1" || sess.User.RestaurantID != "rest-1" {
		t.Errorf("session = %+v", sess)
	}
}

func TestVerifyOTPBindsTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sessionToken": "S1",
			"customer":     map[string]any{"id": "cust-1", "name": "Ravi", "phone": "9999"},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, discardLogger())
	sess, err := c.VerifyOTP(context.Background(), OTPVerification{Phone: "9999", Name: "Ravi", OTP: "123456", TableID: "table-7"})
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if sess.TableID != "table-7" {
		t.Errorf("table id = %q, want table-7", sess.TableID)
	}
	if sess.SessionToken != "S1" || sess.Customer.ID != "cust-1" {
		t.Errorf("session = %+v", sess)
	}
}
