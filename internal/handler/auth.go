package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tabletap/internal/api"
	"tabletap/internal/auth"
	"tabletap/internal/store"
)

// AuthHandler serves staff login/logout and the customer OTP flow. Both
// identities attach to the browser session independently: logging out of the
// back office never disturbs a table visit in the same browser.
type AuthHandler struct {
	api      *api.Client
	sessions *store.SessionStore
	renderer *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(apiClient *api.Client, sessions *store.SessionStore, renderer *Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		api:      apiClient,
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
	}
}

func (h *AuthHandler) StaffLoginPage(w http.ResponseWriter, r *http.Request) {
	// An already authenticated browser goes straight to the dashboard.
	if sess, err := h.sessions.Staff(auth.SessionID(r.Context())); err == nil && sess != nil {
		http.Redirect(w, r, "/restaurant/dashboard", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, "staff_login.html", map[string]any{
		"Title": "Staff Login",
	})
}

func (h *AuthHandler) StaffLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Email and password are required"})
		return
	}

	sess, err := h.api.StaffLogin(r.Context(), api.LoginRequest{Email: email, Password: password})
	if err != nil {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": loginErrorMessage(err)})
		return
	}

	sessionID := auth.SessionID(r.Context())
	if err := h.sessions.SetStaff(sessionID, sess.Token, sess.User); err != nil {
		h.logger.Error("persist staff session", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("staff login", "staff", sess.User.ID, "restaurant", sess.User.RestaurantID)
	redirect(w, r, "/restaurant/dashboard")
}

func (h *AuthHandler) StaffLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionID(r.Context())
	if err := h.sessions.ClearStaff(sessionID); err != nil {
		h.logger.Error("clear staff session", "error", err)
	}
	redirect(w, r, "/restaurant/login")
}

// RequestOTP starts the customer identity flow for a table visit. In demo
// setups the backend echoes the code, which is surfaced on the form.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	phone := strings.TrimSpace(r.FormValue("phone"))
	name := strings.TrimSpace(r.FormValue("name"))
	if phone == "" {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Phone number is required"})
		return
	}

	resp, err := h.api.RequestOTP(r.Context(), api.OTPRequest{Phone: phone, Name: name})
	if err != nil {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": loginErrorMessage(err)})
		return
	}

	h.renderer.RenderPartial(w, "otp-verify-form", map[string]any{
		"RestaurantID": r.PathValue("restaurantId"),
		"TableID":      r.PathValue("tableId"),
		"Phone":        phone,
		"Name":         name,
		"DebugOTP":     resp.OTP,
	})
}

// VerifyOTP exchanges the code for a customer session bound to the table in
// the URL.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	restaurantID := r.PathValue("restaurantId")
	tableID := r.PathValue("tableId")

	sess, err := h.api.VerifyOTP(r.Context(), api.OTPVerification{
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Name:    strings.TrimSpace(r.FormValue("name")),
		OTP:     strings.TrimSpace(r.FormValue("otp")),
		TableID: tableID,
	})
	if err != nil {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": loginErrorMessage(err)})
		return
	}

	sessionID := auth.SessionID(r.Context())
	if err := h.sessions.SetCustomer(sessionID, *sess); err != nil {
		h.logger.Error("persist customer session", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("customer verified", "customer", sess.Customer.ID, "table", tableID)
	redirect(w, r, "/order/"+restaurantID+"/"+tableID)
}

// loginErrorMessage maps an API failure to the message shown on the form.
func loginErrorMessage(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return "Invalid credentials"
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Could not reach the server, try again"
}

// redirect is HTMX-aware: fragment requests get an HX-Redirect header, full
// page requests a 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
