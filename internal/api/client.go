// Package api is the typed client for the backend REST API. Every piece of
// business logic — pricing, tax, status transitions, authentication — lives
// behind these calls; this client only shapes requests and decodes responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tabletap/internal/model"
)

// ErrUnauthorized is returned for 401 responses so callers can clear stored
// credentials and send staff pages back to the login screen.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-401 failure response decoded from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the backend API. The zero token string means an
// unauthenticated request; otherwise the token is sent as a bearer header.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend client. The base URL gets "/api" appended
// unless it already ends with it, so configuration may name either the host
// or the full API root without producing /api/api.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/api") {
		baseURL += "/api"
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		// Decode failure just leaves the message empty.
		json.NewDecoder(resp.Body).Decode(&errBody)
		msg := errBody.Error
		if msg == "" {
			msg = errBody.Message
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// --- Auth ---

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StaffLogin authenticates a back-office user and returns the bearer token
// plus profile issued by the backend.
func (c *Client) StaffLogin(ctx context.Context, req LoginRequest) (*model.StaffSession, error) {
	var resp model.StaffSession
	if err := c.do(ctx, http.MethodPost, "/auth/staff/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type OTPRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

// OTPResponse carries the demo OTP echoed back by the backend in
// non-production setups.
type OTPResponse struct {
	Message string `json:"message,omitempty"`
	OTP     string `json:"otp,omitempty"`
}

func (c *Client) RequestOTP(ctx context.Context, req OTPRequest) (*OTPResponse, error) {
	var resp OTPResponse
	if err := c.do(ctx, http.MethodPost, "/auth/customer/request-otp", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type OTPVerification struct {
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	OTP     string `json:"otp"`
	TableID string `json:"tableId"`
}

type otpVerifyResponse struct {
	SessionToken string         `json:"sessionToken"`
	Customer     model.Customer `json:"customer"`
}

// VerifyOTP exchanges a one-time code for a table-scoped customer session.
func (c *Client) VerifyOTP(ctx context.Context, req OTPVerification) (*model.CustomerSession, error) {
	var resp otpVerifyResponse
	if err := c.do(ctx, http.MethodPost, "/auth/customer/verify-otp", "", req, &resp); err != nil {
		return nil, err
	}
	return &model.CustomerSession{
		SessionToken: resp.SessionToken,
		Customer:     resp.Customer,
		TableID:      req.TableID,
	}, nil
}

// --- Restaurant & menu ---

func (c *Client) Restaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	var resp model.Restaurant
	if err := c.do(ctx, http.MethodGet, "/restaurants/"+id, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CustomerMenu fetches the customer-facing category tree (active items only).
func (c *Client) CustomerMenu(ctx context.Context, restaurantID string) ([]model.Category, error) {
	var resp []model.Category
	if err := c.do(ctx, http.MethodGet, "/menu/customer/"+restaurantID, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// RestaurantMenu fetches the full management view of the menu.
func (c *Client) RestaurantMenu(ctx context.Context, token, restaurantID string) ([]model.Category, error) {
	var resp []model.Category
	if err := c.do(ctx, http.MethodGet, "/menu/restaurant/"+restaurantID, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type CategoryInput struct {
	RestaurantID string `json:"restaurantId,omitempty"`
	Name         string `json:"name"`
	Icon         string `json:"icon,omitempty"`
	IsActive     bool   `json:"isActive"`
}

func (c *Client) CreateCategory(ctx context.Context, token string, in CategoryInput) (*model.Category, error) {
	var resp model.Category
	if err := c.do(ctx, http.MethodPost, "/menu/categories", token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateCategory(ctx context.Context, token, id string, in CategoryInput) (*model.Category, error) {
	var resp model.Category
	if err := c.do(ctx, http.MethodPatch, "/menu/categories/"+id, token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type MenuItemInput struct {
	RestaurantID   string  `json:"restaurantId,omitempty"`
	CategoryID     string  `json:"categoryId,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Price          float64 `json:"price"`
	Dietary        string  `json:"dietary"`
	IsCustomizable bool    `json:"isCustomizable"`
	IsActive       bool    `json:"isActive"`
}

func (c *Client) CreateMenuItem(ctx context.Context, token string, in MenuItemInput) (*model.MenuItem, error) {
	var resp model.MenuItem
	if err := c.do(ctx, http.MethodPost, "/menu/items", token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateMenuItem(ctx context.Context, token, id string, in MenuItemInput) (*model.MenuItem, error) {
	var resp model.MenuItem
	if err := c.do(ctx, http.MethodPatch, "/menu/items/"+id, token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteMenuItem(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/menu/items/"+id, token, nil, nil)
}

// --- Tables ---

func (c *Client) Tables(ctx context.Context, token, restaurantID string) ([]model.Table, error) {
	var resp []model.Table
	if err := c.do(ctx, http.MethodGet, "/tables/restaurant/"+restaurantID, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Table(ctx context.Context, token, id string) (*model.Table, error) {
	var resp model.Table
	if err := c.do(ctx, http.MethodGet, "/tables/"+id, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type TableInput struct {
	RestaurantID string `json:"restaurantId,omitempty"`
	TableNumber  string `json:"tableNumber"`
	Capacity     int    `json:"capacity"`
	Status       string `json:"status,omitempty"`
}

func (c *Client) CreateTable(ctx context.Context, token string, in TableInput) (*model.Table, error) {
	var resp model.Table
	if err := c.do(ctx, http.MethodPost, "/tables", token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateTable(ctx context.Context, token, id string, in TableInput) (*model.Table, error) {
	var resp model.Table
	if err := c.do(ctx, http.MethodPut, "/tables/"+id, token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteTable(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/tables/"+id, token, nil, nil)
}

// TableQR fetches the backend-generated QR code image (data URL) for a table.
func (c *Client) TableQR(ctx context.Context, token, id string) (string, error) {
	var resp struct {
		QRCode string `json:"qrCode"`
	}
	if err := c.do(ctx, http.MethodGet, "/tables/"+id+"/qr", token, nil, &resp); err != nil {
		return "", err
	}
	return resp.QRCode, nil
}

// --- Orders ---

type OrderItemInput struct {
	MenuItemID          string   `json:"menuItemId"`
	VariationID         string   `json:"variationId,omitempty"`
	Quantity            int      `json:"quantity"`
	AddonIDs            []string `json:"addonIds"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
}

type CreateOrderRequest struct {
	RestaurantID string           `json:"restaurantId"`
	TableID      string           `json:"tableId"`
	CustomerID   string           `json:"customerId"`
	Items        []OrderItemInput `json:"items"`
}

func (c *Client) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (*model.Order, error) {
	var resp model.Order
	if err := c.do(ctx, http.MethodPost, "/orders", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Order(ctx context.Context, token, id string) (*model.Order, error) {
	var resp model.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+id, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) OrdersByTable(ctx context.Context, token, tableID string) ([]model.Order, error) {
	var resp []model.Order
	if err := c.do(ctx, http.MethodGet, "/orders/table/"+tableID, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ActiveOrders(ctx context.Context, token, restaurantID string) ([]model.Order, error) {
	var resp []model.Order
	if err := c.do(ctx, http.MethodGet, "/orders/restaurant/"+restaurantID+"/active", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) OrderHistory(ctx context.Context, token, restaurantID string) ([]model.Order, error) {
	var resp []model.Order
	if err := c.do(ctx, http.MethodGet, "/orders/restaurant/"+restaurantID+"/history", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/orders/"+orderID+"/status", token, body, nil)
}

// CreateKOT asks the backend to cut a kitchen ticket for an order.
func (c *Client) CreateKOT(ctx context.Context, token, orderID string) (*model.KOT, error) {
	var resp model.KOT
	body := map[string]string{"orderId": orderID}
	if err := c.do(ctx, http.MethodPost, "/kots", token, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Billing ---

// ApplyDiscount posts a discount amount; tax and totals are recomputed
// server-side and the updated order comes back.
func (c *Client) ApplyDiscount(ctx context.Context, token, orderID string, amount float64) (*model.Order, error) {
	var resp model.Order
	body := map[string]any{"orderId": orderID, "discountAmount": amount}
	if err := c.do(ctx, http.MethodPost, "/billing/discount", token, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RecordPayment(ctx context.Context, token, orderID, method string) error {
	body := map[string]string{"orderId": orderID, "paymentMethod": method}
	return c.do(ctx, http.MethodPost, "/billing/payment", token, body, nil)
}

// --- Analytics ---

func (c *Client) Analytics(ctx context.Context, token, restaurantID string) (*model.AnalyticsSummary, error) {
	var resp model.AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/analytics/restaurant/"+restaurantID, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
