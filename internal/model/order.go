package model

import "time"

// Order statuses as reported by the backend.
const (
	OrderPending   = "PENDING"
	OrderConfirmed = "CONFIRMED"
	OrderPreparing = "PREPARING"
	OrderReady     = "READY"
	OrderServed    = "SERVED"
	OrderCancelled = "CANCELLED"
)

// KOT statuses (kitchen order ticket lifecycle).
const (
	KOTPending   = "PENDING"
	KOTPrinted   = "PRINTED"
	KOTPreparing = "PREPARING"
	KOTReady     = "READY"
	KOTServed    = "SERVED"
)

// Payment fields.
const (
	PaymentUnpaid = "UNPAID"
	PaymentPaid   = "PAID"

	PayCash = "CASH"
	PayCard = "CARD"
	PayUPI  = "UPI"
)

type Order struct {
	ID                  string      `json:"id"`
	RestaurantID        string      `json:"restaurantId"`
	TableID             string      `json:"tableId"`
	CustomerID          string      `json:"customerId"`
	OrderNumber         string      `json:"orderNumber"`
	Status              string      `json:"status"`
	Subtotal            float64     `json:"subtotal"`
	Discount            float64     `json:"discount"`
	TaxAmount           float64     `json:"taxAmount"`
	TotalAmount         float64     `json:"totalAmount"`
	PaymentStatus       string      `json:"paymentStatus"`
	PaymentMethod       string      `json:"paymentMethod,omitempty"`
	SpecialInstructions string      `json:"specialInstructions,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
	Items               []OrderItem `json:"items"`
	Customer            *Customer   `json:"customer,omitempty"`
	Table               *Table      `json:"table,omitempty"`
	KOTs                []KOT       `json:"kots,omitempty"`
}

type OrderItem struct {
	ID                  string     `json:"id"`
	OrderID             string     `json:"orderId"`
	MenuItemID          string     `json:"menuItemId"`
	VariationID         string     `json:"variationId,omitempty"`
	Quantity            int        `json:"quantity"`
	Price               float64    `json:"price"`
	TotalPrice          float64    `json:"totalPrice"`
	AddonIDs            []string   `json:"addonIds,omitempty"`
	Addons              []Addon    `json:"addons,omitempty"`
	SpecialInstructions string     `json:"specialInstructions,omitempty"`
	MenuItem            MenuItem   `json:"menuItem"`
	Variation           *Variation `json:"variation,omitempty"`
}

type KOT struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"orderId"`
	KOTNumber   string     `json:"kotNumber"`
	Status      string     `json:"status"`
	PrintedAt   *time.Time `json:"printedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AnalyticsSummary is the dashboard stats projection served by the backend.
type AnalyticsSummary struct {
	TotalOrders  int     `json:"totalOrders"`
	ActiveTables int     `json:"activeTables"`
	TodayRevenue float64 `json:"todayRevenue"`
}
