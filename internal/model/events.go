package model

// Names of events carried on the backend's real-time channel.
const (
	EventNewOrder           = "newOrder"
	EventOrderStatusUpdated = "orderStatusUpdated"
	EventKOTStatusUpdated   = "kotStatusUpdated"
	EventTableStatusUpdated = "tableStatusUpdated"
	EventBillRequested      = "billRequested"
)

// OrderStatusEvent is the lightweight payload of orderStatusUpdated. Only the
// status field of the matching order may be patched from it.
type OrderStatusEvent struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// KOTStatusEvent is the payload of kotStatusUpdated.
type KOTStatusEvent struct {
	KOTID  string `json:"kotId"`
	Status string `json:"status"`
}

// TableStatusEvent is the payload of tableStatusUpdated.
type TableStatusEvent struct {
	TableID string `json:"tableId"`
	Status  string `json:"status"`
}

// BillRequestEvent is emitted by a customer and consumed on the staff side.
type BillRequestEvent struct {
	TableID string `json:"tableId"`
}
