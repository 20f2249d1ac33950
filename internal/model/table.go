package model

// Table statuses as reported by the backend.
const (
	TableAvailable = "AVAILABLE"
	TableOccupied  = "OCCUPIED"
	TableReserved  = "RESERVED"
	TableCleaning  = "CLEANING"
)

type Table struct {
	ID            string  `json:"id"`
	RestaurantID  string  `json:"restaurantId"`
	TableNumber   string  `json:"tableNumber"`
	QRCode        string  `json:"qrCode,omitempty"`
	Capacity      int     `json:"capacity"`
	Status        string  `json:"status"`
	CurrentAmount float64 `json:"currentAmount"`
}
