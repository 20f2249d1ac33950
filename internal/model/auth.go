package model

// Staff roles as issued by the backend.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleWaiter  = "WAITER"
	RoleCashier = "CASHIER"
	RoleKitchen = "KITCHEN"
)

// Staff is the back-office user profile embedded in a login response.
type Staff struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurantId"`
	Restaurant   struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Logo string `json:"logo,omitempty"`
	} `json:"restaurant"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// StaffSession is the staff identity context held for one browser session.
type StaffSession struct {
	Token string `json:"token"`
	User  Staff  `json:"user"`
}

// CustomerSession is the table-visit identity context for one browser session.
// The session token's validity is controlled server-side; no expiry is
// enforced here.
type CustomerSession struct {
	SessionToken string   `json:"sessionToken"`
	Customer     Customer `json:"customer"`
	TableID      string   `json:"tableId"`
}
