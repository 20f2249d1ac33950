package model

// Dietary classification used for menu filtering.
const (
	DietaryVeg    = "VEG"
	DietaryNonVeg = "NON_VEG"
	DietaryVegan  = "VEGAN"
)

type Category struct {
	ID           string     `json:"id"`
	RestaurantID string     `json:"restaurantId"`
	Name         string     `json:"name"`
	Icon         string     `json:"icon,omitempty"`
	SortOrder    int        `json:"sortOrder"`
	IsActive     bool       `json:"isActive"`
	MenuItems    []MenuItem `json:"menuItems,omitempty"`
}

type MenuItem struct {
	ID             string      `json:"id"`
	RestaurantID   string      `json:"restaurantId"`
	CategoryID     string      `json:"categoryId"`
	Name           string      `json:"name"`
	ShortCode      string      `json:"shortCode,omitempty"`
	Description    string      `json:"description,omitempty"`
	Price          float64     `json:"price"`
	Image          string      `json:"image,omitempty"`
	Dietary        string      `json:"dietary"`
	IsCustomizable bool        `json:"isCustomizable"`
	IsActive       bool        `json:"isActive"`
	Variations     []Variation `json:"variations,omitempty"`
	Addons         []Addon     `json:"addons,omitempty"`
}

type Variation struct {
	ID         string  `json:"id"`
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	IsActive   bool    `json:"isActive"`
}

type Addon struct {
	ID         string  `json:"id"`
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	IsActive   bool    `json:"isActive"`
}

type Restaurant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	GSTNumber   string `json:"gstNumber,omitempty"`
	FSSAINumber string `json:"fssaiNumber,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}
