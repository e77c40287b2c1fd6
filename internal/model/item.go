package model

import "time"

var (
	Categories = []string{"Electronics", "Furniture", "Clothing", "Books", "Other"}
	Conditions = []string{"New", "Like New", "Good", "Fair", "Poor"}
	PriceUnits = []string{"day", "week", "month", "year"}
)

const DefaultPriceUnit = "day"

type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Images      []string  `json:"image"`
	Price       float64   `json:"price"`
	PriceUnit   string    `json:"priceUnit"`
	Condition   string    `json:"condition"`
	OwnerID     string    `json:"-"`
	Location    GeoPoint  `json:"location"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ItemView is an item with its owner populated, the shape every item
// endpoint responds with
type ItemView struct {
	Item
	Owner any `json:"owner"`
}

// View embeds the owner when it's known and falls back to the bare owner ID
func (i Item) View(owner *Owner) ItemView {
	if owner == nil {
		return ItemView{Item: i, Owner: i.OwnerID}
	}

	return ItemView{Item: i, Owner: owner}
}
