package entity

import (
	"strconv"
	"time"
)

// Field bounds enforced on create and update.
const (
	MaxTitleLen  = 255
	MaxAuthorLen = 150
	MinYear      = 1000
)

// Book is a stored catalog record. The price is kept in minor units; use
// Present to obtain the client-facing view.
type Book struct {
	ID            int64     `db:"id"`
	Title         string    `db:"title"`
	Author        string    `db:"author"`
	PriceMinor    int64     `db:"price_minor"`
	YearPublished int       `db:"year_published"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Fields is the client input for create (all fields required) and update
// (only non-nil fields are applied). Price is in major units.
type Fields struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	Price         *float64 `json:"price"`
	YearPublished *int     `json:"yearPublished"`
}

// View is the JSON representation sent to clients.
type View struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Price          float64   `json:"price"`
	FormattedPrice string    `json:"formattedPrice"`
	YearPublished  int       `json:"yearPublished"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Present converts b for the presentation boundary.
func (b Book) Present() View {
	return View{
		ID:             strconv.FormatInt(b.ID, 10),
		Title:          b.Title,
		Author:         b.Author,
		Price:          ToMajorUnits(b.PriceMinor),
		FormattedPrice: FormatPrice(b.PriceMinor),
		YearPublished:  b.YearPublished,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}
