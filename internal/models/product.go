package models

import "time"

// Product is a catalog item. Its price is set by catalog admins and is
// independent of the live gold price. StockQuantity is never negative and is
// only mutated inside a committed order transaction.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	NameEN        string    `json:"name_en"`
	Description   string    `json:"description,omitempty"`
	DescriptionEN string    `json:"description_en,omitempty"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	GoldKarat     Karat     `json:"gold_karat,omitempty"`
	Weight        float64   `json:"weight,omitempty"`
	StockQuantity int       `json:"stock_quantity"`
	IsFeatured    bool      `json:"is_featured"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
