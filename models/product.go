package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ProductTranslation struct {
	ProductID   int64  `json:"product_id"`
	Lang        string `json:"lang" binding:"required,min=2,max=10"`
	Name        string `json:"name" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"required,max=255"`
	Description string `json:"description"`
}

type LocalizedProduct = Localized[Product, ProductTranslation]

type CreateProductRequest struct {
	SKU           string               `json:"sku" binding:"required,max=64"`
	Price         decimal.Decimal      `json:"price"`
	StockQuantity int                  `json:"stock_quantity" binding:"gte=0"`
	CategoryID    *int64               `json:"category_id"`
	IsActive      *bool                `json:"is_active"`
	Translations  []ProductTranslation `json:"translations" binding:"required,min=1,dive"`
}

type UpdateProductRequest struct {
	Price      *decimal.Decimal `json:"price"`
	CategoryID *int64           `json:"category_id"`
	IsActive   *bool            `json:"is_active"`
}

// StockChange is the before/after snapshot of a single stock adjustment.
type StockChange struct {
	ProductID int64 `json:"product_id"`
	Before    int   `json:"before"`
	After     int   `json:"after"`
}

type StockItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type StockRequest struct {
	Quantity int `json:"quantity" form:"quantity" binding:"required,gt=0"`
}

type StockAvailability struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Available bool  `json:"available"`
}
