package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// CustomProductPrefix marks products materialized from a custom bracelet design.
const CustomProductPrefix = "Custom: "

const (
	// MaxNameLength bounds user-entered product and design names.
	MaxNameLength = 100
	// MaxProductNameLength leaves room for CustomProductPrefix on a design name.
	MaxProductNameLength = len(CustomProductPrefix) + MaxNameLength
)

type SellerProfile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	SellerID  int64           `json:"seller_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// ValidProductName reports whether name fits the stored product name column.
func ValidProductName(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= MaxProductNameLength
}

// IsCustom reports whether the product was created from a bracelet design.
func (p *Product) IsCustom() bool {
	return strings.HasPrefix(p.Name, CustomProductPrefix)
}

// DesignName returns the design name a custom product was created from.
func (p *Product) DesignName() string {
	return strings.TrimPrefix(p.Name, CustomProductPrefix)
}
