package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentGCash PaymentType = "gcash"
	PaymentMaya  PaymentType = "maya"
)

var paymentLabels = map[PaymentType]string{
	PaymentGCash: "GCash",
	PaymentMaya:  "Maya",
}

// ParsePaymentType defaults an empty value to GCash.
func ParsePaymentType(s string) (PaymentType, error) {
	if s == "" {
		return PaymentGCash, nil
	}
	p := PaymentType(s)
	if _, ok := paymentLabels[p]; !ok {
		return "", ErrInvalidPaymentType
	}
	return p, nil
}

func (p PaymentType) Label() string {
	if l, ok := paymentLabels[p]; ok {
		return l
	}
	return string(p)
}

type Order struct {
	ID           int64       `json:"id"`
	CustomerID   int64       `json:"customer_id"`
	ProductID    int64       `json:"product_id"`
	Quantity     int         `json:"quantity"`
	PaymentType  PaymentType `json:"payment_type"`
	Status       OrderStatus `json:"status"`
	Done         bool        `json:"done"`
	Cancelled    bool        `json:"cancelled"`
	CancelReason string      `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	DeliveredAt  *time.Time  `json:"delivered_at,omitempty"`
}

// IsCompleted is true for orders that count towards earnings.
func (o *Order) IsCompleted() bool {
	return o.Done && !o.Cancelled
}

// OrderLine is an order joined with the product fields analytics needs.
type OrderLine struct {
	Order
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
}

// Total is price times quantity.
func (l OrderLine) Total() decimal.Decimal {
	return l.ProductPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CancelResult separates the cancellation from the best-effort stock restore.
type CancelResult struct {
	Order         *Order `json:"order"`
	Cancelled     bool   `json:"cancelled"`
	StockRestored bool   `json:"stock_restored"`
}
