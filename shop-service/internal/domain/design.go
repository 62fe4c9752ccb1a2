package domain

import "time"

const (
	MinDesignBeads = 15
	MaxDesignBeads = 25
)

type Bead struct {
	Shape  string `json:"shape"`
	Color  string `json:"color"`
	Size   string `json:"size"`
	Letter string `json:"letter,omitempty"`
}

type CustomBraceletDesign struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Beads      []Bead    `json:"beads"`
	CustomerID int64     `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
}
