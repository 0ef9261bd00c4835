package models

import "time"

// Tariff is a purchasable bundle of minutes.
type Tariff struct {
	ID      string
	Name    string
	Minutes int
	// PriceCents is the price in minor currency units.
	PriceCents  int64
	Currency    string
	Description string
	IsPopular   bool
	IsActive    bool
}

// Payment records a purchase intent; settlement happens elsewhere.
type Payment struct {
	ID                string
	UserID            string
	TariffID          string
	AmountCents       int64
	Currency          string
	MinutesAdded      int
	TariffDescription string
	Status            PaymentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
