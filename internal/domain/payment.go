package domain

import (
	"time" // Payment date

	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM ORM library
)

// PaymentStatus is the outcome of a payment attempt
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"   // Awaiting gateway outcome
	PaymentCompleted PaymentStatus = "completed" // Funds received
	PaymentFailed    PaymentStatus = "failed"    // Gateway declined or needs action
)

// Payment methods recorded on the ledger
const (
	MethodStripe = "stripe"
)

// Payment Model
type Payment struct {
	Base
	LeaseID           uuid.UUID       `gorm:"type:char(36);not null;index" json:"lease_id"`       // Lease paid against
	Lease             *Lease          `gorm:"foreignKey:LeaseID" json:"lease,omitempty"`          // Preloaded on demand
	TenantID          uuid.UUID       `gorm:"type:char(36);not null;index" json:"tenant_id"`      // Paying tenant
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`          // Amount paid
	PaymentMethod     string          `gorm:"size:32;not null" json:"payment_method"`             // card, cash, stripe...
	Date              time.Time       `gorm:"not null;index" json:"date"`                         // When it was recorded
	Status            PaymentStatus   `gorm:"type:varchar(16);not null;index" json:"status"`      // Outcome
	ExternalReference *string         `gorm:"size:255;index" json:"external_reference,omitempty"` // Gateway reference, repeated across attempts
	SettledReference  *string         `gorm:"size:255;uniqueIndex" json:"-"`                      // external_reference while completed, else NULL
}

// BeforeSave derives SettledReference so a gateway charge is credited at most once
func (p *Payment) BeforeSave(tx *gorm.DB) error {
	p.SettledReference = nil
	if p.Status == PaymentCompleted && p.ExternalReference != nil {
		ref := *p.ExternalReference
		p.SettledReference = &ref
	}
	return nil
}

// BeforeUpdate keeps completed payments append-only
func (p *Payment) BeforeUpdate(tx *gorm.DB) error {
	if p.Status == PaymentCompleted {
		return ErrImmutablePayment
	}
	return nil
}

// MinorUnits converts an amount into integer cents
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts integer cents into an amount
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
