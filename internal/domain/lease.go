package domain

import (
	"fmt"  // Error formatting
	"time" // Lease dates

	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM ORM library
)

// LeaseStatus is the lifecycle state of a lease
type LeaseStatus string

const (
	LeasePending    LeaseStatus = "pending"    // Initiated, not yet in force
	LeaseActive     LeaseStatus = "active"     // In force, property occupied
	LeaseCompleted  LeaseStatus = "completed"  // Ran to term
	LeaseTerminated LeaseStatus = "terminated" // Ended early
)

// leaseTransitions lists the allowed next states for every non-terminal state
var leaseTransitions = map[LeaseStatus][]LeaseStatus{
	LeasePending: {LeaseActive, LeaseTerminated},
	LeaseActive:  {LeaseCompleted, LeaseTerminated},
}

// Valid reports whether s is a known status
func (s LeaseStatus) Valid() bool {
	switch s {
	case LeasePending, LeaseActive, LeaseCompleted, LeaseTerminated:
		return true
	}
	return false
}

// Open reports whether the lease still binds its tenant
func (s LeaseStatus) Open() bool {
	return s == LeasePending || s == LeaseActive
}

// Terminal reports whether no further transitions are possible
func (s LeaseStatus) Terminal() bool {
	return s == LeaseCompleted || s == LeaseTerminated
}

// CanTransitionTo reports whether s may move to next
func (s LeaseStatus) CanTransitionTo(next LeaseStatus) bool {
	for _, allowed := range leaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LeaseTerm is the length of a newly opened lease
const LeaseTerm = 1 // years

// Lease Model
type Lease struct {
	Base
	TenantID          uuid.UUID       `gorm:"type:char(36);not null;index" json:"tenant_id"`   // Tenant user
	Tenant            *User           `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`     // Preloaded on demand
	PropertyID        uuid.UUID       `gorm:"type:char(36);not null;index" json:"property_id"` // Leased property
	Property          *Property       `gorm:"foreignKey:PropertyID" json:"property,omitempty"` // Preloaded on demand
	StartDate         time.Time       `gorm:"not null" json:"start_date"`                      // Start of tenancy
	EndDate           time.Time       `gorm:"not null" json:"end_date"`                        // Scheduled or actual end
	RentAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"rent_amount"`  // Monthly rent
	Status            LeaseStatus     `gorm:"type:varchar(16);not null;index" json:"status"`   // Lifecycle state
	TerminationReason string          `gorm:"size:255" json:"termination_reason,omitempty"`    // Set on termination
	ActivePropertyID  *uuid.UUID      `gorm:"type:char(36);uniqueIndex" json:"-"`              // property_id while active, else NULL
	OpenTenantID      *uuid.UUID      `gorm:"type:char(36);uniqueIndex" json:"-"`              // tenant_id while pending or active, else NULL
}

// NewLease builds an active lease of one term starting at now
func NewLease(tenantID, propertyID uuid.UUID, rent decimal.Decimal, now time.Time) *Lease {
	return &Lease{
		TenantID:   tenantID,
		PropertyID: propertyID,
		StartDate:  now,
		EndDate:    now.AddDate(LeaseTerm, 0, 0),
		RentAmount: rent,
		Status:     LeaseActive,
	}
}

// Transition moves the lease to next, stamping the end date on termination
func (l *Lease) Transition(next LeaseStatus, now time.Time, reason string) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if !l.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, next)
	}
	l.Status = next
	if next == LeaseTerminated {
		l.EndDate = now
		l.TerminationReason = reason
	}
	l.syncSlots()
	return nil
}

// syncSlots derives the uniqueness columns from the current status
func (l *Lease) syncSlots() {
	l.ActivePropertyID = nil
	l.OpenTenantID = nil
	if l.Status == LeaseActive {
		pid := l.PropertyID
		l.ActivePropertyID = &pid
	}
	if l.Status.Open() {
		tid := l.TenantID
		l.OpenTenantID = &tid
	}
}

// BeforeSave keeps the uniqueness columns in step with Status on create and save
func (l *Lease) BeforeSave(tx *gorm.DB) error {
	l.syncSlots()
	return nil
}

// WholeMonthsBetween counts the full calendar months from start to end
func WholeMonthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if start.AddDate(0, months, 0).After(end) {
		months-- // anniversary not reached yet this month
	}
	return months
}

// AccruedRent is the rent owed from the start of the lease to now
func (l *Lease) AccruedRent(now time.Time) decimal.Decimal {
	return l.RentAmount.Mul(decimal.NewFromInt(int64(WholeMonthsBetween(l.StartDate, now))))
}
