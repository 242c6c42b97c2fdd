package service

import (
	"context" // Request scoped context
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // Input trimming

	"rental_system/internal/domain"  // Importing domain models
	"rental_system/internal/gateway" // Payment gateway collaborator

	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Money amounts
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// Metadata keys attached to gateway charges
const (
	MetaLeaseID  = "lease_id"
	MetaTenantID = "tenant_id"
)

// activeLeaseOf returns the tenant's active lease
func activeLeaseOf(tx *gorm.DB, tenantID uuid.UUID) (*domain.Lease, error) {
	var lease domain.Lease
	if err := tx.Where("tenant_id = ? AND status = ?", tenantID, domain.LeaseActive).First(&lease).Error; err != nil {
		return nil, missing(err, domain.ErrNoActiveLease, "tenant")
	}
	return &lease, nil
}

// RecordPayment appends a completed payment against the caller's active lease
func (s *Service) RecordPayment(ctx context.Context, tenant Actor, leaseID uuid.UUID, amount decimal.Decimal, method string) (*domain.Payment, error) {
	method = strings.TrimSpace(method)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrValidation)
	}

	var payment domain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lease domain.Lease
		if err := tx.Where("id = ?", leaseID).First(&lease).Error; err != nil {
			return missing(err, domain.ErrInvalidLease, "lease")
		}
		if lease.Status != domain.LeaseActive || lease.TenantID != tenant.ID {
			return domain.ErrInvalidLease
		}
		payment = domain.Payment{
			LeaseID:       lease.ID,
			TenantID:      lease.TenantID,
			Amount:        amount.Round(2),
			PaymentMethod: method,
			Date:          s.now(),
			Status:        domain.PaymentCompleted,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"lease_id":   payment.LeaseID,
		"amount":     payment.Amount.StringFixed(2),
	}).Info("Payment recorded")

	s.invalidateListings(ctx)
	return &payment, nil
}

// InitiateCharge asks the gateway for a charge against the caller's active lease.
// No ledger entry is written until the charge is confirmed.
func (s *Service) InitiateCharge(ctx context.Context, tenant Actor, amount decimal.Decimal) (gateway.ChargeIntent, error) {
	if !amount.IsPositive() {
		return gateway.ChargeIntent{}, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	lease, err := activeLeaseOf(s.db.WithContext(ctx), tenant.ID)
	if err != nil {
		return gateway.ChargeIntent{}, err
	}

	gctx, cancel := context.WithTimeout(ctx, GatewayTimeout)
	defer cancel()
	intent, err := s.gateway.CreateChargeIntent(gctx, domain.MinorUnits(amount), map[string]string{
		MetaLeaseID:  lease.ID.String(),
		MetaTenantID: tenant.ID.String(),
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"lease_id": lease.ID, "error": err.Error()}).Error("Charge initiation failed")
		return gateway.ChargeIntent{}, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	logrus.WithFields(logrus.Fields{"lease_id": lease.ID, "reference": intent.Reference}).Info("Charge initiated")
	return intent, nil
}

// ConfirmCharge records the outcome of a gateway charge. The amount is taken
// from the gateway, never the client. Once a reference is completed, further
// confirmations return that record; until then every confirmation asks the
// gateway again and appends a new attempt.
func (s *Service) ConfirmCharge(ctx context.Context, actor Actor, reference string) (*domain.Payment, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", domain.ErrValidation)
	}
	settled, err := s.settledPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if settled != nil {
		if !actor.IsAdmin() && settled.TenantID != actor.ID {
			return nil, fmt.Errorf("%w: payment", domain.ErrNotFoundOrForbidden)
		}
		return settled, nil
	}

	gctx, cancel := context.WithTimeout(ctx, GatewayTimeout)
	defer cancel()
	charge, err := s.gateway.RetrieveCharge(gctx, reference)
	if err != nil {
		logrus.WithFields(logrus.Fields{"reference": reference, "error": err.Error()}).Error("Charge lookup failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	leaseID, err := uuid.Parse(charge.Metadata[MetaLeaseID])
	if err != nil {
		return nil, fmt.Errorf("%w: charge carries no lease", domain.ErrGateway)
	}
	tenantID, err := uuid.Parse(charge.Metadata[MetaTenantID])
	if err != nil {
		return nil, fmt.Errorf("%w: charge carries no tenant", domain.ErrGateway)
	}
	if !actor.IsAdmin() && tenantID != actor.ID {
		return nil, fmt.Errorf("%w: payment", domain.ErrNotFoundOrForbidden)
	}

	status := domain.PaymentFailed
	if charge.Status == gateway.StatusSucceeded {
		status = domain.PaymentCompleted
	}
	payment := domain.Payment{
		LeaseID:           leaseID,
		TenantID:          tenantID,
		Amount:            domain.FromMinorUnits(charge.AmountMinor),
		PaymentMethod:     domain.MethodStripe,
		Date:              s.now(),
		Status:            status,
		ExternalReference: &reference,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.settledPayment(ctx, reference) // Lost a race with another confirmation
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"reference":  reference,
		"status":     payment.Status,
		"amount":     payment.Amount.StringFixed(2),
	}).Info("Charge confirmed")

	s.invalidateListings(ctx)
	return &payment, nil
}

// settledPayment returns the completed payment for a reference, or nil when there is none yet
func (s *Service) settledPayment(ctx context.Context, reference string) (*domain.Payment, error) {
	var payment domain.Payment
	res := s.db.WithContext(ctx).
		Where("settled_reference = ?", reference).
		Limit(1).Find(&payment)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil // Expected on a first confirmation
	}
	return &payment, nil
}

// History lists the payments of a lease, newest first. Unknown or malformed ids are not found.
func (s *Service) History(ctx context.Context, actor Actor, rawLeaseID string) ([]domain.Payment, error) {
	leaseID, err := domain.ParseID(rawLeaseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.leaseFor(ctx, actor, leaseID); err != nil {
		return nil, err
	}
	payments := []domain.Payment{}
	err = s.db.WithContext(ctx).Where("lease_id = ?", leaseID).Order("date desc").Find(&payments).Error
	return payments, err
}

// Balance is completed payments on the active lease minus the rent accrued
// for whole months since it started. Negative means arrears.
func (s *Service) Balance(ctx context.Context, tenant Actor) (decimal.Decimal, error) {
	lease, err := activeLeaseOf(s.db.WithContext(ctx), tenant.ID)
	if err != nil {
		return decimal.Zero, err
	}
	var amounts []decimal.Decimal
	if err := s.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("lease_id = ? AND status = ?", lease.ID, domain.PaymentCompleted).
		Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...).Sub(lease.AccruedRent(s.now())), nil
}

// OwnerPayments lists payments received on the owner's active leases
func (s *Service) OwnerPayments(ctx context.Context, owner Actor) ([]domain.Payment, error) {
	payments := []domain.Payment{}
	leases := s.db.WithContext(ctx).Model(&domain.Lease{}).Select("leases.id").
		Joins("JOIN properties ON properties.id = leases.property_id").
		Where("properties.owner_id = ? AND leases.status = ?", owner.ID, domain.LeaseActive)
	err := s.db.WithContext(ctx).
		Preload("Lease.Tenant").Preload("Lease.Property").
		Where("lease_id IN (?)", leases).
		Order("date desc").
		Find(&payments).Error
	return payments, err
}

// PaymentFilter narrows the admin payment listing
type PaymentFilter struct {
	Status   domain.PaymentStatus // Empty for any
	TenantID *uuid.UUID           // Nil for any
	Page     int                  // 1 based
	Limit    int                  // Page size
}

// ListPayments pages through every payment for administrators
func (s *Service) ListPayments(ctx context.Context, f PaymentFilter) ([]domain.Payment, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Payment{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.TenantID != nil {
		q = q.Where("tenant_id = ?", *f.TenantID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := pageBounds(f.Page, f.Limit)
	payments := []domain.Payment{}
	err := q.Order("date desc").Offset((page - 1) * limit).Limit(limit).Find(&payments).Error
	return payments, total, err
}

// pageBounds clamps paging parameters
func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
