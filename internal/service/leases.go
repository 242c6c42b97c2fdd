package service

import (
	"context"      // Request scoped context
	"crypto/rand"  // Placeholder passwords
	"encoding/hex" // Token encoding
	"errors"       // Error inspection
	"fmt"          // Error wrapping
	"net/mail"     // Email syntax check
	"strings"      // Input normalisation

	"rental_system/internal/domain" // Importing domain models
	"rental_system/internal/notify" // Message templates

	"github.com/google/uuid"     // UUID identifiers
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Association control
)

// normalizeEmail lowercases an address and checks its syntax
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	return email, nil
}

// randomToken returns n random bytes hex encoded
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// AssignTenant opens an active lease on the owner's property for the tenant with
// the given email, provisioning a tenant account when none exists
func (s *Service) AssignTenant(ctx context.Context, owner Actor, propertyID uuid.UUID, tenantEmail string) (*domain.User, *domain.Lease, error) {
	email, err := normalizeEmail(tenantEmail)
	if err != nil {
		return nil, nil, err
	}

	var (
		tenant   *domain.User
		property domain.Property
		lease    *domain.Lease
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", propertyID).First(&property).Error; err != nil {
			return missing(err, domain.ErrNotFoundOrForbidden, "property")
		}
		if property.OwnerID != owner.ID {
			return fmt.Errorf("%w: property is not owned by the requester", domain.ErrConflict)
		}

		var err error
		if tenant, err = findOrProvisionTenant(tx, email); err != nil {
			return err
		}
		lease, err = s.openLease(tx, tenant, &property)
		return err
	})
	if err != nil {
		return nil, nil, conflictOnDuplicate(err, "property or tenant already leased")
	}

	logrus.WithFields(logrus.Fields{
		"lease_id":    lease.ID,
		"property_id": property.ID,
		"tenant_id":   tenant.ID,
	}).Info("Tenant assigned")

	s.invalidateListings(ctx)
	s.invalidateUsers(ctx)
	s.notifyAsync(message{
		to:      tenant.Email,
		subject: notify.LeaseAssignedSubject,
		body:    notify.LeaseAssignedBody(tenant.Name, property.Address),
	})
	return tenant, lease, nil
}

// findOrProvisionTenant returns the tenant account for email, creating one with
// a placeholder name and an unusable random password when absent
func findOrProvisionTenant(tx *gorm.DB, email string) (*domain.User, error) {
	var user domain.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role != domain.RoleTenant {
			return nil, fmt.Errorf("%w: %s is not a tenant account", domain.ErrConflict, email)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	secret, err := randomToken(24)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = domain.User{
		Name:     strings.SplitN(email, "@", 2)[0], // Placeholder until the tenant edits it
		Email:    email,
		Password: string(hash),
		Role:     domain.RoleTenant,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RentProperty opens an active lease for the calling tenant
func (s *Service) RentProperty(ctx context.Context, tenant Actor, propertyID uuid.UUID) (*domain.Lease, error) {
	var lease *domain.Lease
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var property domain.Property
		if err := tx.Where("id = ?", propertyID).First(&property).Error; err != nil {
			return missing(err, domain.ErrNotFound, "property")
		}
		var user domain.User
		if err := tx.Where("id = ?", tenant.ID).First(&user).Error; err != nil {
			return missing(err, domain.ErrNotFound, "tenant")
		}
		var err error
		lease, err = s.openLease(tx, &user, &property)
		return err
	})
	if err != nil {
		return nil, conflictOnDuplicate(err, "property or tenant already leased")
	}

	logrus.WithFields(logrus.Fields{
		"lease_id":    lease.ID,
		"property_id": propertyID,
		"tenant_id":   tenant.ID,
	}).Info("Property rented")

	s.invalidateListings(ctx)
	return lease, nil
}

// openLease is the single lease creation path. It must run inside tx; the unique
// slot columns on leases back the checks below against concurrent writers.
func (s *Service) openLease(tx *gorm.DB, tenant *domain.User, property *domain.Property) (*domain.Lease, error) {
	var count int64
	if err := tx.Model(&domain.Lease{}).
		Where("property_id = ? AND status = ?", property.ID, domain.LeaseActive).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: property already has an active lease", domain.ErrConflict)
	}
	if err := tx.Model(&domain.Lease{}).
		Where("tenant_id = ? AND status IN ?", tenant.ID, []domain.LeaseStatus{domain.LeasePending, domain.LeaseActive}).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: tenant already holds an open lease", domain.ErrConflict)
	}

	lease := domain.NewLease(tenant.ID, property.ID, property.Price, s.now())
	if err := tx.Omit(clause.Associations).Create(lease).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&domain.Property{}).Where("id = ?", property.ID).Update("available", false).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&domain.User{}).Where("id = ?", tenant.ID).Update("current_lease_id", lease.ID).Error; err != nil {
		return nil, err
	}
	property.Available = false
	tenant.CurrentLeaseID = &lease.ID
	return lease, nil
}

// UpdateLeaseStatus moves a lease through its lifecycle. Only the property owner
// or an admin may do so; ending a lease frees the property and the tenant.
func (s *Service) UpdateLeaseStatus(ctx context.Context, actor Actor, leaseID uuid.UUID, next domain.LeaseStatus, reason string) (*domain.Lease, error) {
	var lease domain.Lease
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", leaseID).First(&lease).Error; err != nil {
			return missing(err, domain.ErrNotFound, "lease")
		}
		if !actor.IsAdmin() {
			var owned int64
			if err := tx.Model(&domain.Property{}).
				Where("id = ? AND owner_id = ?", lease.PropertyID, actor.ID).
				Count(&owned).Error; err != nil {
				return err
			}
			if owned == 0 {
				return fmt.Errorf("%w: lease", domain.ErrNotFoundOrForbidden)
			}
		}

		if err := lease.Transition(next, s.now(), strings.TrimSpace(reason)); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&lease).Error; err != nil {
			return err
		}

		switch {
		case next == domain.LeaseActive:
			return tx.Model(&domain.Property{}).Where("id = ?", lease.PropertyID).Update("available", false).Error
		case next.Terminal():
			if err := tx.Model(&domain.Property{}).Where("id = ?", lease.PropertyID).Update("available", true).Error; err != nil {
				return err
			}
			return tx.Model(&domain.User{}).
				Where("id = ? AND current_lease_id = ?", lease.TenantID, lease.ID).
				Update("current_lease_id", nil).Error
		}
		return nil
	})
	if err != nil {
		return nil, conflictOnDuplicate(err, "property already has an active lease")
	}

	logrus.WithFields(logrus.Fields{
		"lease_id": lease.ID,
		"status":   lease.Status,
		"actor_id": actor.ID,
	}).Info("Lease status updated")

	s.invalidateListings(ctx)
	return &lease, nil
}

// CurrentLease returns the caller's open lease with its property
func (s *Service) CurrentLease(ctx context.Context, tenant Actor) (*domain.Lease, error) {
	var lease domain.Lease
	err := s.db.WithContext(ctx).Preload("Property").
		Where("tenant_id = ? AND status IN ?", tenant.ID, []domain.LeaseStatus{domain.LeasePending, domain.LeaseActive}).
		First(&lease).Error
	if err != nil {
		return nil, missing(err, domain.ErrNotFound, "current lease")
	}
	return &lease, nil
}

// LeasesForOwner lists every lease on the owner's properties, newest first
func (s *Service) LeasesForOwner(ctx context.Context, owner Actor) ([]domain.Lease, error) {
	leases := []domain.Lease{}
	owned := s.db.WithContext(ctx).Model(&domain.Property{}).Select("id").Where("owner_id = ?", owner.ID)
	err := s.db.WithContext(ctx).Preload("Tenant").Preload("Property").
		Where("property_id IN (?)", owned).
		Order("created_at desc").
		Find(&leases).Error
	return leases, err
}

// leaseFor loads a lease with its parties and checks the actor is one of them
func (s *Service) leaseFor(ctx context.Context, actor Actor, leaseID uuid.UUID) (*domain.Lease, error) {
	var lease domain.Lease
	if err := s.db.WithContext(ctx).Preload("Tenant").Preload("Property").First(&lease, "id = ?", leaseID).Error; err != nil {
		return nil, missing(err, domain.ErrNotFound, "lease")
	}
	switch {
	case actor.IsAdmin(), lease.TenantID == actor.ID:
	case lease.Property != nil && lease.Property.OwnerID == actor.ID:
	default:
		return nil, fmt.Errorf("%w: lease", domain.ErrNotFoundOrForbidden)
	}
	return &lease, nil
}

// GenerateAgreement renders the lease document and returns its location
func (s *Service) GenerateAgreement(ctx context.Context, actor Actor, leaseID uuid.UUID) (string, error) {
	if s.agreements == nil {
		return "", errors.New("agreement renderer not configured")
	}
	lease, err := s.leaseFor(ctx, actor, leaseID)
	if err != nil {
		return "", err
	}
	if lease.Property == nil || lease.Tenant == nil {
		return "", fmt.Errorf("%w: lease parties no longer exist", domain.ErrNotFound)
	}
	path, err := s.agreements.Render(ctx, lease)
	if err != nil {
		return "", err
	}
	logrus.WithField("lease_id", lease.ID).Info("Lease agreement generated")
	return path, nil
}

// FetchAgreement returns the location of a previously rendered agreement
func (s *Service) FetchAgreement(ctx context.Context, actor Actor, leaseID uuid.UUID) (string, error) {
	if s.agreements == nil {
		return "", errors.New("agreement renderer not configured")
	}
	if _, err := s.leaseFor(ctx, actor, leaseID); err != nil {
		return "", err
	}
	path, ok := s.agreements.Locate(leaseID)
	if !ok {
		return "", fmt.Errorf("%w: agreement not generated", domain.ErrNotFound)
	}
	return path, nil
}
