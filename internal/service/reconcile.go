package service

import (
	"context" // Request scoped context

	"rental_system/internal/domain" // Importing domain models

	"github.com/google/uuid"     // UUID identifiers
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Association control
)

// DeletionReason is recorded on leases ended by a property removal
const DeletionReason = "property deleted by owner"

// DeleteProperty removes a property and settles everything that pointed at it in
// one transaction: open leases are terminated and tenants referencing any of
// its leases are released. Leases and payments are kept for history. Images are
// released only after the transaction commits.
func (s *Service) DeleteProperty(ctx context.Context, actor Actor, propertyID uuid.UUID) error {
	var (
		images     []string
		terminated []uuid.UUID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := loadOwnedProperty(tx, propertyID, actor)
		if err != nil {
			return err
		}
		images = property.Images

		if terminated, err = s.terminateOpenLeases(tx, property.ID); err != nil {
			return err
		}
		if err := releaseTenants(tx, property.ID); err != nil {
			return err
		}
		return tx.Delete(&domain.Property{}, "id = ?", property.ID).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"property_id": propertyID, "error": err.Error()}).Error("Property deletion failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"property_id":       propertyID,
		"leases_terminated": len(terminated),
		"images_released":   len(images),
	}).Info("Property deleted")

	s.releaseFiles(ctx, s.images, images)
	s.invalidateListings(ctx)
	return nil
}

// terminateOpenLeases ends every pending or active lease on the property
func (s *Service) terminateOpenLeases(tx *gorm.DB, propertyID uuid.UUID) ([]uuid.UUID, error) {
	var leases []domain.Lease
	if err := tx.Where("property_id = ? AND status IN ?", propertyID, []domain.LeaseStatus{domain.LeasePending, domain.LeaseActive}).Find(&leases).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(leases))
	now := s.now()
	for i := range leases {
		if err := leases[i].Transition(domain.LeaseTerminated, now, DeletionReason); err != nil {
			return nil, err
		}
		if err := tx.Omit(clause.Associations).Save(&leases[i]).Error; err != nil {
			return nil, err
		}
		ids = append(ids, leases[i].ID)
	}
	return ids, nil
}

// releaseTenants clears the current lease of every user pointing at a lease of the property
func releaseTenants(tx *gorm.DB, propertyID uuid.UUID) error {
	leases := tx.Model(&domain.Lease{}).Select("id").Where("property_id = ?", propertyID)
	return tx.Model(&domain.User{}).
		Where("current_lease_id IN (?)", leases).
		Update("current_lease_id", nil).Error
}
