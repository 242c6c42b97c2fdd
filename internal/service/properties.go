package service

import (
	"context" // Request scoped context
	"fmt"     // Error wrapping
	"strings" // Input trimming

	"rental_system/internal/domain" // Importing domain models
	"rental_system/internal/notify" // Message templates
	"rental_system/internal/utils"  // Cache helpers

	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Money amounts
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/datatypes"             // JSON columns
	"gorm.io/gorm"                  // GORM ORM library
)

// PropertyInput is the editable part of a listing
type PropertyInput struct {
	Title       string
	Address     string
	Price       string
	Description string
}

func (in PropertyInput) validate() (decimal.Decimal, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.Price) == "" {
		return decimal.Zero, fmt.Errorf("%w: title, address and price are required", domain.ErrValidation)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price must be numeric", domain.ErrValidation)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}
	return price, nil
}

func checkImageCount(images []Upload) error {
	if len(images) > domain.MaxPropertyImages {
		return fmt.Errorf("%w: at most %d images per property", domain.ErrValidation, domain.MaxPropertyImages)
	}
	return nil
}

// CreateProperty registers an available listing and tells every tenant about it
func (s *Service) CreateProperty(ctx context.Context, owner Actor, in PropertyInput, images []Upload) (*domain.Property, error) {
	price, err := in.validate()
	if err != nil {
		return nil, err
	}
	if err := checkImageCount(images); err != nil {
		return nil, err
	}
	paths, err := s.storeFiles(ctx, s.images, images)
	if err != nil {
		return nil, err
	}

	property := &domain.Property{
		OwnerID:     owner.ID,
		Title:       strings.TrimSpace(in.Title),
		Address:     strings.TrimSpace(in.Address),
		Price:       price,
		Description: strings.TrimSpace(in.Description),
		Images:      datatypes.JSONSlice[string](paths),
		Available:   true,
	}
	if err := s.db.WithContext(ctx).Create(property).Error; err != nil {
		s.releaseFiles(ctx, s.images, paths) // Nothing references them now
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"property_id": property.ID,
		"owner_id":    owner.ID,
	}).Info("Property created")

	s.invalidateListings(ctx)
	s.announceProperty(ctx, property)
	return property, nil
}

// announceProperty queues a new listing email to every tenant
func (s *Service) announceProperty(ctx context.Context, p *domain.Property) {
	var tenants []domain.User
	if err := s.db.WithContext(ctx).Select("name", "email").Where("role = ?", domain.RoleTenant).Find(&tenants).Error; err != nil {
		logrus.WithError(err).Warn("Failed to load tenants for announcement")
		return
	}
	msgs := make([]message, 0, len(tenants))
	for _, t := range tenants {
		msgs = append(msgs, message{
			to:      t.Email,
			subject: notify.NewPropertySubject,
			body:    notify.NewPropertyBody(t.Name, p.Title, p.Address, p.Price.StringFixed(2), p.Description),
		})
	}
	s.notifyAsync(msgs...)
}

// ListAvailable returns every available property, newest first
func (s *Service) ListAvailable(ctx context.Context) ([]domain.Property, error) {
	var properties []domain.Property
	if hit, err := utils.GetCache(ctx, s.rdb, utils.AvailablePropertiesKey, &properties); err != nil {
		logrus.WithError(err).Warn("Listing cache read failed")
	} else if hit {
		return properties, nil
	}

	properties = []domain.Property{}
	if err := s.db.WithContext(ctx).Where("available = ?", true).Order("created_at desc").Find(&properties).Error; err != nil {
		return nil, err
	}
	if err := utils.SetCache(ctx, s.rdb, utils.AvailablePropertiesKey, properties, utils.CacheTTL); err != nil {
		logrus.WithError(err).Warn("Listing cache write failed")
	}
	return properties, nil
}

// ListForOwner returns the owner's properties with availability derived from active leases
func (s *Service) ListForOwner(ctx context.Context, owner Actor) ([]domain.Property, error) {
	properties := []domain.Property{}
	if err := s.db.WithContext(ctx).Where("owner_id = ?", owner.ID).Order("created_at desc").Find(&properties).Error; err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return properties, nil
	}

	ids := make([]uuid.UUID, len(properties))
	for i, p := range properties {
		ids[i] = p.ID
	}
	var leased []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&domain.Lease{}).
		Where("property_id IN ? AND status = ?", ids, domain.LeaseActive).
		Pluck("property_id", &leased).Error; err != nil {
		return nil, err
	}
	occupied := make(map[uuid.UUID]bool, len(leased))
	for _, id := range leased {
		occupied[id] = true
	}
	for i := range properties {
		properties[i].Available = !occupied[properties[i].ID]
	}
	return properties, nil
}

// GetProperty returns a single listing with its owner
func (s *Service) GetProperty(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	var property domain.Property
	if err := s.db.WithContext(ctx).Preload("Owner").First(&property, "id = ?", id).Error; err != nil {
		return nil, missing(err, domain.ErrNotFound, "property")
	}
	return &property, nil
}

// UpdateProperty edits a listing the owner holds; new images replace the old set
func (s *Service) UpdateProperty(ctx context.Context, owner Actor, id uuid.UUID, in PropertyInput, images []Upload) (*domain.Property, error) {
	price, err := in.validate()
	if err != nil {
		return nil, err
	}
	if err := checkImageCount(images); err != nil {
		return nil, err
	}

	var property domain.Property
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner.ID).First(&property).Error; err != nil {
		return nil, missing(err, domain.ErrNotFoundOrForbidden, "property")
	}

	var replaced []string
	if len(images) > 0 {
		paths, err := s.storeFiles(ctx, s.images, images)
		if err != nil {
			return nil, err
		}
		replaced = property.Images
		property.Images = datatypes.JSONSlice[string](paths)
	}
	property.Title = strings.TrimSpace(in.Title)
	property.Address = strings.TrimSpace(in.Address)
	property.Price = price
	property.Description = strings.TrimSpace(in.Description)

	// Only listing fields; availability belongs to the lease workflows
	err = s.db.WithContext(ctx).Model(&property).Select("title", "address", "price", "description", "images").Updates(&property).Error
	if err != nil {
		if len(images) > 0 {
			s.releaseFiles(ctx, s.images, property.Images)
		}
		return nil, err
	}
	s.releaseFiles(ctx, s.images, replaced)
	s.invalidateListings(ctx)

	logrus.WithField("property_id", property.ID).Info("Property updated")
	return &property, nil
}

// loadOwnedProperty reads a property inside tx, hiding ones the actor cannot touch
func loadOwnedProperty(tx *gorm.DB, id uuid.UUID, actor Actor) (*domain.Property, error) {
	var property domain.Property
	q := tx.Where("id = ?", id)
	if !actor.IsAdmin() {
		q = q.Where("owner_id = ?", actor.ID)
	}
	if err := q.First(&property).Error; err != nil {
		return nil, missing(err, domain.ErrNotFoundOrForbidden, "property")
	}
	return &property, nil
}
