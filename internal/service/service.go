// Package service holds the rental workflows: property registry, lease lifecycle,
// payment ledger and the reconciliation that runs when a property is removed.
// Every operation is a short unit of work against the database; collaborators
// (mail, payment gateway, files, documents) are injected and called outside
// of open transactions.
package service

import (
	"context" // Deadlines for collaborators
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"sync"    // Background send tracking
	"time"    // Clock

	"rental_system/internal/domain"  // Importing domain models
	"rental_system/internal/gateway" // Payment gateway collaborator
	"rental_system/internal/notify"  // Notification collaborator
	"rental_system/internal/storage" // File storage collaborator
	"rental_system/internal/utils"   // Cache helpers

	"github.com/google/uuid"       // UUID identifiers
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// GatewayTimeout bounds a single payment gateway round trip
const GatewayTimeout = 15 * time.Second

// AgreementRenderer produces lease documents addressable by lease id
type AgreementRenderer interface {
	Render(ctx context.Context, lease *domain.Lease) (string, error)
	Locate(leaseID uuid.UUID) (string, bool)
}

// Deps are the collaborators a Service is built from
type Deps struct {
	Redis       *redis.Client     // Optional listing cache
	Notifier    notify.Notifier   // Outbound email
	Gateway     gateway.Gateway   // Card payments
	Images      storage.FileStore // Property images
	Avatars     storage.FileStore // User avatars
	Agreements  AgreementRenderer // Lease documents
	JWTSecret   string            // Token signing key
	FrontendURL string            // Base of password reset links
	Clock       func() time.Time  // Time source, time.Now when nil
}

// Service implements the rental workflows on top of a GORM handle
type Service struct {
	db          *gorm.DB
	rdb         *redis.Client
	notifier    notify.Notifier
	gateway     gateway.Gateway
	images      storage.FileStore
	avatars     storage.FileStore
	agreements  AgreementRenderer
	jwtSecret   string
	frontendURL string
	now         func() time.Time
	background  sync.WaitGroup
}

// New wires a Service
func New(db *gorm.DB, d Deps) *Service {
	if d.Notifier == nil {
		d.Notifier = notify.LogNotifier{}
	}
	if d.Gateway == nil {
		d.Gateway = gateway.Disabled{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Service{
		db:          db,
		rdb:         d.Redis,
		notifier:    d.Notifier,
		gateway:     d.Gateway,
		images:      d.Images,
		avatars:     d.Avatars,
		agreements:  d.Agreements,
		jwtSecret:   d.JWTSecret,
		frontendURL: d.FrontendURL,
		now:         d.Clock,
	}
}

// Wait blocks until queued notifications have been attempted
func (s *Service) Wait() {
	s.background.Wait()
}

// Actor is the authenticated caller of an operation
type Actor struct {
	ID   uuid.UUID   // User id from the token
	Role domain.Role // Role as stored in the database
}

// IsAdmin reports whether the actor may act on any record
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// Upload is a file received from a client
type Upload struct {
	Name string // Original file name
	Data []byte // File contents
}

// message is one queued notification
type message struct {
	to, subject, body string
}

// notifyAsync sends messages in order in the background; failures are logged only
func (s *Service) notifyAsync(msgs ...message) {
	if len(msgs) == 0 {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		for _, m := range msgs {
			ctx, cancel := context.WithTimeout(context.Background(), notify.SendTimeout)
			if err := s.notifier.Send(ctx, m.to, m.subject, m.body); err != nil {
				logrus.WithFields(logrus.Fields{
					"recipient": m.to,
					"subject":   m.subject,
					"error":     err.Error(),
				}).Error("Notification failed")
			}
			cancel()
		}
	}()
}

// releaseFiles deletes stored files, logging failures
func (s *Service) releaseFiles(ctx context.Context, store storage.FileStore, paths []string) {
	if store == nil {
		return
	}
	for _, p := range paths {
		if err := store.Delete(ctx, p); err != nil {
			logrus.WithFields(logrus.Fields{"path": p, "error": err.Error()}).Warn("Failed to release file")
		}
	}
}

// storeFiles stores every upload or none of them
func (s *Service) storeFiles(ctx context.Context, store storage.FileStore, uploads []Upload) ([]string, error) {
	if len(uploads) > 0 && store == nil {
		return nil, errors.New("file storage not configured")
	}
	paths := make([]string, 0, len(uploads))
	for _, u := range uploads {
		p, err := store.Store(ctx, u.Name, u.Data)
		if err != nil {
			s.releaseFiles(ctx, store, paths)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// invalidateListings drops cached listings that depend on availability
func (s *Service) invalidateListings(ctx context.Context) {
	if err := utils.DeleteCache(ctx, s.rdb, utils.AvailablePropertiesKey); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate listing cache")
	}
	if err := utils.DeleteCachePrefix(ctx, s.rdb, utils.AdminPaymentsPrefix); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate payment cache")
	}
}

// invalidateUsers drops cached admin user pages
func (s *Service) invalidateUsers(ctx context.Context) {
	if err := utils.DeleteCachePrefix(ctx, s.rdb, utils.AdminUsersPrefix); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate user cache")
	}
}

// conflictOnDuplicate maps unique index violations to ErrConflict
func conflictOnDuplicate(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", domain.ErrConflict, msg)
	}
	return err
}

// missing maps gorm.ErrRecordNotFound to target
func missing(err error, target error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", target, what)
	}
	return err
}
