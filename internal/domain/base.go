package domain

import (
	"fmt"     // Error formatting
	"strings" // Whitespace trimming
	"time"    // Timestamps

	"github.com/google/uuid" // UUID identifiers
	"gorm.io/gorm"           // GORM ORM library
)

// Base holds the identifier and timestamps shared by every record
type Base struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"` // Primary key
	CreatedAt time.Time `json:"created_at"`                         // Creation time
	UpdatedAt time.Time `json:"updated_at"`                         // Last update time
}

// BeforeCreate assigns a fresh UUID when none was set
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ParseID parses an identifier coming from a request; malformed ids read as missing records
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", ErrNotFound, raw)
	}
	return id, nil
}
