package domain

import (
	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/datatypes"             // JSON columns
)

// MaxPropertyImages is the number of images a listing may carry
const MaxPropertyImages = 4

// Property Model
type Property struct {
	Base
	OwnerID     uuid.UUID                   `gorm:"type:char(36);not null;index" json:"owner_id"` // Owning user
	Owner       *User                       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`    // Preloaded on demand
	Title       string                      `gorm:"size:200;not null" json:"title"`               // Listing title
	Address     string                      `gorm:"size:255;not null" json:"address"`             // Street address
	Price       decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`     // Monthly rent
	Description string                      `gorm:"type:text" json:"description"`                 // Free text
	Images      datatypes.JSONSlice[string] `json:"images"`                                       // Stored image paths
	Available   bool                        `gorm:"not null;default:true;index" json:"available"` // False while an active lease exists
}
