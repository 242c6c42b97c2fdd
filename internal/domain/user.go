package domain

import (
	"time" // Reset token expiry

	"github.com/google/uuid" // UUID identifiers
)

// Role of a user account
type Role string

const (
	RoleAdmin  Role = "admin"  // Platform administrator
	RoleOwner  Role = "owner"  // Property owner
	RoleTenant Role = "tenant" // Tenant renting a property
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOwner || r == RoleTenant
}

// User Model
type User struct {
	Base
	Name           string     `gorm:"size:100;not null" json:"name"`                            // Display name
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`               // Unique email
	Password       string     `gorm:"size:255;not null" json:"-"`                               // Hashed password
	Role           Role       `gorm:"type:varchar(16);not null;default:tenant" json:"role"`     // admin, owner or tenant
	CurrentLeaseID *uuid.UUID `gorm:"type:char(36);index" json:"current_lease_id,omitempty"`    // Open lease of a tenant
	CurrentLease   *Lease     `gorm:"foreignKey:CurrentLeaseID" json:"current_lease,omitempty"` // Preloaded on demand
	Avatar         string     `gorm:"size:255" json:"avatar"`                                   // Avatar path
	ResetTokenHash string     `gorm:"size:64;index" json:"-"`                                   // sha256 of the reset token
	ResetExpiresAt *time.Time `json:"-"`                                                        // Reset token expiry
}
