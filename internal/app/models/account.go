package models

import "time"

// Account is the login identity. ProfileID points at a students or professors
// row depending on Role and stays nil until a profile has been linked.
type Account struct {
	ID          int64      `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Password    string     `json:"-" db:"password_hash"`
	Role        Role       `json:"role" db:"role"`
	ProfileID   *int64     `json:"profileId,omitempty" db:"profile_id"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}
