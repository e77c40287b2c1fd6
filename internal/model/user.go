// Package model defines the domain records shared by every store backend
package model

import "time"

type Address struct {
	Street     string `json:"street,omitempty"`
	Area       string `json:"area,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Address      Address   `json:"address"`
	Location     *GeoPoint `json:"location,omitempty"`
	ProfileImage string    `json:"profileImage"`
	Rating       float64   `json:"rating"`
	NumReviews   int       `json:"numReviews"`
	IsActive     bool      `json:"isActive"`
	IsAdmin      bool      `json:"isAdmin"`
	IsVerified   bool      `json:"isVerified"`

	IsEmailVerified bool `json:"isEmailVerified"`

	// Never serialized. OTP and reset token only live until they're consumed
	OTP           string     `json:"-"`
	OTPExpiration *time.Time `json:"-"`
	ResetToken    string     `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Owner is the public subset of a user that gets embedded into item responses
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func (u *User) AsOwner() *Owner {
	return &Owner{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
	}
}
