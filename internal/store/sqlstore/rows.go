package sqlstore

import (
	"time"

	"bitwise74/rental-api/internal/model"
)

type addressRow struct {
	Street     string
	Area       string
	City       string `gorm:"size:80"`
	PostalCode string
}

type userRow struct {
	ID              string     `gorm:"primaryKey;size:24"`
	Name            string     `gorm:"size:50;not null"`
	Email           string     `gorm:"size:100;uniqueIndex;not null"`
	Password        string     `gorm:"not null"`
	Phone           string     `gorm:"size:15"`
	Address         addressRow `gorm:"embedded;embeddedPrefix:address_"`
	Lng             *float64
	Lat             *float64
	ProfileImage    string
	Rating          float64
	NumReviews      int
	IsActive        bool
	IsAdmin         bool
	IsVerified      bool
	IsEmailVerified bool
	OTP             string
	OTPExpiration   *time.Time `gorm:"index"`
	ResetToken      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (userRow) TableName() string { return "users" }

type itemRow struct {
	ID          string      `gorm:"primaryKey;size:24"`
	Title       string      `gorm:"size:100;not null"`
	Description string      `gorm:"size:500;not null"`
	Category    string      `gorm:"index;not null"`
	Images      StringSlice `gorm:"type:text"`
	Price       float64
	PriceUnit   string
	Condition   string
	OwnerID     string  `gorm:"size:24;index;not null"`
	Lng         float64
	Lat         float64   `gorm:"index"`
	Available   bool      `gorm:"index"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (itemRow) TableName() string { return "items" }

func toUserRow(u *model.User) *userRow {
	r := &userRow{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Password:        u.PasswordHash,
		Phone:           u.Phone,
		Address:         addressRow(u.Address),
		ProfileImage:    u.ProfileImage,
		Rating:          u.Rating,
		NumReviews:      u.NumReviews,
		IsActive:        u.IsActive,
		IsAdmin:         u.IsAdmin,
		IsVerified:      u.IsVerified,
		IsEmailVerified: u.IsEmailVerified,
		OTP:             u.OTP,
		OTPExpiration:   u.OTPExpiration,
		ResetToken:      u.ResetToken,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}

	if u.Location != nil {
		lng, lat := u.Location.Lng(), u.Location.Lat()
		r.Lng, r.Lat = &lng, &lat
	}

	return r
}

func (r *userRow) model() *model.User {
	u := &model.User{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		PasswordHash:    r.Password,
		Phone:           r.Phone,
		Address:         model.Address(r.Address),
		ProfileImage:    r.ProfileImage,
		Rating:          r.Rating,
		NumReviews:      r.NumReviews,
		IsActive:        r.IsActive,
		IsAdmin:         r.IsAdmin,
		IsVerified:      r.IsVerified,
		IsEmailVerified: r.IsEmailVerified,
		OTP:             r.OTP,
		OTPExpiration:   r.OTPExpiration,
		ResetToken:      r.ResetToken,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}

	if r.Lng != nil && r.Lat != nil {
		p := model.NewPoint(*r.Lng, *r.Lat)
		u.Location = &p
	}

	return u
}

func toItemRow(i *model.Item) *itemRow {
	return &itemRow{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Images:      StringSlice(i.Images),
		Price:       i.Price,
		PriceUnit:   i.PriceUnit,
		Condition:   i.Condition,
		OwnerID:     i.OwnerID,
		Lng:         i.Location.Lng(),
		Lat:         i.Location.Lat(),
		Available:   i.Available,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func (r *itemRow) model() *model.Item {
	return &model.Item{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Images:      []string(r.Images),
		Price:       r.Price,
		PriceUnit:   r.PriceUnit,
		Condition:   r.Condition,
		OwnerID:     r.OwnerID,
		Location:    model.NewPoint(r.Lng, r.Lat),
		Available:   r.Available,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
