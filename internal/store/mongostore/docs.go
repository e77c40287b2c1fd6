package mongostore

import (
	"time"

	"bitwise74/rental-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type addressDoc struct {
	Street     string `bson:"street,omitempty"`
	Area       string `bson:"area,omitempty"`
	City       string `bson:"city,omitempty"`
	PostalCode string `bson:"postalCode,omitempty"`
}

type pointDoc struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type userDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	Name            string             `bson:"name"`
	Email           string             `bson:"email"`
	Password        string             `bson:"password"`
	Phone           string             `bson:"phone,omitempty"`
	Address         addressDoc         `bson:"address"`
	Location        *pointDoc          `bson:"location,omitempty"`
	ProfileImage    string             `bson:"profileImage"`
	Rating          float64            `bson:"rating"`
	NumReviews      int                `bson:"numReviews"`
	IsActive        bool               `bson:"isActive"`
	IsAdmin         bool               `bson:"isAdmin"`
	IsVerified      bool               `bson:"isVerified"`
	IsEmailVerified bool               `bson:"isEmailVerified"`
	OTP             string             `bson:"otp,omitempty"`
	OTPExpiration   *time.Time         `bson:"otpExpiration,omitempty"`
	ResetToken      string             `bson:"resetToken,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

type itemDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Image       []string           `bson:"image"`
	Price       float64            `bson:"price"`
	PriceUnit   string             `bson:"priceUnit"`
	Condition   string             `bson:"condition"`
	Owner       primitive.ObjectID `bson:"owner"`
	Location    pointDoc           `bson:"location"`
	Available   bool               `bson:"available"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toPointDoc(p model.GeoPoint) pointDoc {
	t := p.Type
	if t == "" {
		t = model.PointType
	}
	return pointDoc{Type: t, Coordinates: p.Coordinates}
}

func (p pointDoc) model() model.GeoPoint {
	return model.GeoPoint{Type: p.Type, Coordinates: p.Coordinates}
}

func toUserDoc(u *model.User) (*userDoc, error) {
	oid, err := objectID(u.ID)
	if err != nil {
		return nil, err
	}

	d := &userDoc{
		ID:              oid,
		Name:            u.Name,
		Email:           u.Email,
		Password:        u.PasswordHash,
		Phone:           u.Phone,
		Address:         addressDoc(u.Address),
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
		p := toPointDoc(*u.Location)
		d.Location = &p
	}

	return d, nil
}

func (d *userDoc) model() *model.User {
	u := &model.User{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Email:           d.Email,
		PasswordHash:    d.Password,
		Phone:           d.Phone,
		Address:         model.Address(d.Address),
		ProfileImage:    d.ProfileImage,
		Rating:          d.Rating,
		NumReviews:      d.NumReviews,
		IsActive:        d.IsActive,
		IsAdmin:         d.IsAdmin,
		IsVerified:      d.IsVerified,
		IsEmailVerified: d.IsEmailVerified,
		OTP:             d.OTP,
		OTPExpiration:   d.OTPExpiration,
		ResetToken:      d.ResetToken,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}

	if d.Location != nil {
		p := d.Location.model()
		u.Location = &p
	}

	return u
}

func toItemDoc(i *model.Item) (*itemDoc, error) {
	oid, err := objectID(i.ID)
	if err != nil {
		return nil, err
	}

	owner, err := objectID(i.OwnerID)
	if err != nil {
		return nil, err
	}

	return &itemDoc{
		ID:          oid,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Image:       i.Images,
		Price:       i.Price,
		PriceUnit:   i.PriceUnit,
		Condition:   i.Condition,
		Owner:       owner,
		Location:    toPointDoc(i.Location),
		Available:   i.Available,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}, nil
}

func (d *itemDoc) model() *model.Item {
	return &model.Item{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Images:      d.Image,
		Price:       d.Price,
		PriceUnit:   d.PriceUnit,
		Condition:   d.Condition,
		OwnerID:     d.Owner.Hex(),
		Location:    d.Location.model(),
		Available:   d.Available,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
