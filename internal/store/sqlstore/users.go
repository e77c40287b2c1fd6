package sqlstore

import (
	"context"
	"time"

	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	if u.ID == "" {
		u.ID = store.NewID()
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	return translate(db.Create(toUserRow(u)).Error)
}

func (s *Store) findUser(ctx context.Context, query string, args ...any) (*model.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var r userRow
	if err := db.Where(query, args...).First(&r).Error; err != nil {
		return nil, translate(err)
	}

	return r.model(), nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	if !store.ValidID(id) {
		return nil, store.ErrInvalidID
	}

	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var rows []userRow
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	return userModels(rows), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rows []userRow
	if err := db.Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	return userModels(rows), nil
}

func userModels(rows []userRow) []model.User {
	out := make([]model.User, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].model())
	}
	return out
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	u.UpdatedAt = time.Now().UTC()
	r := toUserRow(u)

	res := db.Model(&userRow{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":                r.Name,
		"email":               r.Email,
		"password":            r.Password,
		"phone":               r.Phone,
		"address_street":      r.Address.Street,
		"address_area":        r.Address.Area,
		"address_city":        r.Address.City,
		"address_postal_code": r.Address.PostalCode,
		"lng":                 r.Lng,
		"lat":                 r.Lat,
		"profile_image":       r.ProfileImage,
		"rating":              r.Rating,
		"num_reviews":         r.NumReviews,
		"is_active":           r.IsActive,
		"is_admin":            r.IsAdmin,
		"is_verified":         r.IsVerified,
		"is_email_verified":   r.IsEmailVerified,
		"updated_at":          r.UpdatedAt,
	})
	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if !store.ValidID(id) {
		return store.ErrInvalidID
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Where("id = ?", id).Delete(&userRow{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) SetOTP(ctx context.Context, email, code string, expiresAt time.Time) (*model.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	exp := expiresAt.UTC()
	res := db.Model(&userRow{}).Where("email = ?", email).Updates(map[string]any{
		"otp":            code,
		"otp_expiration": &exp,
		"updated_at":     time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}

	return s.UserByEmail(ctx, email)
}

func (s *Store) ConsumeOTP(ctx context.Context, id, code string, now time.Time, resetToken string) error {
	if code == "" {
		return store.ErrNotFound
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&userRow{}).
		Where("id = ? AND otp = ? AND otp_expiration >= ?", id, code, now.UTC()).
		Updates(map[string]any{
			"otp":               "",
			"otp_expiration":    nil,
			"is_email_verified": true,
			"reset_token":       resetToken,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&userRow{}).
		Where("otp_expiration < ?", now.UTC()).
		Updates(map[string]any{
			"otp":            "",
			"otp_expiration": nil,
		})

	return res.RowsAffected, res.Error
}

func (s *Store) UserByResetToken(ctx context.Context, email, token string) (*model.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}

	return s.findUser(ctx, "email = ? AND reset_token = ?", email, token)
}

func (s *Store) ReplacePassword(ctx context.Context, id, token, hash string) error {
	if token == "" {
		return store.ErrNotFound
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&userRow{}).
		Where("id = ? AND reset_token = ?", id, token).
		Updates(map[string]any{
			"password":    hash,
			"reset_token": "",
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}
