package mongostore

import (
	"context"
	"time"

	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if u.ID == "" {
		u.ID = store.NewID()
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	d, err := toUserDoc(u)
	if err != nil {
		return err
	}

	_, err = s.users.InsertOne(ctx, d)
	return translate(err)
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var d userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, translate(err)
	}

	return d.model(), nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := objectID(id); err == nil {
			oids = append(oids, oid)
		}
	}

	if len(oids) == 0 {
		return nil, nil
	}

	return s.findUsers(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.findUsers(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (s *Store) findUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.User, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].model())
	}

	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	oid, err := objectID(u.ID)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	u.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"name":            u.Name,
		"email":           u.Email,
		"password":        u.PasswordHash,
		"phone":           u.Phone,
		"address":         addressDoc(u.Address),
		"profileImage":    u.ProfileImage,
		"rating":          u.Rating,
		"numReviews":      u.NumReviews,
		"isActive":        u.IsActive,
		"isAdmin":         u.IsAdmin,
		"isVerified":      u.IsVerified,
		"isEmailVerified": u.IsEmailVerified,
		"updatedAt":       u.UpdatedAt,
	}

	update := bson.M{"$set": set}
	if u.Location != nil {
		set["location"] = toPointDoc(*u.Location)
	} else {
		update["$unset"] = bson.M{"location": ""}
	}

	res, err := s.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return translate(err)
	}

	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) SetOTP(ctx context.Context, email, code string, expiresAt time.Time) (*model.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var d userDoc
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"otp":           code,
			"otpExpiration": expiresAt,
			"updatedAt":     time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, translate(err)
	}

	return d.model(), nil
}

func (s *Store) ConsumeOTP(ctx context.Context, id, code string, now time.Time, resetToken string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	if code == "" {
		return store.ErrNotFound
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.users.UpdateOne(ctx,
		bson.M{
			"_id":           oid,
			"otp":           code,
			"otpExpiration": bson.M{"$gte": now},
		},
		bson.M{
			"$set": bson.M{
				"isEmailVerified": true,
				"resetToken":      resetToken,
				"updatedAt":       time.Now().UTC(),
			},
			"$unset": bson.M{"otp": "", "otpExpiration": ""},
		},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.users.UpdateMany(ctx,
		bson.M{"otpExpiration": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{"otp": "", "otpExpiration": ""}},
	)
	if err != nil {
		return 0, err
	}

	return res.ModifiedCount, nil
}

func (s *Store) UserByResetToken(ctx context.Context, email, token string) (*model.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}

	return s.findUser(ctx, bson.M{"email": email, "resetToken": token})
}

func (s *Store) ReplacePassword(ctx context.Context, id, token, hash string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	if token == "" {
		return store.ErrNotFound
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid, "resetToken": token},
		bson.M{
			"$set":   bson.M{"password": hash, "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"resetToken": ""},
		},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}
