package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), 5*time.Second)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func testItem(owner, title, category string, price float64, lng, lat float64) *model.Item {
	return &model.Item{
		Title:       title,
		Description: "a perfectly fine thing to rent",
		Category:    category,
		Images:      []string{"a.png", "b.png"},
		Price:       price,
		PriceUnit:   model.DefaultPriceUnit,
		Condition:   "Good",
		OwnerID:     owner,
		Location:    model.NewPoint(lng, lat),
		Available:   true,
	}
}

func TestStringSlice(t *testing.T) {
	v, err := StringSlice{"a,b", "c"}.Value()
	require.NoError(t, err)

	var back StringSlice
	require.NoError(t, back.Scan(v))
	assert.Equal(t, StringSlice{"a,b", "c"}, back)

	require.NoError(t, back.Scan(nil))
	assert.Empty(t, back)
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, likePattern("50% OFF_now"))
}

func TestUserLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	loc := model.NewPoint(13.4, 52.5)
	u := &model.User{
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
		Address:      model.Address{City: "Berlin"},
		Location:     &loc,
		IsActive:     true,
	}
	require.NoError(t, s.CreateUser(ctx, u))
	require.True(t, store.ValidID(u.ID))

	err := s.CreateUser(ctx, &model.User{Name: "Dup", Email: "ann@example.com", PasswordHash: "x"})
	var dup *store.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)

	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", got.Address.City)
	require.NotNil(t, got.Location)
	assert.Equal(t, 52.5, got.Location.Lat())

	got.Name = "Annie"
	got.IsAdmin = true
	require.NoError(t, s.UpdateUser(ctx, got))

	got, err = s.UserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Annie", got.Name)
	assert.True(t, got.IsAdmin)

	_, err = s.UserByID(ctx, "bad")
	assert.ErrorIs(t, err, store.ErrInvalidID)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), store.ErrNotFound)
}

func TestOTPFlow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	u := &model.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "old"}
	require.NoError(t, s.CreateUser(ctx, u))

	_, err := s.SetOTP(ctx, "nobody@example.com", "123456", now.Add(time.Minute))
	assert.ErrorIs(t, err, store.ErrNotFound)

	withOTP, err := s.SetOTP(ctx, u.Email, "123456", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "123456", withOTP.OTP)

	assert.ErrorIs(t, s.ConsumeOTP(ctx, u.ID, "654321", now, "tok"), store.ErrNotFound)
	assert.ErrorIs(t, s.ConsumeOTP(ctx, u.ID, "123456", now.Add(5*time.Minute), "tok"), store.ErrNotFound)
	require.NoError(t, s.ConsumeOTP(ctx, u.ID, "123456", now, "tok"))
	assert.ErrorIs(t, s.ConsumeOTP(ctx, u.ID, "123456", now, "tok"), store.ErrNotFound)

	got, err := s.UserByResetToken(ctx, u.Email, "tok")
	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)
	assert.Nil(t, got.OTPExpiration)

	require.NoError(t, s.ReplacePassword(ctx, u.ID, "tok", "new"))
	_, err = s.UserByResetToken(ctx, u.Email, "tok")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClearExpiredOTPs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateUser(ctx, &model.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}))
	require.NoError(t, s.CreateUser(ctx, &model.User{Name: "B", Email: "b@example.com", PasswordHash: "x"}))

	_, err := s.SetOTP(ctx, "a@example.com", "111111", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = s.SetOTP(ctx, "b@example.com", "222222", now.Add(time.Hour))
	require.NoError(t, err)

	n, err := s.ClearExpiredOTPs(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSearchItems(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	owner := store.NewID()

	for _, i := range []*model.Item{
		testItem(owner, "Camera", "Electronics", 5, 13.40, 52.52),
		testItem(owner, "Speaker", "Electronics", 20, 13.40, 52.52),
		testItem(owner, "Laptop", "Electronics", 60, 13.40, 52.52),
		testItem(owner, "Sofa", "Furniture", 30, 9.99, 53.55),
	} {
		require.NoError(t, s.CreateItem(ctx, i))
	}

	lo, hi := 10.0, 50.0
	items, total, err := s.SearchItems(ctx, store.ItemQuery{
		AvailableOnly: true,
		Category:      "Electronics",
		MinPrice:      &lo,
		MaxPrice:      &hi,
		Page:          1,
		Limit:         12,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Speaker", items[0].Title)
	assert.Equal(t, []string{"a.png", "b.png"}, items[0].Images)

	items, total, err = s.SearchItems(ctx, store.ItemQuery{Search: "sof", Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)

	// Berlin only, Hamburg is ~255km away
	items, total, err = s.SearchItems(ctx, store.ItemQuery{
		Near:  &store.GeoFilter{Center: model.NewPoint(13.40, 52.52), Radius: 10_000},
		Page:  1,
		Limit: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 2)

	items, total, err = s.SearchItems(ctx, store.ItemQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Empty(t, items)
}

func TestItemOwnership(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	owner := store.NewID()

	i := testItem(owner, "Drill", "Electronics", 10, 0, 0)
	require.NoError(t, s.CreateItem(ctx, i))

	i.Title = "Hammer drill"
	i.OwnerID = store.NewID()
	require.NoError(t, s.UpdateItem(ctx, i))

	got, err := s.ItemByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.OwnerID)
	assert.Equal(t, "Hammer drill", got.Title)

	require.NoError(t, s.SetAvailability(ctx, i.ID, false))
	got, err = s.ItemByID(ctx, i.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	n, err := s.CountByOwner(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	deleted, err := s.DeleteByOwner(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = s.ItemByID(ctx, i.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNearbyItems(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	owner := store.NewID()

	require.NoError(t, s.CreateItem(ctx, testItem(owner, "Potsdam", "Other", 1, 13.0645, 52.3906)))
	require.NoError(t, s.CreateItem(ctx, testItem(owner, "Berlin", "Other", 1, 13.4050, 52.5200)))
	require.NoError(t, s.CreateItem(ctx, testItem(owner, "Hamburg", "Other", 1, 9.9937, 53.5511)))

	items, err := s.NearbyItems(ctx, store.NearQuery{
		GeoFilter: store.GeoFilter{Center: model.NewPoint(13.40, 52.52), Radius: 50_000},
		Limit:     20,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Berlin", items[0].Title)
	assert.Equal(t, "Potsdam", items[1].Title)
}
