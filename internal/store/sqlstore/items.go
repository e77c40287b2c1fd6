package sqlstore

import (
	"context"
	"math"
	"sort"
	"time"

	"bitwise74/rental-api/internal/geo"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"

	"gorm.io/gorm"
)

const newestFirst = "created_at desc, id desc"

func (s *Store) CreateItem(ctx context.Context, i *model.Item) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	if i.ID == "" {
		i.ID = store.NewID()
	}

	now := time.Now().UTC()
	i.CreatedAt = now
	i.UpdatedAt = now

	return translate(db.Create(toItemRow(i)).Error)
}

func (s *Store) ItemByID(ctx context.Context, id string) (*model.Item, error) {
	if !store.ValidID(id) {
		return nil, store.ErrInvalidID
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var r itemRow
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		return nil, translate(err)
	}

	return r.model(), nil
}

func (s *Store) UpdateItem(ctx context.Context, i *model.Item) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	i.UpdatedAt = time.Now().UTC()
	r := toItemRow(i)

	res := db.Model(&itemRow{}).Where("id = ?", i.ID).Updates(map[string]any{
		"title":       r.Title,
		"description": r.Description,
		"category":    r.Category,
		"images":      r.Images,
		"price":       r.Price,
		"price_unit":  r.PriceUnit,
		"condition":   r.Condition,
		"lng":         r.Lng,
		"lat":         r.Lat,
		"available":   r.Available,
		"updated_at":  r.UpdatedAt,
	})
	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Where("id = ?", id).Delete(&itemRow{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) SetAvailability(ctx context.Context, id string, available bool) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&itemRow{}).Where("id = ?", id).Updates(map[string]any{
		"available":  available,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&itemRow{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

func (s *Store) ItemsByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rows []itemRow
	if err := db.Where("owner_id = ?", ownerID).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, err
	}

	return itemModels(rows), nil
}

func (s *Store) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Where("owner_id = ?", ownerID).Delete(&itemRow{})
	return res.RowsAffected, res.Error
}

// where applies every non geo predicate of q
func where(db *gorm.DB, q store.ItemQuery) *gorm.DB {
	if q.AvailableOnly {
		db = db.Where("available = ?", true)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.Condition != "" {
		db = db.Where("condition = ?", q.Condition)
	}
	if q.PriceUnit != "" {
		db = db.Where("price_unit = ?", q.PriceUnit)
	}
	if q.MinPrice != nil {
		db = db.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		db = db.Where("price <= ?", *q.MaxPrice)
	}
	if q.Search != "" {
		p := likePattern(q.Search)
		db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, p, p)
	}

	return db
}

// latBand narrows a radius search to the rows whose latitude can possibly
// be inside the circle. The exact check is done by geo.Within afterwards
func latBand(db *gorm.DB, f store.GeoFilter) *gorm.DB {
	delta := f.Radius / geo.EarthRadius * 180 / math.Pi
	return db.Where("lat BETWEEN ? AND ?", f.Center.Lat()-delta, f.Center.Lat()+delta)
}

func (s *Store) SearchItems(ctx context.Context, q store.ItemQuery) ([]model.Item, int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	base := where(db.Model(&itemRow{}), q)

	if q.Near == nil {
		var total int64
		if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, 0, err
		}

		page := base.Session(&gorm.Session{}).Order(newestFirst).Offset(q.Skip())
		if q.Limit > 0 {
			page = page.Limit(q.Limit)
		}

		var rows []itemRow
		if err := page.Find(&rows).Error; err != nil {
			return nil, 0, err
		}

		return itemModels(rows), total, nil
	}

	var rows []itemRow
	if err := latBand(base, *q.Near).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	var matches []model.Item
	for i := range rows {
		it := rows[i].model()
		if geo.Within(q.Near.Center, it.Location, q.Near.Radius) {
			matches = append(matches, *it)
		}
	}

	total := int64(len(matches))
	start := min(q.Skip(), len(matches))
	end := len(matches)
	if q.Limit > 0 {
		end = start + min(q.Limit, len(matches)-start)
	}

	return matches[start:end], total, nil
}

func (s *Store) NearbyItems(ctx context.Context, q store.NearQuery) ([]model.Item, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rows []itemRow
	err := latBand(db.Where("available = ?", true), q.GeoFilter).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	type hit struct {
		item *model.Item
		dist float64
	}

	var hits []hit
	for i := range rows {
		it := rows[i].model()
		if d := geo.Distance(q.Center, it.Location); d <= q.Radius {
			hits = append(hits, hit{it, d})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].dist < hits[b].dist })

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]model.Item, 0, len(hits))
	for _, h := range hits {
		out = append(out, *h.item)
	}

	return out, nil
}

func itemModels(rows []itemRow) []model.Item {
	out := make([]model.Item, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].model())
	}
	return out
}
