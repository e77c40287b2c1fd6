package mongostore

import (
	"context"
	"time"

	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (s *Store) CreateItem(ctx context.Context, i *model.Item) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if i.ID == "" {
		i.ID = store.NewID()
	}

	now := time.Now().UTC()
	i.CreatedAt = now
	i.UpdatedAt = now

	d, err := toItemDoc(i)
	if err != nil {
		return err
	}

	_, err = s.items.InsertOne(ctx, d)
	return translate(err)
}

func (s *Store) ItemByID(ctx context.Context, id string) (*model.Item, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var d itemDoc
	if err := s.items.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, translate(err)
	}

	return d.model(), nil
}

func (s *Store) UpdateItem(ctx context.Context, i *model.Item) error {
	oid, err := objectID(i.ID)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	i.UpdatedAt = time.Now().UTC()

	res, err := s.items.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"title":       i.Title,
		"description": i.Description,
		"category":    i.Category,
		"image":       i.Images,
		"price":       i.Price,
		"priceUnit":   i.PriceUnit,
		"condition":   i.Condition,
		"location":    toPointDoc(i.Location),
		"available":   i.Available,
		"updatedAt":   i.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}

	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.items.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) SetAvailability(ctx context.Context, id string, available bool) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.items.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"available": available,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	owner, err := objectID(ownerID)
	if err != nil {
		return 0, nil
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return s.items.CountDocuments(ctx, bson.M{"owner": owner})
}

func (s *Store) ItemsByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	owner, err := objectID(ownerID)
	if err != nil {
		return nil, nil
	}

	return s.findItems(ctx, bson.M{"owner": owner}, options.Find().SetSort(newestFirst))
}

func (s *Store) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	owner, err := objectID(ownerID)
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.items.DeleteMany(ctx, bson.M{"owner": owner})
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}

func (s *Store) SearchItems(ctx context.Context, q store.ItemQuery) ([]model.Item, int64, error) {
	filter := itemFilter(q)

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(q.Skip()))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	items, err := s.findItems(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	cctx, cancel := s.ctx(ctx)
	defer cancel()

	total, err := s.items.CountDocuments(cctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *Store) NearbyItems(ctx context.Context, q store.NearQuery) ([]model.Item, error) {
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	// $near already sorts by distance
	return s.findItems(ctx, nearFilter(q), opts)
}

func (s *Store) findItems(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Item, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cur, err := s.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.Item, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].model())
	}

	return out, nil
}
