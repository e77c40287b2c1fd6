package item

import (
	"context"
	"errors"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"
)

// views populates the owner of every item with a single lookup
func views(ctx context.Context, d *internal.Deps, items []model.Item) ([]model.ItemView, error) {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))

	for _, i := range items {
		if _, ok := seen[i.OwnerID]; ok {
			continue
		}
		seen[i.OwnerID] = struct{}{}
		ids = append(ids, i.OwnerID)
	}

	users, err := d.Store.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]*model.Owner, len(users))
	for _, u := range users {
		owners[u.ID] = u.AsOwner()
	}

	out := make([]model.ItemView, 0, len(items))
	for _, i := range items {
		out = append(out, i.View(owners[i.OwnerID]))
	}

	return out, nil
}

func view(ctx context.Context, d *internal.Deps, i *model.Item) (model.ItemView, error) {
	u, err := d.Store.UserByID(ctx, i.OwnerID)
	if err != nil {
		// The owner may have been removed in the meantime
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return i.View(nil), nil
		}
		return model.ItemView{}, err
	}

	return i.View(u.AsOwner()), nil
}
