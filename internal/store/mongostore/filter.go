package mongostore

import (
	"regexp"

	"bitwise74/rental-api/internal/geo"
	"bitwise74/rental-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// itemFilter is the bson form of store.ItemQuery.Matches plus the geo filter.
// $centerSphere is used instead of $near because $near can't be combined
// with CountDocuments
func itemFilter(q store.ItemQuery) bson.M {
	f := bson.M{}

	if q.AvailableOnly {
		f["available"] = true
	}
	if q.Category != "" {
		f["category"] = q.Category
	}
	if q.Condition != "" {
		f["condition"] = q.Condition
	}
	if q.PriceUnit != "" {
		f["priceUnit"] = q.PriceUnit
	}

	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		f["price"] = price
	}

	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		f["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}

	if q.Near != nil {
		f["location"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{q.Near.Center.Lng(), q.Near.Center.Lat()},
					q.Near.Radius / geo.EarthRadius,
				},
			},
		}
	}

	return f
}

func nearFilter(q store.NearQuery) bson.M {
	return bson.M{
		"available": true,
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    toPointDoc(q.Center),
				"$maxDistance": q.Radius,
			},
		},
	}
}
