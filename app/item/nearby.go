package item

import (
	"bytes"
	"math"
	"net/http"
	"strconv"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

const (
	defaultNearbyDistance = 5
	defaultNearbyLimit    = 20
)

type nearbyParams struct {
	Lat *float64 `form:"lat"`
	Lng *float64 `form:"lng"`
	// Kilometers
	Distance float64 `form:"distance"`
	Limit    int     `form:"limit"`
}

// looseFloat decodes both 23.8 and "23.8"
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseFloat(string(bytes.Trim(b, `"`)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return apierr.BadRequest("Please provide valid latitude and longitude")
	}

	*f = looseFloat(v)
	return nil
}

type nearbyBody struct {
	Lat      *looseFloat `json:"lat"`
	Lng      *looseFloat `json:"lng"`
	Distance *looseFloat `json:"distance"`
	Limit    *int        `json:"limit"`
}

// merge copies every field present in the body over the query values
func (b *nearbyBody) merge(p *nearbyParams) {
	if b.Lat != nil {
		v := float64(*b.Lat)
		p.Lat = &v
	}
	if b.Lng != nil {
		v := float64(*b.Lng)
		p.Lng = &v
	}
	if b.Distance != nil {
		p.Distance = float64(*b.Distance)
	}
	if b.Limit != nil {
		p.Limit = *b.Limit
	}
}

// Nearby returns available items around a point, nearest first. Parameters
// come from the JSON body, the query string fills whatever the body lacks
func Nearby(c *gin.Context, d *internal.Deps) {
	var p nearbyParams
	if err := c.ShouldBindQuery(&p); err != nil {
		apierr.Respond(c, err)
		return
	}

	if c.Request.ContentLength != 0 {
		var b nearbyBody
		if err := c.ShouldBindJSON(&b); err != nil {
			apierr.Respond(c, err)
			return
		}
		b.merge(&p)
	}

	if p.Lat == nil || p.Lng == nil {
		apierr.Respond(c, apierr.BadRequest("Please provide latitude and longitude"))
		return
	}

	if !validators.ValidLngLat(*p.Lng, *p.Lat) {
		apierr.Respond(c, apierr.BadRequest("Please provide valid latitude and longitude"))
		return
	}

	if p.Distance <= 0 {
		p.Distance = defaultNearbyDistance
	}
	if p.Limit < 1 {
		p.Limit = defaultNearbyLimit
	}

	ctx := c.Request.Context()

	items, err := d.Store.NearbyItems(ctx, store.NearQuery{
		GeoFilter: store.GeoFilter{
			Center: model.NewPoint(*p.Lng, *p.Lat),
			Radius: p.Distance * 1000,
		},
		Limit: min(p.Limit, maxLimit),
	})
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	out, err := views(ctx, d, items)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(out),
		"items":   out,
	})
}
