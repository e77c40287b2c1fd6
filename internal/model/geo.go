package model

const PointType = "Point"

// GeoPoint is a GeoJSON point. Coordinates are always [longitude, latitude]
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func NewPoint(lng, lat float64) GeoPoint {
	return GeoPoint{
		Type:        PointType,
		Coordinates: []float64{lng, lat},
	}
}

func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) != 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) != 2 {
		return 0
	}
	return p.Coordinates[1]
}
