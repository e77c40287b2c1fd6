package geo

import (
	"testing"

	"bitwise74/rental-api/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	berlin := model.NewPoint(13.4050, 52.5200)
	potsdam := model.NewPoint(13.0645, 52.3906)

	d := Distance(berlin, potsdam)
	assert.InDelta(t, 27000, d, 1500)

	assert.Zero(t, Distance(berlin, berlin))
	assert.InDelta(t, Distance(berlin, potsdam), Distance(potsdam, berlin), 1e-6)
}

func TestWithin(t *testing.T) {
	center := model.NewPoint(0, 0)

	// One degree of latitude is ~111km
	assert.True(t, Within(center, model.NewPoint(0, 0.5), 60000))
	assert.False(t, Within(center, model.NewPoint(0, 1), 100000))
}
