package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCarModelAccess(t *testing.T) {
	car := NewCarModel()

	assert.True(t, car.IsAllowed(Motorway))
	assert.True(t, car.IsAllowed(Residential))
	assert.False(t, car.IsAllowed(Footway))
	assert.False(t, car.IsAllowed(Cycleway))

	assert.Equal(t, 90.0, car.MaxSpeed())
	assert.Equal(t, CarMask, car.Mask())
}

func TestPedestrianModelAccess(t *testing.T) {
	ped := NewPedestrianModel()

	assert.False(t, ped.IsAllowed(Motorway))
	assert.True(t, ped.IsAllowed(Footway))
	assert.LessOrEqual(t, ped.MaxSpeed(), 6.0)
}

func TestModelFactory(t *testing.T) {
	f := NewModelFactory(Bicycle)
	m := f.ModelForRegion("yogyakarta")
	assert.Equal(t, BicycleMask, m.Mask())
	assert.True(t, m.IsAllowed(Cycleway))
}

func TestMaxSpeedBoundsEverySpeed(t *testing.T) {
	for _, m := range []Model{NewCarModel(), NewBicycleModel(), NewPedestrianModel()} {
		for c := Category(0); c < CategoryCount; c++ {
			assert.LessOrEqual(t, m.Speed(c), m.MaxSpeed())
		}
	}
}
