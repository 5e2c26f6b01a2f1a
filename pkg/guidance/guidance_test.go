package guidance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
)

func junction(lat, lon float64) datastructure.Junction {
	return datastructure.NewJunction(datastructure.NewCoordinate(lat, lon))
}

func TestReconstructDoublesInteriorJunctions(t *testing.T) {
	engine := NewDirectionsEngine()

	junctions := []datastructure.Junction{
		junction(-6.1800, 106.8200),
		junction(-6.1800, 106.8210),
		junction(-6.1800, 106.8220),
		junction(-6.1800, 106.8230),
	}

	polyline, _, err := engine.Reconstruct(junctions)
	require.NoError(t, err)

	require.Len(t, polyline, 2*len(junctions)-2)
	assert.Equal(t, junctions[0].Point, polyline[0])
	assert.Equal(t, junctions[1].Point, polyline[1])
	assert.Equal(t, junctions[1].Point, polyline[2])
	assert.Equal(t, junctions[2].Point, polyline[3])
	assert.Equal(t, junctions[2].Point, polyline[4])
	assert.Equal(t, junctions[3].Point, polyline[5])
}

func TestReconstructStraightHasOnlyDepart(t *testing.T) {
	engine := NewDirectionsEngine()

	_, instructions, err := engine.Reconstruct([]datastructure.Junction{
		junction(-6.1800, 106.8200),
		junction(-6.1800, 106.8210),
		junction(-6.1800, 106.8220),
	})
	require.NoError(t, err)

	require.Len(t, instructions, 1)
	assert.Equal(t, datastructure.TurnNone, instructions[0].Turn)
}

func TestReconstructRightTurn(t *testing.T) {
	engine := NewDirectionsEngine()

	// heading east then turning due south
	_, instructions, err := engine.Reconstruct([]datastructure.Junction{
		junction(-6.1800, 106.8200),
		junction(-6.1800, 106.8210),
		junction(-6.1810, 106.8210),
	})
	require.NoError(t, err)

	require.Len(t, instructions, 2)
	assert.Equal(t, datastructure.TurnRight, instructions[1].Turn)
	assert.Equal(t, datastructure.NewCoordinate(-6.1800, 106.8210), instructions[1].Point)
}

func TestReconstructLeftAndUTurn(t *testing.T) {
	engine := NewDirectionsEngine()

	// east, then due north: left turn
	_, instructions, err := engine.Reconstruct([]datastructure.Junction{
		junction(-6.1800, 106.8200),
		junction(-6.1800, 106.8210),
		junction(-6.1790, 106.8210),
	})
	require.NoError(t, err)
	require.Len(t, instructions, 2)
	assert.Equal(t, datastructure.TurnLeft, instructions[1].Turn)

	// east, then straight back west
	_, instructions, err = engine.Reconstruct([]datastructure.Junction{
		junction(-6.1800, 106.8200),
		junction(-6.1800, 106.8210),
		junction(-6.1800, 106.8201),
	})
	require.NoError(t, err)
	require.Len(t, instructions, 2)
	assert.Equal(t, datastructure.TurnUTurn, instructions[1].Turn)
}

func TestReconstructDegenerateInputs(t *testing.T) {
	engine := NewDirectionsEngine()

	_, _, err := engine.Reconstruct(nil)
	assert.ErrorIs(t, err, ErrNoJunctions)

	polyline, instructions, err := engine.Reconstruct([]datastructure.Junction{
		junction(-6.18, 106.82),
	})
	require.NoError(t, err)
	assert.Len(t, polyline, 1)
	assert.Empty(t, instructions)
}
