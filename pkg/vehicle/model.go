package vehicle

// Type is a routable vehicle profile.
type Type uint8

const (
	Car Type = iota
	Bicycle
	Pedestrian
)

func (t Type) String() string {
	switch t {
	case Car:
		return "car"
	case Bicycle:
		return "bicycle"
	case Pedestrian:
		return "pedestrian"
	default:
		return "unknown"
	}
}

// Mask is a bitset of vehicle types allowed on a road.
type Mask uint8

const (
	CarMask        Mask = 1 << Car
	BicycleMask    Mask = 1 << Bicycle
	PedestrianMask Mask = 1 << Pedestrian
	AllMask             = CarMask | BicycleMask | PedestrianMask
)

// Category is the road class of a feature, fixed at preprocessing time.
type Category uint8

const (
	Motorway Category = iota
	Trunk
	Primary
	Secondary
	Tertiary
	Unclassified
	Residential
	Service
	LivingStreet
	Cycleway
	Footway
	CategoryCount
)

// CategoryMaxSpeed is the legal/physical speed limit per road class in km/h,
// independent of the vehicle.
func CategoryMaxSpeed(c Category) float64 {
	switch c {
	case Motorway:
		return 95
	case Trunk:
		return 85
	case Primary:
		return 75
	case Secondary:
		return 65
	case Tertiary:
		return 50
	case Unclassified:
		return 50
	case Residential:
		return 30
	case Service:
		return 20
	case LivingStreet:
		return 20
	case Cycleway:
		return 20
	case Footway:
		return 6
	default:
		return 40
	}
}

// Model gives the speed and access rules of one vehicle profile.
// Speed returns km/h; zero means the category is not passable for the profile.
type Model interface {
	Speed(c Category) float64
	IsAllowed(c Category) bool
	// MaxSpeed is the fastest speed the profile can reach on any category,
	// used for the admissible search heuristic.
	MaxSpeed() float64
	Mask() Mask
}

type tableModel struct {
	speeds   [CategoryCount]float64
	maxSpeed float64
	mask     Mask
}

func (m *tableModel) Speed(c Category) float64 {
	if c >= CategoryCount {
		return 0
	}
	return m.speeds[c]
}

func (m *tableModel) IsAllowed(c Category) bool {
	return m.Speed(c) > 0
}

func (m *tableModel) MaxSpeed() float64 {
	return m.maxSpeed
}

func (m *tableModel) Mask() Mask {
	return m.mask
}

func newTableModel(mask Mask, speeds [CategoryCount]float64) *tableModel {
	maxSpeed := 0.0
	for _, s := range speeds {
		if s > maxSpeed {
			maxSpeed = s
		}
	}
	return &tableModel{speeds: speeds, maxSpeed: maxSpeed, mask: mask}
}

// NewCarModel builds the default car profile.
func NewCarModel() Model {
	return newTableModel(CarMask, [CategoryCount]float64{
		Motorway:     90,
		Trunk:        85,
		Primary:      65,
		Secondary:    60,
		Tertiary:     50,
		Unclassified: 45,
		Residential:  30,
		Service:      15,
		LivingStreet: 10,
		Cycleway:     0,
		Footway:      0,
	})
}

// NewBicycleModel builds the default bicycle profile.
func NewBicycleModel() Model {
	return newTableModel(BicycleMask, [CategoryCount]float64{
		Motorway:     0,
		Trunk:        0,
		Primary:      15,
		Secondary:    15,
		Tertiary:     15,
		Unclassified: 12,
		Residential:  12,
		Service:      10,
		LivingStreet: 8,
		Cycleway:     15,
		Footway:      4,
	})
}

// NewPedestrianModel builds the default pedestrian profile.
func NewPedestrianModel() Model {
	return newTableModel(PedestrianMask, [CategoryCount]float64{
		Motorway:     0,
		Trunk:        0,
		Primary:      4,
		Secondary:    5,
		Tertiary:     5,
		Unclassified: 5,
		Residential:  5,
		Service:      5,
		LivingStreet: 5,
		Cycleway:     4,
		Footway:      5,
	})
}

// ModelFactory hands out the vehicle model for a region. Regional legislation
// hooks are not wired yet so every region shares the profile defaults.
type ModelFactory struct {
	model Model
}

func NewModelFactory(t Type) *ModelFactory {
	switch t {
	case Bicycle:
		return &ModelFactory{model: NewBicycleModel()}
	case Pedestrian:
		return &ModelFactory{model: NewPedestrianModel()}
	default:
		return &ModelFactory{model: NewCarModel()}
	}
}

func (f *ModelFactory) ModelForRegion(region string) Model {
	return f.model
}
