package models

// ============================================================
// Validation
// ============================================================

// ValidationResult is the outcome of the floor plan plausibility gate.
type ValidationResult struct {
	IsValid    bool    `json:"is_valid"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ============================================================
// Floor plan entities
// ============================================================

const (
	DefaultWallThickness = 8.0
	DefaultDoorWidth     = 80.0
	DefaultWindowWidth   = 120.0
)

type Wall struct {
	StartX    float64 `json:"startX"`
	StartY    float64 `json:"startY"`
	EndX      float64 `json:"endX"`
	EndY      float64 `json:"endY"`
	Thickness float64 `json:"thickness"`
}

type Door struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Rotation int     `json:"rotation"`
}

type Window struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// RoomType is a value of the closed room taxonomy. See package roomtype.
type RoomType string

const (
	LivingRoom  RoomType = "LIVING_ROOM"
	Bedroom     RoomType = "BEDROOM"
	Kitchen     RoomType = "KITCHEN"
	Bathroom    RoomType = "BATHROOM"
	DiningRoom  RoomType = "DINING_ROOM"
	HomeOffice  RoomType = "HOME_OFFICE"
	Closet      RoomType = "CLOSET"
	Storage     RoomType = "STORAGE"
	LaundryRoom RoomType = "LAUNDRY_ROOM"
	Corridor    RoomType = "CORRIDOR"
	Balcony     RoomType = "BALCONY"
	Other       RoomType = "OTHER"
)

type Room struct {
	Type   RoomType    `json:"type"`
	Bounds BoundingBox `json:"bounds"`
}

// FloorPlan is the structured result of one vector document.
// Collections are never nil so they always serialize as arrays.
type FloorPlan struct {
	Walls   []Wall   `json:"walls"`
	Doors   []Door   `json:"doors"`
	Windows []Window `json:"windows"`
	Rooms   []Room   `json:"rooms"`
}

// EmptyFloorPlan returns a well-formed plan with all four collections empty.
func EmptyFloorPlan() FloorPlan {
	return FloorPlan{
		Walls:   []Wall{},
		Doors:   []Door{},
		Windows: []Window{},
		Rooms:   []Room{},
	}
}

// IsEmpty reports whether the plan carries no elements at all.
func (p FloorPlan) IsEmpty() bool {
	return len(p.Walls) == 0 && len(p.Doors) == 0 && len(p.Windows) == 0 && len(p.Rooms) == 0
}
