// Package park defines the static per-park catalog consumed by the optimizer.
package park

import "context"

type Category string

const (
	CategoryRide Category = "ride"
	CategoryShow Category = "show"
	CategoryMeet Category = "meet_and_greet"
)

// AccessTier describes priority-access eligibility for an attraction.
type AccessTier string

const (
	AccessNone     AccessTier = "none"
	AccessIncluded AccessTier = "included" // covered by the daily token allotment
	AccessPaid     AccessTier = "paid"     // individual paid reservation
)

// Coordinate is a position on the park's walking grid, in meters.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WaitSample is one point of an attraction's wait-time forecast curve.
type WaitSample struct {
	MinuteOfDay int     `json:"minuteOfDay"` // minutes after midnight
	WaitMin     float64 `json:"waitMin"`
}

// Attraction is immutable for the duration of one optimization run.
type Attraction struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Location    Coordinate   `json:"location"`
	Category    Category     `json:"category"`
	Thrill      bool         `json:"thrill,omitempty"`
	Indoor      bool         `json:"indoor,omitempty"`
	MinHeightCm int          `json:"minHeightCm,omitempty"` // 0 = unrestricted
	DurationMin float64      `json:"durationMin"`           // base visit duration
	Popularity  float64      `json:"popularity"`            // 0..1
	Access      AccessTier   `json:"access"`
	AccessPrice float64      `json:"accessPrice,omitempty"` // per-party price when paid access applies
	AccessClass string       `json:"accessClass,omitempty"` // demand class driving token cooldown
	WaitCurve   []WaitSample `json:"waitCurve"`
}

// Park is the static catalog entry for one park/date.
type Park struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Entrance    Coordinate   `json:"entrance"`
	OpenMin     int          `json:"openMin"`  // default operating open, minutes after midnight
	CloseMin    int          `json:"closeMin"` // default operating close
	Attractions []Attraction `json:"attractions"`
}

// Catalog is the external lookup the optimizer service depends on.
// Implementations live in internal/store; the engine never fetches anything itself.
type Catalog interface {
	GetPark(ctx context.Context, parkID, date string) (Park, error)
	ListParks(ctx context.Context) ([]Park, error)
}

// Attraction lookup by ID; returns nil when absent.
func (p Park) Attraction(id string) *Attraction {
	for i := range p.Attractions {
		if p.Attractions[i].ID == id {
			return &p.Attractions[i]
		}
	}
	return nil
}
