package models

// Property types admitted by at least one pipeline variant.
const (
	TypeLand      = "Land"
	TypeHouse     = "House"
	TypeApartment = "Apartment"
)

// Record is a single property listing. Nullable attributes are pointers; an empty
// categorical string counts as missing.
type Record struct {
	ID                int
	Type              string
	District          string
	City              string
	Price             *float64
	TotalArea         *float64
	LivingArea        *float64
	TotalRooms        *int
	NumberOfBedrooms  *int
	Garage            *bool
	EnergyCertificate *string
	ConstructionYear  *int
	NumberOfBathrooms *int

	// Derived during preprocessing
	AreaAssigned  *float64
	RoomsAssigned *int
	PricePerSqm   *float64
	Region        *string

	// Raw columns that are passed through untouched (Town, Parking, Elevator, ...)
	Extra map[string]*string
}

// IsLand reports whether the listing is a land parcel.
func (r *Record) IsLand() bool {
	return r.Type == TypeLand
}

// Clone returns a copy that shares no mutable state with r.
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]*string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// GroupCount is the number of records sharing one combination of column values.
type GroupCount struct {
	Keys       map[string]string `json:"keys"`
	Count      int               `json:"count"`
	Percentage float64           `json:"percentage"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// String returns a pointer to v.
func String(v string) *string {
	return &v
}
