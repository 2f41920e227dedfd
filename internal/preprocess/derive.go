package preprocess

import (
	"math"

	"github.com/DanLeiria/cribs/internal/models"
)

// landZeroColumns are attributes a land parcel structurally lacks
var landZeroColumns = []string{
	models.ColConstructionYear,
	models.ColRoomsAssigned,
	models.ColNumberOfBathrooms,
}

// DeriveFields returns a copy of t with AreaAssigned and RoomsAssigned computed for every record
func DeriveFields(t *models.Table) *models.Table {
	out := t.Clone()
	out.AddColumn(models.ColAreaAssigned)
	out.AddColumn(models.ColRoomsAssigned)

	for i := range out.Records {
		r := &out.Records[i]
		r.AreaAssigned = assignArea(r)
		r.RoomsAssigned = assignRooms(r)
	}
	return out
}

// assignArea picks the total area for land and the living area for everything else.
// A missing source stays missing.
func assignArea(r *models.Record) *float64 {
	if r.IsLand() {
		return r.TotalArea
	}
	return r.LivingArea
}

func assignRooms(r *models.Record) *int {
	switch {
	case r.TotalRooms != nil:
		return r.TotalRooms
	case r.NumberOfBedrooms != nil:
		return r.NumberOfBedrooms
	default:
		return nil
	}
}

// ApplyLandDefaults returns a copy of t where land records get 0 for missing
// ConstructionYear, RoomsAssigned and NumberOfBathrooms. Columns no longer retained are left alone.
func ApplyLandDefaults(t *models.Table) *models.Table {
	out := t.Clone()

	var cols []string
	for _, c := range landZeroColumns {
		if out.HasColumn(c) {
			cols = append(cols, c)
		}
	}

	for i := range out.Records {
		r := &out.Records[i]
		if !r.IsLand() {
			continue
		}
		for _, c := range cols {
			if _, ok := r.Value(c); !ok {
				// Integer columns never fail on "0"
				_ = r.SetValue(c, "0")
			}
		}
	}
	return out
}

// AssignPricePerSqm returns a copy of t with PricePerSqm = Price / AreaAssigned. Records
// whose ratio is not a finite positive number are dropped and counted; records missing
// either input keep a missing PricePerSqm for the null pass.
func AssignPricePerSqm(t *models.Table) (*models.Table, int) {
	out := &models.Table{Columns: append([]string(nil), t.Columns...)}
	out.AddColumn(models.ColPricePerSqm)

	dropped := 0
	for i := range t.Records {
		r := t.Records[i].Clone()
		r.PricePerSqm = nil
		if r.Price != nil && r.AreaAssigned != nil {
			v := *r.Price / *r.AreaAssigned
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				dropped++
				continue
			}
			r.PricePerSqm = models.Float(v)
		}
		out.Records = append(out.Records, r)
	}
	return out, dropped
}
