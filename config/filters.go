package config

// DroppedColumns are raw columns that are too sparse or redundant for analysis. The area
// and room sources are dropped once AreaAssigned and RoomsAssigned are derived.
var DroppedColumns = []string{
	"GrossArea",
	"TotalArea",
	"LivingArea",
	"HasParking",
	"Floor",
	"EnergyEfficiencyLevel",
	"PublishDate",
	"NumberOfBedrooms",
	"TotalRooms",
	"NumberOfWC",
	"ConservationStatus",
	"ElectricCarsCharging",
	"LotSize",
	"BuiltArea",
}

// ExcludedDistricts have too few listings per (District, Type) group for reliable
// grouped statistics. Curated by hand from the group counts report.
var ExcludedDistricts = []string{
	"Bragança",
	"Beja",
	"Ilha de Santa Maria",
	"Viseu",
	"Ilha de São Miguel",
	"Ilha de Porto Santo",
	"Z - Fora de Portugal",
	"Ilha Terceira",
	"Ilha da Madeira",
	"Ilha do Faial",
	"Ilha das Flores",
}

// IsExcludedDistrict reports whether listings of the district are discarded.
func IsExcludedDistrict(name string) bool {
	name = NormalizeName(name)
	for _, d := range ExcludedDistricts {
		if NormalizeName(d) == name {
			return true
		}
	}
	return false
}
