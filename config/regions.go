package config

import (
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/text/unicode/norm"
)

// RegionTableVersion identifies the district to region mapping shipped with the binary.
const RegionTableVersion = "2025.1"

// RegionSet selects which part of the region table a pipeline variant may use.
type RegionSet int

const (
	// RegionSetMainland covers the eighteen mainland districts.
	RegionSetMainland RegionSet = iota
	// RegionSetIslands additionally covers the Madeira and Azores islands.
	RegionSetIslands
)

func (s RegionSet) String() string {
	switch s {
	case RegionSetMainland:
		return "mainland"
	case RegionSetIslands:
		return "islands"
	default:
		return "unknown"
	}
}

// District is one entry of the region table
type District struct {
	Name     string
	Region   string
	Centroid orb.Point // lon, lat
	Island   bool
}

var Districts = []District{
	{Name: "Aveiro", Region: "Centro", Centroid: orb.Point{-8.6538, 40.6405}},
	{Name: "Beja", Region: "Alentejo", Centroid: orb.Point{-7.8632, 38.0151}},
	{Name: "Braga", Region: "Norte", Centroid: orb.Point{-8.4265, 41.5454}},
	{Name: "Bragança", Region: "Norte", Centroid: orb.Point{-6.7567, 41.8061}},
	{Name: "Castelo Branco", Region: "Centro", Centroid: orb.Point{-7.4909, 39.8222}},
	{Name: "Coimbra", Region: "Centro", Centroid: orb.Point{-8.4292, 40.2033}},
	{Name: "Évora", Region: "Alentejo", Centroid: orb.Point{-7.9135, 38.5714}},
	{Name: "Faro", Region: "Algarve", Centroid: orb.Point{-7.9304, 37.0194}},
	{Name: "Guarda", Region: "Centro", Centroid: orb.Point{-7.2658, 40.5373}},
	{Name: "Leiria", Region: "Centro", Centroid: orb.Point{-8.8071, 39.7436}},
	{Name: "Lisboa", Region: "Lisboa", Centroid: orb.Point{-9.1393, 38.7223}},
	{Name: "Portalegre", Region: "Alentejo", Centroid: orb.Point{-7.4312, 39.2967}},
	{Name: "Porto", Region: "Norte", Centroid: orb.Point{-8.6291, 41.1579}},
	{Name: "Santarém", Region: "Centro", Centroid: orb.Point{-8.6859, 39.2362}},
	{Name: "Setúbal", Region: "Lisboa", Centroid: orb.Point{-8.8882, 38.5244}},
	{Name: "Viana do Castelo", Region: "Norte", Centroid: orb.Point{-8.8345, 41.6946}},
	{Name: "Vila Real", Region: "Norte", Centroid: orb.Point{-7.7464, 41.3006}},
	{Name: "Viseu", Region: "Centro", Centroid: orb.Point{-7.9124, 40.6566}},

	{Name: "Ilha da Madeira", Region: "Madeira", Centroid: orb.Point{-16.9595, 32.7607}, Island: true},
	{Name: "Ilha de Porto Santo", Region: "Madeira", Centroid: orb.Point{-16.3400, 33.0700}, Island: true},
	{Name: "Ilha de São Miguel", Region: "Açores", Centroid: orb.Point{-25.6687, 37.7412}, Island: true},
	{Name: "Ilha Terceira", Region: "Açores", Centroid: orb.Point{-27.2211, 38.6563}, Island: true},
	{Name: "Ilha do Faial", Region: "Açores", Centroid: orb.Point{-28.6997, 38.5424}, Island: true},
	{Name: "Ilha do Pico", Region: "Açores", Centroid: orb.Point{-28.3317, 38.4640}, Island: true},
	{Name: "Ilha de São Jorge", Region: "Açores", Centroid: orb.Point{-28.0300, 38.6420}, Island: true},
	{Name: "Ilha Graciosa", Region: "Açores", Centroid: orb.Point{-28.0091, 39.0500}, Island: true},
	{Name: "Ilha das Flores", Region: "Açores", Centroid: orb.Point{-31.2000, 39.4400}, Island: true},
	{Name: "Ilha do Corvo", Region: "Açores", Centroid: orb.Point{-31.1100, 39.7000}, Island: true},
	{Name: "Ilha de Santa Maria", Region: "Açores", Centroid: orb.Point{-25.1000, 36.9700}, Island: true},
}

var (
	districtsByName = make(map[string]District, len(Districts))
	regionLookups   = make(map[RegionSet]map[string]string)
)

func init() {
	mainland := make(map[string]string)
	islands := make(map[string]string)
	for _, d := range Districts {
		key := NormalizeName(d.Name)
		districtsByName[key] = d
		islands[key] = d.Region
		if !d.Island {
			mainland[key] = d.Region
		}
	}
	regionLookups[RegionSetMainland] = mainland
	regionLookups[RegionSetIslands] = islands
}

// NormalizeName trims surrounding space and converts the name to Unicode NFC so that
// decomposed accents ("Évora") match the table.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// RegionFor looks up the region of a district within the given set.
func RegionFor(set RegionSet, district string) (string, bool) {
	lookup, ok := regionLookups[set]
	if !ok {
		return "", false
	}
	region, ok := lookup[NormalizeName(district)]
	return region, ok
}

// GetDistrictByName returns the table entry of a district regardless of region set.
func GetDistrictByName(name string) (District, bool) {
	d, ok := districtsByName[NormalizeName(name)]
	return d, ok
}

// GetRegionNames returns the distinct region names of a set in table order.
func GetRegionNames(set RegionSet) []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range Districts {
		if d.Island && set != RegionSetIslands {
			continue
		}
		if !seen[d.Region] {
			seen[d.Region] = true
			names = append(names, d.Region)
		}
	}
	return names
}
