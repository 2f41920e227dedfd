package geometry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/stats"
)

const geohashPrecision = 5

// DistrictSummary aggregates the cleaned listings of one district
type DistrictSummary struct {
	Name              string
	Region            string
	Centroid          orb.Point
	Geohash           string
	Count             int
	MedianPricePerSqm float64
}

type DistrictManager struct {
	logger *logrus.Logger
}

func NewDistrictManager(logger *logrus.Logger) *DistrictManager {
	return &DistrictManager{
		logger: logger,
	}
}

// Summarize groups the table by district. Districts missing from the lookup table have no
// coordinates and are skipped with a warning.
func (dm *DistrictManager) Summarize(t *models.Table) []DistrictSummary {
	prices := make(map[string][]float64)
	for i := range t.Records {
		r := &t.Records[i]
		if r.PricePerSqm == nil {
			continue
		}
		name := config.NormalizeName(r.District)
		prices[name] = append(prices[name], *r.PricePerSqm)
	}

	summaries := make([]DistrictSummary, 0, len(prices))
	for name, values := range prices {
		d, ok := config.GetDistrictByName(name)
		if !ok {
			dm.logger.Warnf("No coordinates for district %s, skipping", name)
			continue
		}
		summaries = append(summaries, DistrictSummary{
			Name:              d.Name,
			Region:            d.Region,
			Centroid:          d.Centroid,
			Geohash:           geohash.EncodeWithPrecision(d.Centroid.Lat(), d.Centroid.Lon(), geohashPrecision),
			Count:             len(values),
			MedianPricePerSqm: stats.RoundTo(stats.Median(values), 2),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// BuildFeatures returns one point per district and, for regions with at least three
// districts, the convex hull of their centroids
func (dm *DistrictManager) BuildFeatures(summaries []DistrictSummary) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	byRegion := make(map[string][]orb.Point)
	counts := make(map[string]int)
	for _, s := range summaries {
		feature := geojson.NewFeature(s.Centroid)
		feature.Properties = geojson.Properties{
			"district":             s.Name,
			"region":               s.Region,
			"geohash":              s.Geohash,
			"count":                s.Count,
			"median_price_per_sqm": s.MedianPricePerSqm,
			"geometry_type":        "centroid",
		}
		fc.Append(feature)

		byRegion[s.Region] = append(byRegion[s.Region], s.Centroid)
		counts[s.Region] += s.Count
	}

	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	for _, region := range regions {
		points := byRegion[region]
		if len(points) < 3 {
			dm.logger.Debugf("Not enough districts for region %s hull (minimum 3 required)", region)
			continue
		}
		hull := convexHull(points)
		if hull == nil {
			continue
		}
		feature := geojson.NewFeature(orb.Polygon{hull})
		feature.Properties = geojson.Properties{
			"region":        region,
			"districts":     len(points),
			"count":         counts[region],
			"geometry_type": "hull",
			"hull_type":     "convex",
		}
		fc.Append(feature)
	}
	return fc
}

// SaveReport writes the feature collection with generation metadata
func (dm *DistrictManager) SaveReport(path string, fc *geojson.FeatureCollection) error {
	metadata := map[string]interface{}{
		"generated":      time.Now().Format(time.RFC3339),
		"description":    "District price per sqm summary of the cleaned listings",
		"features":       len(fc.Features),
		"region_version": config.RegionTableVersion,
	}

	output := map[string]interface{}{
		"type":     "FeatureCollection",
		"features": fc.Features,
		"metadata": metadata,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}

	dm.logger.Infof("Saved %d features to %s", len(fc.Features), path)
	return nil
}

// convexHull uses the monotone chain algorithm. The ring is closed and counter-clockwise;
// nil is returned when the points are collinear.
func convexHull(points []orb.Point) orb.Ring {
	pts := append([]orb.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	cross := func(o, a, b orb.Point) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Last point equals the first, closing the ring
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}
