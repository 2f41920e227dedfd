package geometry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanLeiria/cribs/internal/models"
)

func reportTable() *models.Table {
	t := &models.Table{Columns: []string{models.ColDistrict, models.ColPricePerSqm}}
	add := func(district string, values ...float64) {
		for _, v := range values {
			t.Records = append(t.Records, models.Record{ID: len(t.Records) + 1, District: district, PricePerSqm: models.Float(v)})
		}
	}
	add("Porto", 10, 12, 20)
	add("Braga", 8, 9)
	add("Viana do Castelo", 5)
	add("Lisboa", 30, 40)
	add("Atlantis", 1)
	return t
}

func TestSummarize(t *testing.T) {
	logger, hook := test.NewNullLogger()
	dm := NewDistrictManager(logger)

	summaries := dm.Summarize(reportTable())

	require.Len(t, summaries, 4)
	assert.Equal(t, "Braga", summaries[0].Name)
	assert.Equal(t, 8.5, summaries[0].MedianPricePerSqm)

	porto := summaries[2]
	assert.Equal(t, "Porto", porto.Name)
	assert.Equal(t, "Norte", porto.Region)
	assert.Equal(t, 3, porto.Count)
	assert.Equal(t, 12.0, porto.MedianPricePerSqm)
	assert.Len(t, porto.Geohash, geohashPrecision)
	assert.Equal(t, "ez3f", porto.Geohash[:4])

	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "Atlantis")
}

func TestBuildFeatures(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dm := NewDistrictManager(logger)

	fc := dm.BuildFeatures(dm.Summarize(reportTable()))

	// Four district points and one hull for Norte (Braga, Porto, Viana do Castelo)
	require.Len(t, fc.Features, 5)
	hull := fc.Features[4]
	assert.Equal(t, "Norte", hull.Properties["region"])
	assert.Equal(t, 6, hull.Properties["count"])

	poly, ok := hull.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly[0], 4)
	assert.Equal(t, poly[0][0], poly[0][len(poly[0])-1])
}

func TestConvexHull(t *testing.T) {
	square := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}}
	hull := convexHull(square)
	assert.Len(t, hull, 5)
	assert.Equal(t, hull[0], hull[len(hull)-1])

	assert.Nil(t, convexHull([]orb.Point{{0, 0}, {1, 1}, {2, 2}}))
}

func TestSaveReport(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dm := NewDistrictManager(logger)
	path := filepath.Join(t.TempDir(), "report", "districts.geojson")

	require.NoError(t, dm.SaveReport(path, dm.BuildFeatures(dm.Summarize(reportTable()))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Type     string                   `json:"type"`
		Features []map[string]interface{} `json:"features"`
		Metadata map[string]interface{}   `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	assert.Len(t, decoded.Features, 5)
	assert.Equal(t, float64(5), decoded.Metadata["features"])
}
