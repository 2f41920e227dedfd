package preprocess

import (
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/DanLeiria/cribs/internal/models"
)

func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func rawColumns() []string {
	return append([]string(nil), models.RequiredRawColumns...)
}

// listing is a complete raw record; tests blank out what they need
func listing(id int, typ, district, city string, price, area float64) models.Record {
	r := models.Record{
		ID:                id,
		Type:              typ,
		District:          district,
		City:              city,
		Price:             models.Float(price),
		Garage:            models.Bool(true),
		EnergyCertificate: models.String("B"),
		ConstructionYear:  models.Int(2001),
		NumberOfBathrooms: models.Int(1),
		TotalRooms:        models.Int(3),
		NumberOfBedrooms:  models.Int(2),
	}
	if typ == models.TypeLand {
		r.TotalArea = models.Float(area)
		r.EnergyCertificate = models.String("No Certificate")
		r.ConstructionYear = nil
		r.NumberOfBathrooms = nil
		r.TotalRooms = nil
		r.NumberOfBedrooms = nil
	} else {
		r.LivingArea = models.Float(area)
		r.TotalArea = models.Float(area * 1.2)
	}
	return r
}

func rawTable(records ...models.Record) *models.Table {
	return &models.Table{Columns: rawColumns(), Records: records}
}

func pricedTable(typ, district, city string, ppsqm ...float64) *models.Table {
	t := &models.Table{Columns: []string{models.ColType, models.ColDistrict, models.ColCity, models.ColPricePerSqm}}
	for i, v := range ppsqm {
		t.Records = append(t.Records, models.Record{
			ID:          i + 1,
			Type:        typ,
			District:    district,
			City:        city,
			PricePerSqm: models.Float(v),
		})
	}
	return t
}

func pricesOf(t *models.Table) []float64 {
	out := make([]float64, len(t.Records))
	for i := range t.Records {
		out[i] = *t.Records[i].PricePerSqm
	}
	return out
}
