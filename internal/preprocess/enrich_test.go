package preprocess

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/models"
)

func enrichTable(records ...models.Record) *models.Table {
	return &models.Table{
		Columns: []string{models.ColType, models.ColDistrict, models.ColCity, models.ColEnergyCertificate, models.ColPricePerSqm},
		Records: records,
	}
}

func enrichRecord(id int, district, certificate string, ppsqm float64) models.Record {
	return models.Record{
		ID:                id,
		Type:              models.TypeLand,
		District:          district,
		City:              "Somewhere",
		EnergyCertificate: models.String(certificate),
		PricePerSqm:       models.Float(ppsqm),
	}
}

func TestEnricher_RegionSets(t *testing.T) {
	tests := []struct {
		name     string
		set      config.RegionSet
		expected []int
	}{
		{"mainland drops islands", config.RegionSetMainland, []int{1}},
		{"island set keeps islands", config.RegionSetIslands, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := newTestLogger()
			enricher := NewEnricher(tt.set, 1, logger)

			out := enricher.Enrich(enrichTable(
				enrichRecord(1, "Porto", "A", 10),
				enrichRecord(2, "Ilha do Pico", "A", 11),
				enrichRecord(3, "Atlantis", "A", 12),
			))

			assert.Equal(t, tt.expected, out.IDs())
			assert.True(t, out.HasColumn(models.ColRegion))
			assert.Equal(t, "Norte", *out.Records[0].Region)
		})
	}
}

func TestEnricher_CertificateLabels(t *testing.T) {
	logger, _ := newTestLogger()
	out := NewEnricher(config.RegionSetMainland, 1, logger).Enrich(enrichTable(
		enrichRecord(1, "Porto", "No Certificate", 10),
		enrichRecord(2, "Porto", "A+", 11),
		enrichRecord(3, "Porto", "no certificate", 12),
	))

	require.Equal(t, 3, out.Len())
	assert.Equal(t, "NC", *out.Records[0].EnergyCertificate)
	assert.Equal(t, "A+", *out.Records[1].EnergyCertificate)
	assert.Equal(t, "no certificate", *out.Records[2].EnergyCertificate)
}

func TestEnricher_RemovesDuplicates(t *testing.T) {
	logger, hook := newTestLogger()
	in := enrichTable(
		enrichRecord(7, "Porto", "A", 10),
		enrichRecord(3, "Porto", "A", 10),
		enrichRecord(5, "Porto", "A", 10.5),
	)

	out := NewEnricher(config.RegionSetMainland, 1, logger).Enrich(in)

	assert.Equal(t, []int{3, 5}, out.IDs())
	assert.Equal(t, 1, hook.LastEntry().Data["duplicates"])
	assert.Nil(t, in.Records[0].Region, "input is not modified")
}

func TestEnricher_WarnsOnLargeUnmappedShare(t *testing.T) {
	logger, hook := newTestLogger()
	enricher := NewEnricher(config.RegionSetMainland, 0.25, logger)

	enricher.Enrich(enrichTable(
		enrichRecord(1, "Porto", "A", 10),
		enrichRecord(2, "Atlantis", "A", 11),
	))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
			assert.Equal(t, 1, e.Data["unmapped"])
		}
	}
	assert.True(t, warned)
}
