package districts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/binforecast/schema"
	"gopkg.in/yaml.v3"
)

// Column positions in the source CSV.
const (
	colName       = 0
	colPopulation = 1
	colTotalWaste = 3
)

// marketDistricts hold markets in addition to every "Barangay N" district.
var marketDistricts = []string{"Carmen", "Bulua", "Gusa", "Macabalan", "Lapasan", "Kauswagan"}

// floodProneDistricts are rated high flood risk; all others are medium.
var floodProneDistricts = []string{"Carmen", "Macasandig", "Kauswagan", "Gusa", "Balulang", "Bugo", "Cugman", "Puerto", "Puntod", "Tablon"}

// ImportCSV converts a waste characterization CSV into districts. The first
// row is a header. Ids are 1-based row numbers of the data rows kept.
func ImportCSV(r io.Reader) ([]schema.District, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var out []schema.District
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		name := strings.TrimSpace(field(record, colName))
		if name == "" {
			continue
		}
		population := int(parseNumber(field(record, colPopulation)))
		totalWaste := parseNumber(field(record, colTotalWaste))
		out = append(out, schema.District{
			ID:                strconv.Itoa(len(out) + 1),
			Name:              name,
			Population:        population,
			PopulationDensity: math.Floor(float64(population) / schema.PeoplePerDensityUnit),
			BinCapacity:       totalWaste,
			HasMarket:         strings.Contains(name, "Barangay") || slices.Contains(marketDistricts, name),
			FloodRisk:         floodRiskFor(name),
			TotalWaste:        totalWaste,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("csv has no district rows")
	}
	return out, nil
}

// WriteYAML writes districts in the format Load reads.
func WriteYAML(w io.Writer, districts []schema.District) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := struct {
		Districts []schema.District `yaml:"districts"`
	}{Districts: districts}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode districts: %w", err)
	}
	return enc.Close()
}

func floodRiskFor(name string) schema.FloodRisk {
	if slices.Contains(floodProneDistricts, name) {
		return schema.HighFlood
	}
	return schema.MediumFlood
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

// parseNumber reads numbers that may carry quotes and thousands separators.
// Unparseable values become 0.
func parseNumber(s string) float64 {
	s = strings.NewReplacer(`"`, "", ",", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
