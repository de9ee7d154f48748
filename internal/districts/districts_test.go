package districts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/binforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	list, err := Default()
	require.NoError(t, err)
	assert.Len(t, list, 80)

	carmen, ok := Find(list, "carmen")
	require.True(t, ok)
	assert.Equal(t, 32657.52, carmen.TotalWaste)
	assert.Equal(t, schema.HighFlood, carmen.FloodRisk)
	assert.True(t, carmen.HasMarket)

	b22, ok := Find(list, "Barangay 22")
	require.True(t, ok)
	assert.Equal(t, 1396.08, b22.TotalWaste)
	assert.True(t, b22.HasMarket)
	assert.Equal(t, schema.MediumFlood, b22.FloodRisk)

	agusan, ok := Find(list, "1")
	require.True(t, ok)
	assert.Equal(t, "Agusan", agusan.Name)
	assert.False(t, agusan.HasMarket)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "d.yaml")
		content := `districts:
  - id: 7
    name: Lumbia
    population: 31504
    bin_capacity: 13231.68
    flood_risk: HIGH
  - id: "8"
    name: Iponan
    population: 27521
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		list, err := Load(path)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "7", list[0].ID)
		assert.Equal(t, schema.HighFlood, list[0].FloodRisk)
		assert.Equal(t, schema.MediumFlood, list[1].FloodRisk, "missing flood risk defaults to medium")
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "d.json")
		content := `{"districts":[{"id":"1","name":"Gusa","population":28974,"has_market":true,"flood_risk":"high"}]}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		list, err := Load(path)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].HasMarket)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty path is embedded", func(t *testing.T) {
		list, err := Load("")
		require.NoError(t, err)
		assert.Len(t, list, 80)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		districts []schema.District
		expectErr bool
	}{
		{"empty", nil, true},
		{"valid", []schema.District{{ID: "1", Name: "A", FloodRisk: "Low"}}, false},
		{"missing id", []schema.District{{Name: "A"}}, true},
		{"missing name", []schema.District{{ID: "1"}}, true},
		{"duplicate id", []schema.District{{ID: "1", Name: "A"}, {ID: "1", Name: "B"}}, true},
		{"negative capacity", []schema.District{{ID: "1", Name: "A", BinCapacity: -1}}, true},
		{"bad flood risk", []schema.District{{ID: "1", Name: "A", FloodRisk: "extreme"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.districts)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestImportCSV(t *testing.T) {
	csvData := `Barangay,Population,Households,Total Waste (kg/day),Residual
Carmen,"77,756",15000,"32,657.52",100
Barangay 22,3324,600,1396.08,10

Lumbia,31504,6000,13231.68,50
Short Row,1200
`
	list, err := ImportCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, list, 4)

	carmen := list[0]
	assert.Equal(t, "1", carmen.ID)
	assert.Equal(t, 77756, carmen.Population)
	assert.Equal(t, 1555.0, carmen.PopulationDensity)
	assert.Equal(t, 32657.52, carmen.TotalWaste)
	assert.Equal(t, 32657.52, carmen.BinCapacity)
	assert.True(t, carmen.HasMarket)
	assert.Equal(t, schema.HighFlood, carmen.FloodRisk)

	b22 := list[1]
	assert.True(t, b22.HasMarket)
	assert.Equal(t, schema.MediumFlood, b22.FloodRisk)

	lumbia := list[2]
	assert.Equal(t, "3", lumbia.ID, "blank rows do not consume ids")
	assert.False(t, lumbia.HasMarket)

	short := list[3]
	assert.Equal(t, 0.0, short.TotalWaste)
	assert.Equal(t, 24.0, short.PopulationDensity)
}

func TestImportCSVErrors(t *testing.T) {
	_, err := ImportCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ImportCSV(strings.NewReader("name,population\n"))
	assert.Error(t, err)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	list, err := ImportCSV(strings.NewReader("name,pop,x,waste\nGusa,28974,0,12169.08\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, list))
	assert.Contains(t, buf.String(), "districts:")
	assert.Contains(t, buf.String(), "flood_risk: high")

	path := filepath.Join(t.TempDir(), "imported.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, list, loaded)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 1234.5, parseNumber(`"1,234.5"`))
	assert.Equal(t, 0.0, parseNumber(""))
	assert.Equal(t, 0.0, parseNumber("n/a"))
	assert.Equal(t, 42.0, parseNumber(" 42 "))
}
