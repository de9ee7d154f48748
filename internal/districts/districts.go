// Package districts loads, validates and imports district reference data.
package districts

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/huangsam/binforecast/schema"
	"github.com/spf13/viper"
)

//go:embed data/districts.yaml
var embeddedDistricts []byte

// districtsKey is the top-level key holding the district list in a file.
const districtsKey = "districts"

// Default returns the embedded district dataset.
func Default() ([]schema.District, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(embeddedDistricts)); err != nil {
		return nil, fmt.Errorf("read embedded districts: %w", err)
	}
	return decode(v)
}

// Load reads districts from a YAML, JSON or TOML file. An empty path selects
// the embedded dataset.
func Load(path string) ([]schema.District, error) {
	if path == "" {
		return Default()
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read districts file %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) ([]schema.District, error) {
	var out []schema.District
	if err := v.UnmarshalKey(districtsKey, &out); err != nil {
		return nil, fmt.Errorf("decode districts: %w", err)
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate normalizes flood risk casing and checks that districts are usable.
// Districts are modified in place.
func Validate(districts []schema.District) error {
	if len(districts) == 0 {
		return fmt.Errorf("no districts defined")
	}
	seen := make(map[string]struct{}, len(districts))
	for i := range districts {
		d := &districts[i]
		d.ID = strings.TrimSpace(d.ID)
		d.Name = strings.TrimSpace(d.Name)
		if d.ID == "" {
			return fmt.Errorf("district %d has no id", i+1)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("duplicate district id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.Name == "" {
			return fmt.Errorf("district %q has no name", d.ID)
		}
		if d.Population < 0 || d.PopulationDensity < 0 || d.BinCapacity < 0 || d.TotalWaste < 0 {
			return fmt.Errorf("district %q has negative values", d.ID)
		}
		d.FloodRisk = schema.FloodRisk(strings.ToLower(strings.TrimSpace(string(d.FloodRisk))))
		if d.FloodRisk == "" {
			d.FloodRisk = schema.MediumFlood
		}
		if _, ok := schema.ValidFloodRisks[d.FloodRisk]; !ok {
			return fmt.Errorf("district %q has invalid flood risk %q. must be low, medium, high", d.ID, d.FloodRisk)
		}
	}
	return nil
}

// Find returns the district with the given id, or whose name matches case-insensitively.
func Find(districts []schema.District, key string) (schema.District, bool) {
	key = strings.TrimSpace(key)
	for _, d := range districts {
		if d.ID == key {
			return d, true
		}
	}
	for _, d := range districts {
		if strings.EqualFold(d.Name, key) {
			return d, true
		}
	}
	return schema.District{}, false
}
