package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/ports"
)

// BuildingGeneratorConfig configures the synthetic simulation generator.
type BuildingGeneratorConfig struct {
	BuildingCount int       `json:"building_count"`
	VariantCount  int       `json:"variant_count"`
	Days          int       `json:"days"`
	StartDate     time.Time `json:"start_date"`
	Seed          int64     `json:"seed"`

	// Planted ground truth: each output's delta responds linearly to the
	// named parameter with the given coefficient.
	Responses []PlantedResponse `json:"responses"`
}

// PlantedResponse is one known parameter-output relationship the generator
// encodes into the synthetic results.
type PlantedResponse struct {
	Parameter   string  `json:"parameter"`
	Output      string  `json:"output"`
	Coefficient float64 `json:"coefficient"`
	Noise       float64 `json:"noise"`
}

// DefaultBuildingConfig returns a small but realistic fixture: one year of
// daily results across a handful of buildings, with lighting power driving
// electricity use.
func DefaultBuildingConfig() BuildingGeneratorConfig {
	return BuildingGeneratorConfig{
		BuildingCount: 3,
		VariantCount:  20,
		Days:          30,
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:          42,
		Responses: []PlantedResponse{
			{Parameter: "Lights.watts_per_area", Output: "Electricity:Facility", Coefficient: 2.0},
			{Parameter: "Material.thickness", Output: "Heating:EnergyTransfer", Coefficient: -1.5},
		},
	}
}

// BuildingDataGenerator produces simulation records and modification logs
// with known sensitivities.
type BuildingDataGenerator struct {
	config BuildingGeneratorConfig
	rng    *rand.Rand
}

// NewBuildingDataGenerator creates a generator with the given config.
func NewBuildingDataGenerator(config BuildingGeneratorConfig) *BuildingDataGenerator {
	return &BuildingDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns the simulation data and the matching modification log.
// Each variant scales every planted parameter by a random factor; the outputs
// move by coefficient * parameter value plus noise, so downstream estimators
// should recover the planted coefficients' ordering.
func (g *BuildingDataGenerator) Generate() (*ports.SimulationData, []dataset.ModificationRecord) {
	data := &ports.SimulationData{
		Base:     make(map[core.BuildingID][]dataset.SimulationRecord),
		Modified: make(map[core.BuildingID][]dataset.SimulationRecord),
	}
	var mods []dataset.ModificationRecord

	for bi := 0; bi < g.config.BuildingCount; bi++ {
		building := fmt.Sprintf("bldg_%02d", bi+1)
		b := core.BuildingID(building)

		baseOutputs := make(map[string]float64, len(g.config.Responses))
		for _, resp := range g.config.Responses {
			baseOutputs[resp.Output] = 100 + g.rng.Float64()*50
		}
		data.Base[b] = g.emitRecords(building, string(core.VariantBase), baseOutputs)

		for vi := 0; vi < g.config.VariantCount; vi++ {
			variant := fmt.Sprintf("variant_%04d", vi+1)
			outputs := make(map[string]float64, len(baseOutputs))
			for k, v := range baseOutputs {
				outputs[k] = v
			}
			for _, resp := range g.config.Responses {
				value := g.rng.Float64() * 10
				mods = append(mods, dataset.ModificationRecord{
					BuildingID: building,
					VariantID:  variant,
					Parameter:  paramField(resp.Parameter),
					ObjectType: paramObject(resp.Parameter),
					ObjectName: paramObject(resp.Parameter) + "_1",
					NewValue:   value,
				})
				outputs[resp.Output] += resp.Coefficient*value + g.rng.NormFloat64()*resp.Noise
			}
			data.Modified[b] = append(data.Modified[b], g.emitRecords(building, variant, outputs)...)
		}
	}
	return data, mods
}

func (g *BuildingDataGenerator) emitRecords(building, variant string, outputs map[string]float64) []dataset.SimulationRecord {
	var records []dataset.SimulationRecord
	for output, daily := range outputs {
		for d := 0; d < g.config.Days; d++ {
			records = append(records, dataset.SimulationRecord{
				BuildingID: building,
				VariantID:  variant,
				Variable:   output + " [J]",
				Zone:       "ZONE_1",
				DateTime:   g.config.StartDate.AddDate(0, 0, d),
				Value:      daily * (0.9 + 0.2*g.rng.Float64()),
				Units:      "J",
			})
		}
	}
	return records
}

// Parameter names follow the ObjectType.field convention of the modification
// log.
func paramObject(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return ""
}

func paramField(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
