package app

import (
	"context"
	"errors"
	"testing"

	"enersense/adapters/stats/methods"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
	"enersense/internal/testkit"
)

type staticMods struct {
	mods []dataset.ModificationRecord
	err  error
}

func (s *staticMods) LoadModifications() ([]dataset.ModificationRecord, error) {
	return s.mods, s.err
}

func TestParameterAnalyzer_RecoversPlantedResponse(t *testing.T) {
	gen := testkit.NewBuildingDataGenerator(testkit.DefaultBuildingConfig())
	data, mods := gen.Generate()

	p, err := NewParameterAnalyzer(Deps{
		DataManager:   &testkit.StaticDataManager{Data: data},
		Modifications: &staticMods{mods: mods},
	}, methods.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	batch, err := p.CalculateSensitivity(context.Background(), AnalysisRequest{
		Aggregation: AggSum,
		Methods:     []sensitivity.Method{sensitivity.MethodCorrelation},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Results) == 0 {
		t.Fatalf("expected correlation results, skips: %v", batch.Skips)
	}

	var planted, cross float64
	for _, r := range batch.Results {
		switch {
		case r.Parameter == "Lights.watts_per_area" && r.OutputVariable == "Electricity:Facility":
			planted = r.Score
		case r.Parameter == "Material.thickness" && r.OutputVariable == "Electricity:Facility":
			cross = r.Score
		}
	}
	if planted < 0.5 {
		t.Errorf("planted lighting response should correlate strongly, got %g", planted)
	}
	if abs(cross) > abs(planted) {
		t.Errorf("unrelated pair (%g) should not outrank the planted one (%g)", cross, planted)
	}

	report := p.GenerateBaseReport(p.AnalysisType(), batch, nil)
	if report.TopParameters[0].Parameter != "Lights.watts_per_area" &&
		report.TopParameters[0].Parameter != "Material.thickness" {
		t.Errorf("top parameter should be a planted one, got %q", report.TopParameters[0].Parameter)
	}
}

func TestParameterAnalyzer_RequiresModificationSource(t *testing.T) {
	_, err := NewParameterAnalyzer(Deps{
		DataManager: &testkit.StaticDataManager{Data: smallData()},
	}, methods.DefaultConfig())
	if err == nil {
		t.Fatal("constructing without a modification source should fail")
	}
}

func TestParameterAnalyzer_ModificationLoadErrorPropagates(t *testing.T) {
	p, err := NewParameterAnalyzer(Deps{
		DataManager:   &testkit.StaticDataManager{Data: smallData()},
		Modifications: &staticMods{err: errors.New("log unreadable")},
	}, methods.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.CalculateSensitivity(context.Background(), AnalysisRequest{}); err == nil {
		t.Fatal("modification load errors must propagate")
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
