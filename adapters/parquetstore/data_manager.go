package parquetstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/ports"
)

// DataManager loads parsed simulation outputs from the parquet layout
// produced by the parsing layer:
//
//	<dir>/sql_results/<result_type>/<category>.parquet   (long format)
//	<dir>/comparisons/<category>_comparison.parquet      (base vs variant)
//
// Missing categories or directories are tolerated; the caller gets whatever
// subset exists.
type DataManager struct {
	dir string
}

// NewDataManager creates a data manager over a parsed-data directory.
func NewDataManager(dir string) *DataManager {
	return &DataManager{dir: dir}
}

// LoadSimulationResults implements ports.DataManager. Category files load
// concurrently; rows split into base and modified by variant_id.
func (m *DataManager) LoadSimulationResults(ctx context.Context, opts ports.LoadOptions) (*ports.SimulationData, error) {
	resultType := opts.ResultType
	if resultType == "" {
		resultType = "daily"
	}
	categories := opts.Categories
	if len(categories) == 0 {
		categories = m.discoverCategories(resultType)
	}

	data := &ports.SimulationData{
		Base:     make(map[core.BuildingID][]dataset.SimulationRecord),
		Modified: make(map[core.BuildingID][]dataset.SimulationRecord),
	}
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, category := range categories {
		g.Go(func() error {
			path := filepath.Join(m.dir, "sql_results", resultType, category+".parquet")
			if !Exists(path) {
				log.Printf("Warning: no %s results for category %q (%s missing)", resultType, category, path)
				return nil
			}
			rows, err := ReadRows[dataset.SimulationRecord](path)
			if err != nil {
				return err
			}
			rows = filterVariables(rows, opts.Variables)
			mu.Lock()
			defer mu.Unlock()
			for _, r := range rows {
				b := core.BuildingID(r.BuildingID)
				if core.VariantID(r.VariantID) == core.VariantBase {
					data.Base[b] = append(data.Base[b], r)
				} else if opts.LoadModified {
					data.Modified[b] = append(data.Modified[b], r)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fall back to comparison tables for buildings the parser exported in
	// wide format instead of separate variant runs.
	if opts.LoadModified && len(data.Modified) == 0 {
		if comparison := m.loadComparisons(categories); len(comparison) > 0 {
			data.Comparison = comparison
		}
	}
	return data, nil
}

func (m *DataManager) loadComparisons(categories []string) map[core.BuildingID][]ports.ComparisonRecord {
	out := make(map[core.BuildingID][]ports.ComparisonRecord)
	for _, category := range categories {
		path := filepath.Join(m.dir, "comparisons", category+"_comparison.parquet")
		if !Exists(path) {
			continue
		}
		rows, err := ReadRows[ports.ComparisonRecord](path)
		if err != nil {
			log.Printf("Warning: could not read comparison table %s: %v", path, err)
			continue
		}
		for _, r := range rows {
			b := core.BuildingID(r.BuildingID)
			out[b] = append(out[b], r)
		}
	}
	return out
}

func (m *DataManager) discoverCategories(resultType string) []string {
	dir := filepath.Join(m.dir, "sql_results", resultType)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("Warning: could not list result categories in %s: %v", dir, err)
		return nil
	}
	var categories []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".parquet"); ok && !e.IsDir() {
			categories = append(categories, name)
		}
	}
	return categories
}

func filterVariables(rows []dataset.SimulationRecord, variables []string) []dataset.SimulationRecord {
	if len(variables) == 0 {
		return rows
	}
	out := rows[:0]
	for _, r := range rows {
		for _, v := range variables {
			if dataset.MatchesVariable(r.Variable, v) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// LoadValidationScores implements ports.ValidationSource. The baseline
// summary wins when both baseline and modified summaries exist for a
// building. A missing artifact is not an error.
func (m *DataManager) LoadValidationScores() (map[core.BuildingID]ports.ValidationScore, error) {
	out := make(map[core.BuildingID]ports.ValidationScore)
	for _, name := range []string{"validation_summary_modified.parquet", "validation_summary_baseline.parquet"} {
		path := filepath.Join(m.dir, name)
		if !Exists(path) {
			continue
		}
		rows, err := ReadRows[ValidationRow](path)
		if err != nil {
			log.Printf("Warning: could not read validation summary %s: %v", path, err)
			continue
		}
		for _, r := range rows {
			out[core.BuildingID(r.BuildingID)] = ports.ValidationScore{CVRMSE: r.CVRMSE, NMBE: r.NMBE}
		}
	}
	return out, nil
}

// LoadModifications implements ports.ModificationSource.
func (m *DataManager) LoadModifications() ([]dataset.ModificationRecord, error) {
	path := filepath.Join(m.dir, "modifications", "scenario_params.parquet")
	if !Exists(path) {
		return nil, fmt.Errorf("%w: modification log %s", core.ErrNotFound, path)
	}
	return ReadRows[dataset.ModificationRecord](path)
}
