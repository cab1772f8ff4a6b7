package regional

import (
	"math"
	"testing"

	"enersense/domain/sensitivity"
	"enersense/internal/testkit"
)

func TestPartitionRegions_KMeansSeparatesClearClusters(t *testing.T) {
	kit := testkit.NewKit(3)
	x := testkit.Matrix("chiller_cop", kit.TwoClusterColumn(50, 10))

	regions, err := PartitionRegions(x, sensitivity.RegionalConfig{
		NRegions:     2,
		RegionMethod: sensitivity.RegionKMeans,
	})
	if err != nil {
		t.Fatalf("PartitionRegions failed: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}

	c0 := regions[0].Center()["chiller_cop"]
	c1 := regions[1].Center()["chiller_cop"]
	if math.Abs(c0-c1) < 9 {
		t.Errorf("cluster centers should be at least 9 apart, got %g and %g", c0, c1)
	}
	total := 0
	for _, r := range regions {
		if r.Size < 2 {
			t.Errorf("region %d too small: %d", r.ID, r.Size)
		}
		total += r.Size
	}
	if total != 50 {
		t.Errorf("regions should cover all 50 rows, got %d", total)
	}
}

func TestPartitionRegions_KMeansReducesRegionCountForSmallSamples(t *testing.T) {
	kit := testkit.NewKit(5)
	x := testkit.Matrix("p", kit.TwoClusterColumn(30, 10))

	regions, err := PartitionRegions(x, sensitivity.RegionalConfig{
		NRegions:     10,
		RegionMethod: sensitivity.RegionKMeans,
	})
	if err != nil {
		t.Fatalf("PartitionRegions failed: %v", err)
	}
	// 30 samples cannot support 10 regions; the count drops to n/10 = 3.
	if len(regions) > 3 {
		t.Errorf("expected at most 3 regions for 30 samples, got %d", len(regions))
	}
}

func TestPartitionRegions_GridBinsByValue(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	x := testkit.Matrix("oa_fraction", values)

	regions, err := PartitionRegions(x, sensitivity.RegionalConfig{
		NRegions:     2,
		RegionMethod: sensitivity.RegionGrid,
	})
	if err != nil {
		t.Fatalf("PartitionRegions failed: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expected 2 occupied grid cells, got %d", len(regions))
	}
	if regions[0].Size != 5 || regions[1].Size != 5 {
		t.Errorf("equal-width bins over 0..9 should split 5/5, got %d/%d",
			regions[0].Size, regions[1].Size)
	}
	if c := regions[0].Center()["oa_fraction"]; math.Abs(c-2.25) > 1e-9 {
		t.Errorf("first bin center should be 2.25, got %g", c)
	}
}

func TestPartitionRegions_QuantileOrdersAlongPC1(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(i)
	}
	x := testkit.Matrix("p", values)

	regions, err := PartitionRegions(x, sensitivity.RegionalConfig{
		NRegions:     4,
		RegionMethod: sensitivity.RegionQuantile,
	})
	if err != nil {
		t.Fatalf("PartitionRegions failed: %v", err)
	}
	if len(regions) != 4 {
		t.Fatalf("expected 4 quantile regions, got %d", len(regions))
	}
	total := 0
	for _, r := range regions {
		total += r.Size
		if r.PC1High < r.PC1Low {
			t.Errorf("region %d has inverted PC1 bounds: [%g, %g]", r.ID, r.PC1Low, r.PC1High)
		}
	}
	if total != 40 {
		t.Errorf("quantile regions should cover all rows, got %d of 40", total)
	}
}

func TestAnalyze_EmitsGlobalContext(t *testing.T) {
	kit := testkit.NewKit(9)
	xs, ys := kit.LinearPair(60, 0, 10, 2, 0, 0.01)
	x := testkit.Matrix("wall_u_value", xs)
	y := testkit.Matrix("heating_energy", ys)

	a := NewAnalyzer()
	batch, err := a.Analyze(x, y, sensitivity.RegionalConfig{NRegions: 3})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(batch.Results) == 0 {
		t.Fatal("expected per-region results")
	}
	for _, r := range batch.Results {
		if _, ok := r.Metadata["global_sensitivity"]; !ok {
			t.Fatal("results must carry global_sensitivity context")
		}
		if _, ok := r.Metadata["relative_sensitivity"]; !ok {
			t.Fatal("results must carry relative_sensitivity context")
		}
		if g := r.Meta("global_sensitivity", 0); math.Abs(g) < 0.99 {
			t.Errorf("global correlation of a near-exact linear relation should be ~1, got %g", g)
		}
		if r.Labels["region_method"] != string(sensitivity.RegionKMeans) {
			t.Errorf("default region method should be kmeans, got %q", r.Labels["region_method"])
		}
	}
}

func TestAnalyze_UnknownRegionMethod(t *testing.T) {
	kit := testkit.NewKit(13)
	xs, ys := kit.LinearPair(40, 0, 10, 1, 0, 0.1)

	a := NewAnalyzer()
	_, err := a.Analyze(testkit.Matrix("p", xs), testkit.Matrix("o", ys),
		sensitivity.RegionalConfig{NRegions: 2, RegionMethod: sensitivity.RegionMethod("voronoi")})
	if err == nil {
		t.Fatal("expected an error for an unknown region method")
	}
}

func TestCalculateLocalDerivatives_RecoversLinearSlope(t *testing.T) {
	n := 200
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) / float64(n-1)
		ys[i] = 2 * xs[i]
	}
	x := testkit.Matrix("infiltration_rate", xs)
	y := testkit.Matrix("heating_energy", ys)

	a := NewAnalyzer()
	points := []map[string]float64{{"infiltration_rate": 0.5}}
	batch, err := a.CalculateLocalDerivatives(x, y, points, sensitivity.DefaultRegionalConfig())
	if err != nil {
		t.Fatalf("CalculateLocalDerivatives failed: %v", err)
	}
	if len(batch.Results) != 1 {
		t.Fatalf("expected 1 derivative result, got %d (skips: %v)", len(batch.Results), batch.Skips)
	}

	res := batch.Results[0]
	if d1 := res.Meta("first_derivative", 0); math.Abs(d1-2.0) > 1e-6 {
		t.Errorf("expected first derivative 2.0, got %g", d1)
	}
	if d2 := res.Meta("second_derivative", 1); math.Abs(d2) > 1e-6 {
		t.Errorf("expected zero second derivative on a line, got %g", d2)
	}
}

func TestCalculateLocalDerivatives_SkipsIsolatedPoint(t *testing.T) {
	n := 100
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) / float64(n-1)
		ys[i] = xs[i]
	}
	x := testkit.Matrix("p", xs)
	y := testkit.Matrix("o", ys)

	a := NewAnalyzer()
	// Far outside the observed [0,1] range: no neighbors.
	points := []map[string]float64{{"p": 50.0}}
	batch, err := a.CalculateLocalDerivatives(x, y, points, sensitivity.DefaultRegionalConfig())
	if err != nil {
		t.Fatalf("CalculateLocalDerivatives failed: %v", err)
	}
	if len(batch.Results) != 0 || len(batch.Skips) != 1 {
		t.Errorf("expected 0 results and 1 skip, got %d and %d", len(batch.Results), len(batch.Skips))
	}
}
