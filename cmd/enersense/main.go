package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"enersense/adapters/parquetstore"
	"enersense/adapters/relationships"
	"enersense/adapters/stats/methods"
	"enersense/adapters/stats/regional"
	"enersense/adapters/stats/threshold"
	"enersense/adapters/timeslice"
	"enersense/app"
	"enersense/domain/core"
	"enersense/domain/sensitivity"
	"enersense/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "enersense",
		Short: "Sensitivity analysis over parsed EnergyPlus simulation results",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDeltasCmd(),
		newSliceSummaryCmd(),
		newValidateConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildAnalyzer(cfg *config.Config) (*app.ParameterAnalyzer, error) {
	dm := parquetstore.NewDataManager(cfg.Data.Dir)
	deps := app.Deps{
		DataManager:   dm,
		Validation:    dm,
		Modifications: dm,
		ResultStore:   parquetstore.NewResultStore(cfg.Output.Dir, cfg.Output.WriteExcel),
		Slicer:        timeslice.NewSlicer(),
		Relationships: relationships.NewManager(cfg.Data.RelationshipsDir),
		Library:       methods.NewLibrary(),
		Threshold:     threshold.NewAnalyzer(),
		Regional:      regional.NewAnalyzer(),
		CacheSize:     cfg.Analysis.CacheSize,
	}
	statCfg := methods.DefaultConfig()
	statCfg.MinSamples = cfg.Analysis.MinSamples
	statCfg.Seed = cfg.Analysis.Seed
	return app.NewParameterAnalyzer(deps, statCfg)
}

func newAnalyzeCmd() *cobra.Command {
	var (
		resultType  string
		categories  []string
		outputVars  []string
		methodNames []string
		aggregation string
		groupBy     []string
		methodAgg   string
		slicePreset string
		weightByVal bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run parameter sensitivity analysis and persist results",
		Long: `Relate scenario parameter modifications to output deltas.

Example: enersense analyze --methods correlation,regression --time-slice summer_peak`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			analyzer, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}

			slice, err := slicePresetConfig(slicePreset)
			if err != nil {
				return err
			}
			req := app.AnalysisRequest{
				ResultType:         resultType,
				Categories:         categories,
				OutputVariables:    outputVars,
				Aggregation:        aggregation,
				GroupBy:            groupBy,
				Methods:            parseMethods(methodNames),
				MethodAggregation:  sensitivity.Aggregation(methodAgg),
				TimeSlice:          slice,
				UseCache:           true,
				WeightByValidation: weightByVal,
			}

			report, err := analyzer.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	cmd.Flags().StringVar(&resultType, "result-type", "daily", "Result granularity (daily, hourly, monthly)")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Result categories to load (default: all)")
	cmd.Flags().StringSliceVar(&outputVars, "output-vars", nil, "Output variables to analyze (default: all)")
	cmd.Flags().StringSliceVar(&methodNames, "methods", []string{"correlation"}, "Sensitivity methods to run")
	cmd.Flags().StringVar(&aggregation, "aggregation", "sum", "Delta aggregation (sum, mean, max, min)")
	cmd.Flags().StringSliceVar(&groupBy, "groupby", nil, "Delta grouping dimensions (zone, month, units)")
	cmd.Flags().StringVar(&methodAgg, "method-agg", "", "Cross-method score aggregation (mean, median, max, weighted)")
	cmd.Flags().StringVar(&slicePreset, "time-slice", "", "Time slice preset (summer_peak, winter_peak, business_hours)")
	cmd.Flags().BoolVar(&weightByVal, "weight-validation", false, "Weight deltas by building calibration quality")

	return cmd
}

func newDeltasCmd() *cobra.Command {
	var (
		resultType  string
		categories  []string
		outputVars  []string
		aggregation string
		groupBy     []string
	)

	cmd := &cobra.Command{
		Use:   "deltas",
		Short: "Compute base-vs-modified output deltas and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			analyzer, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}
			if _, err := analyzer.LoadSimulationResults(cmd.Context(), resultType, categories, true, nil); err != nil {
				return err
			}
			deltas, err := analyzer.CalculateOutputDeltas(outputVars, aggregation, groupBy)
			if err != nil {
				return err
			}
			return printJSON(deltas)
		},
	}

	cmd.Flags().StringVar(&resultType, "result-type", "daily", "Result granularity")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Result categories to load")
	cmd.Flags().StringSliceVar(&outputVars, "output-vars", nil, "Output variables")
	cmd.Flags().StringVar(&aggregation, "aggregation", "sum", "Aggregation (sum, mean, max, min)")
	cmd.Flags().StringSliceVar(&groupBy, "groupby", nil, "Grouping dimensions")

	return cmd
}

func newSliceSummaryCmd() *cobra.Command {
	var (
		resultType string
		category   string
		building   string
	)

	cmd := &cobra.Command{
		Use:   "slice-summary",
		Short: "Summarize the time coverage of loaded results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			analyzer, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}
			var categories []string
			if category != "" {
				categories = []string{category}
			}
			loaded, err := analyzer.LoadSimulationResults(cmd.Context(), resultType, categories, false, nil)
			if err != nil {
				return err
			}

			slicer := timeslice.NewSlicer()
			summaries := make(map[string]timeslice.Summary)
			for b, records := range loaded.Base {
				if building != "" && b != core.BuildingID(building) {
					continue
				}
				summaries[string(b)] = slicer.GetTimeSliceSummary(records)
			}
			return printJSON(summaries)
		},
	}

	cmd.Flags().StringVar(&resultType, "result-type", "daily", "Result granularity")
	cmd.Flags().StringVar(&category, "category", "", "Result category (default: all)")
	cmd.Flags().StringVar(&building, "building", "", "Restrict to one building")

	return cmd
}

func newValidateConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-config [config.json]",
		Short: "Validate a time-slice config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var slice sensitivity.TimeSliceConfig
			if err := json.Unmarshal(raw, &slice); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			ok, problems := slice.Validate()
			if ok {
				fmt.Println("valid")
				return nil
			}
			fmt.Println("invalid:")
			for _, p := range problems {
				fmt.Println("  - " + p)
			}
			os.Exit(1)
			return nil
		},
	}
	return cmd
}

// slicePresetConfig maps a preset name to a concrete time-slice config.
func slicePresetConfig(name string) (*sensitivity.TimeSliceConfig, error) {
	weekdays := false
	switch name {
	case "":
		return nil, nil
	case "summer_peak":
		return &sensitivity.TimeSliceConfig{
			Enabled:   true,
			SliceType: sensitivity.SliceCombined,
			Months:    sensitivity.CoolingMonths,
			PeakHours: hourSpan(sensitivity.DefaultPeakHours),
		}, nil
	case "winter_peak":
		return &sensitivity.TimeSliceConfig{
			Enabled:   true,
			SliceType: sensitivity.SliceCombined,
			Months:    sensitivity.HeatingMonths,
			PeakHours: hourSpan(sensitivity.DefaultPeakHours),
		}, nil
	case "business_hours":
		return &sensitivity.TimeSliceConfig{
			Enabled:   true,
			SliceType: sensitivity.SliceCombined,
			PeakHours: hourSpan(sensitivity.HourRange{Start: 9, End: 17}),
			Weekend:   &weekdays,
		}, nil
	}
	return nil, fmt.Errorf("unknown time slice preset %q", name)
}

func hourSpan(r sensitivity.HourRange) []int {
	var hours []int
	for h := r.Start; h <= r.End; h++ {
		hours = append(hours, h)
	}
	return hours
}

func parseMethods(names []string) []sensitivity.Method {
	var out []sensitivity.Method
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			out = append(out, sensitivity.Method(n))
		}
	}
	return out
}

func printJSON(v any) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bs))
	return nil
}
