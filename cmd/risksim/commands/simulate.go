package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"risksim/internal/report"
	"risksim/internal/results"
	"risksim/internal/simulation"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var simulateOpts struct {
	paramsPath   string
	template     string
	iterations   int
	seed         int64
	workers      int
	organization string
	assessment   string
	reportDir    string
	open         bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation and print the result as JSON",
	Long: `Run one Monte Carlo simulation from a parameters JSON file (or stdin with --params -),
a built-in template, or both (file values override the template). The result is printed to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadParameters(cmd.InOrStdin())
		if err != nil {
			return err
		}

		eng := simulation.NewEngine()
		eng.SetWorkers(cfg.Simulation.Workers)
		if cmd.Flags().Changed("workers") {
			eng.SetWorkers(simulateOpts.workers)
		}
		seed := cfg.Simulation.Seed
		if simulateOpts.seed != 0 {
			seed = simulateOpts.seed
		}
		if seed != 0 {
			eng.SetSeed(seed)
		}

		start := time.Now()
		res, err := eng.Run(cmd.Context(), p)
		if err != nil {
			return err
		}
		rec := results.NewRecord(simulateOpts.organization, simulateOpts.assessment, simulateOpts.template, p, res, time.Since(start))

		if rec.OrganizationID != "" && rec.AssessmentID != "" {
			if err := store.Append(rec); err != nil {
				return err
			}
			if err := store.Save(cfg.CacheDir); err != nil {
				return err
			}
		}

		if simulateOpts.reportDir != "" {
			path, err := report.WriteFile(simulateOpts.reportDir, rec)
			if err != nil {
				return err
			}
			log.Info().Str("path", path).Msg("Report written")
			if simulateOpts.open {
				if err := browser.OpenFile(path); err != nil {
					log.Warn().Err(err).Str("path", path).Msg("Failed to open report in browser")
				}
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// loadParameters reads the parameter file named by --params and merges it over
// --template. --iterations wins over both.
func loadParameters(stdin io.Reader) (simulation.Parameters, error) {
	var p simulation.Parameters
	if simulateOpts.paramsPath != "" {
		var r io.Reader = stdin
		if simulateOpts.paramsPath != "-" {
			f, err := os.Open(simulateOpts.paramsPath)
			if err != nil {
				return p, fmt.Errorf("failed to open parameters: %w", err)
			}
			defer f.Close()
			r = f
		}
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return p, fmt.Errorf("%w: %v", simulation.ErrInvalidParameters, err)
		}
	} else if simulateOpts.template == "" {
		return p, fmt.Errorf("either --params or --template is required")
	}

	if simulateOpts.iterations > 0 {
		p.Iterations = simulateOpts.iterations
	}
	if simulateOpts.template != "" {
		merged, err := simulation.ApplyTemplate(simulateOpts.template, p)
		if err != nil {
			return p, err
		}
		p = merged
	}
	if p.Iterations == 0 {
		p.Iterations = cfg.Simulation.DefaultIterations
	}
	if p.Iterations > cfg.Simulation.MaxIterations {
		log.Warn().Int("requested", p.Iterations).Int("max", cfg.Simulation.MaxIterations).Msg("Iterations capped")
		p.Iterations = cfg.Simulation.MaxIterations
	}
	return p, nil
}

func init() {
	f := simulateCmd.Flags()
	f.StringVarP(&simulateOpts.paramsPath, "params", "p", "", "parameters JSON file, or - for stdin")
	f.StringVarP(&simulateOpts.template, "template", "t", "", "built-in template supplying defaults")
	f.IntVarP(&simulateOpts.iterations, "iterations", "n", 0, "number of trials (default from config)")
	f.Int64Var(&simulateOpts.seed, "seed", 0, "random seed (0 uses RISKSIM_SEED or the clock)")
	f.IntVar(&simulateOpts.workers, "workers", 1, "parallel workers")
	f.StringVar(&simulateOpts.organization, "org", "", "organization ID; stores the result together with --assessment")
	f.StringVar(&simulateOpts.assessment, "assessment", "", "assessment ID")
	f.StringVar(&simulateOpts.reportDir, "report", "", "write an HTML report into this directory")
	f.BoolVar(&simulateOpts.open, "open", false, "open the HTML report in the default browser")

	rootCmd.AddCommand(simulateCmd)
}
