package mcp

import (
	"context"
	"fmt"
	"time"

	"risksim/internal/results"
	"risksim/internal/simulation"
	"risksim/internal/stats"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// SimulationOutput is the structured result of run_simulation.
type SimulationOutput struct {
	RunID           string                `json:"runId"`
	Template        string                `json:"template,omitempty"`
	Parameters      simulation.Parameters `json:"parameters"`
	Result          *stats.Result         `json:"result"`
	Context         RiskContext           `json:"context"`
	ExecutionTimeMs int64                 `json:"executionTimeMs"`
	Stored          bool                  `json:"stored"`
	Insights        []string              `json:"insights,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
	Charts          map[string]string     `json:"charts,omitempty"`
}

// RiskContext carries secondary figures that help interpret a result.
type RiskContext struct {
	AnalyticEAL         float64 `json:"analyticEal"`
	ExpectedShortfall95 float64 `json:"expectedShortfall95"`
	StdDev              float64 `json:"stdDev"`
	ZeroLossProbability float64 `json:"zeroLossProbability"`
}

// TemplatesOutput is the result of list_templates.
type TemplatesOutput struct {
	Templates []simulation.Template `json:"templates"`
}

// StoredResult is a persisted run as returned to clients.
type StoredResult struct {
	RunID           string                `json:"runId"`
	OrganizationID  string                `json:"organizationId"`
	AssessmentID    string                `json:"assessmentId"`
	Template        string                `json:"template,omitempty"`
	Parameters      simulation.Parameters `json:"parameters"`
	Result          *stats.Result         `json:"result"`
	ExecutionTimeMs int64                 `json:"executionTimeMs"`
	CreatedAt       string                `json:"createdAt"`
}

// RunSummary is one line of list_simulation_results.
type RunSummary struct {
	RunID        string  `json:"runId"`
	AssessmentID string  `json:"assessmentId"`
	Template     string  `json:"template,omitempty"`
	EALAmount    float64 `json:"ealAmount"`
	VaR95        float64 `json:"var95"`
	CreatedAt    string  `json:"createdAt"`
}

// ResultsOutput is the result of list_simulation_results.
type ResultsOutput struct {
	OrganizationID string       `json:"organizationId"`
	Runs           []RunSummary `json:"runs"`
}

func (s *Server) handleRunSimulation(ctx context.Context, _ *sdk.CallToolRequest, in RunSimulationInput) (*sdk.CallToolResult, SimulationOutput, error) {
	p, warnings, err := s.resolveParameters(in)
	if err != nil {
		return nil, SimulationOutput{}, err
	}

	eng := simulation.NewEngine()
	eng.SetWorkers(s.cfg.Simulation.Workers)
	seed := s.cfg.Simulation.Seed
	if in.Seed != nil && *in.Seed != 0 {
		seed = *in.Seed
	}
	if seed != 0 {
		eng.SetSeed(seed)
	}

	start := time.Now()
	losses, err := eng.Simulate(ctx, p)
	if err != nil {
		return nil, SimulationOutput{}, err
	}
	res, err := stats.Summarize(losses)
	if err != nil {
		return nil, SimulationOutput{}, err
	}
	elapsed := time.Since(start)

	rec := results.NewRecord(in.OrganizationID, in.AssessmentID, in.Template, p, res, elapsed)
	out := SimulationOutput{
		RunID:           rec.ID,
		Template:        in.Template,
		Parameters:      p,
		Result:          res,
		Context:         riskContext(p, losses),
		ExecutionTimeMs: rec.ExecutionTimeMs,
	}
	out.Insights, out.Warnings = interpret(p, res, out.Context)
	out.Warnings = append(warnings, out.Warnings...)
	if s.cfg.EnableMermaidCharts {
		out.Charts = charts(res)
	}

	if in.OrganizationID != "" && in.AssessmentID != "" {
		if err := s.store.Append(rec); err != nil {
			return nil, SimulationOutput{}, err
		}
		s.persist()
		out.Stored = true
	}

	log.Info().
		Str("runId", rec.ID).
		Str("template", in.Template).
		Int("iterations", p.Iterations).
		Float64("eal", res.EALAmount).
		Int64("ms", rec.ExecutionTimeMs).
		Msg("Simulation completed")

	return nil, out, nil
}

// resolveParameters merges the input over its template and applies server
// defaults and limits.
func (s *Server) resolveParameters(in RunSimulationInput) (simulation.Parameters, []string, error) {
	var warnings []string

	p := simulation.Parameters{
		Iterations:       in.Iterations,
		TimeHorizonYears: in.TimeHorizonYears,
	}
	if in.FrequencyDistribution != nil {
		p.FrequencyDistribution = *in.FrequencyDistribution
	}
	if in.DirectCostDistribution != nil {
		p.DirectCostDistribution = *in.DirectCostDistribution
	}
	if in.IndirectCostDistribution != nil {
		p.IndirectCostDistribution = *in.IndirectCostDistribution
	}

	if in.Template != "" {
		merged, err := simulation.ApplyTemplate(in.Template, p)
		if err != nil {
			return simulation.Parameters{}, nil, err
		}
		p = merged
	} else {
		var missing []string
		if in.FrequencyDistribution == nil {
			missing = append(missing, "frequencyDistribution")
		}
		if in.DirectCostDistribution == nil {
			missing = append(missing, "directCostDistribution")
		}
		if in.IndirectCostDistribution == nil {
			missing = append(missing, "indirectCostDistribution")
		}
		if len(missing) > 0 {
			return simulation.Parameters{}, nil, fmt.Errorf("%w: %v required when no template is named", simulation.ErrInvalidParameters, missing)
		}
	}

	if p.Iterations == 0 {
		p.Iterations = s.cfg.Simulation.DefaultIterations
	}
	if p.TimeHorizonYears == 0 {
		p.TimeHorizonYears = 1
	}
	if limit := s.cfg.Simulation.MaxIterations; limit > 0 && p.Iterations > limit {
		warnings = append(warnings, fmt.Sprintf("Iterations capped at %d (requested %d).", limit, p.Iterations))
		p.Iterations = limit
	}
	return p, warnings, nil
}

func (s *Server) handleListTemplates(_ context.Context, _ *sdk.CallToolRequest, _ ListTemplatesInput) (*sdk.CallToolResult, TemplatesOutput, error) {
	return nil, TemplatesOutput{Templates: simulation.Templates()}, nil
}

func (s *Server) handleGetSimulationResult(_ context.Context, _ *sdk.CallToolRequest, in ResultLookupInput) (*sdk.CallToolResult, StoredResult, error) {
	rec, err := s.store.Latest(in.OrganizationID, in.AssessmentID)
	if err != nil {
		return nil, StoredResult{}, err
	}
	return nil, toStoredResult(rec), nil
}

func (s *Server) handleListSimulationResults(_ context.Context, _ *sdk.CallToolRequest, in ListResultsInput) (*sdk.CallToolResult, ResultsOutput, error) {
	out := ResultsOutput{OrganizationID: in.OrganizationID, Runs: []RunSummary{}}
	for _, rec := range s.store.List(in.OrganizationID) {
		out.Runs = append(out.Runs, RunSummary{
			RunID:        rec.ID,
			AssessmentID: rec.AssessmentID,
			Template:     rec.Template,
			EALAmount:    rec.Result.EALAmount,
			VaR95:        rec.Result.VaR95,
			CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

func toStoredResult(rec results.Record) StoredResult {
	return StoredResult{
		RunID:           rec.ID,
		OrganizationID:  rec.OrganizationID,
		AssessmentID:    rec.AssessmentID,
		Template:        rec.Template,
		Parameters:      rec.Parameters,
		Result:          rec.Result,
		ExecutionTimeMs: rec.ExecutionTimeMs,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
	}
}
