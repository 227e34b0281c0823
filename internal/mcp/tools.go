package mcp

import (
	"risksim/internal/distribution"
	"risksim/internal/simulation"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// RunSimulationInput is the argument object of run_simulation. Every field is
// optional when a template is named.
type RunSimulationInput struct {
	Template                 string             `json:"template,omitempty" jsonschema:"Built-in scenario supplying defaults for every parameter left unset."`
	Iterations               int                `json:"iterations,omitempty" jsonschema:"Number of simulated years (trials). Defaults to the server setting; capped at the server maximum."`
	TimeHorizonYears         float64            `json:"timeHorizonYears,omitempty" jsonschema:"Years covered by one trial. Scales the frequency draw. Default: 1."`
	FrequencyDistribution    *distribution.Spec `json:"frequencyDistribution,omitempty" jsonschema:"Events per year. Usually poisson with lambda."`
	DirectCostDistribution   *distribution.Spec `json:"directCostDistribution,omitempty" jsonschema:"Direct cost of one event (USD)."`
	IndirectCostDistribution *distribution.Spec `json:"indirectCostDistribution,omitempty" jsonschema:"Indirect cost of one event (USD)."`
	OrganizationID           string             `json:"organizationId,omitempty" jsonschema:"Organization owning the assessment. Results are stored when both IDs are set."`
	AssessmentID             string             `json:"assessmentId,omitempty" jsonschema:"Risk assessment the run belongs to."`
	Seed                     *int64             `json:"seed,omitempty" jsonschema:"Seed for a reproducible run. 0 or absent uses the server setting."`
}

// ListTemplatesInput takes no arguments.
type ListTemplatesInput struct{}

// ResultLookupInput identifies a stored assessment.
type ResultLookupInput struct {
	OrganizationID string `json:"organizationId" jsonschema:"Organization owning the assessment."`
	AssessmentID   string `json:"assessmentId" jsonschema:"Risk assessment ID."`
}

// ListResultsInput selects the organization whose runs are listed.
type ListResultsInput struct {
	OrganizationID string `json:"organizationId" jsonschema:"Organization owning the assessments."`
}

func runSimulationSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[RunSimulationInput](nil)
	if err != nil {
		return nil, err
	}
	if p, ok := schema.Properties["template"]; ok {
		for _, name := range simulation.TemplateNames() {
			p.Enum = append(p.Enum, name)
		}
	}
	if p, ok := schema.Properties["iterations"]; ok {
		minIterations := 1.0
		p.Minimum = &minIterations
	}
	if p, ok := schema.Properties["timeHorizonYears"]; ok {
		minHorizon := 0.0
		p.ExclusiveMinimum = &minHorizon
	}
	return schema, nil
}

func (s *Server) registerTools() error {
	runSchema, err := runSimulationSchema()
	if err != nil {
		return err
	}

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name: "run_simulation",
		Description: "Run a Monte Carlo simulation of annual financial loss for one risk scenario. " +
			"Each trial draws an event count from the frequency distribution and sums direct and indirect costs per event. " +
			"Returns EAL, P10/P50/P90, VaR95, threshold exceedance probabilities and a 10-bin equal-population histogram.\n\n" +
			"Name a 'template' to start from a built-in scenario (see 'list_templates'); explicit fields override it. " +
			"A distribution whose kind differs from the template's replaces it entirely.\n\n" +
			"STRICT GUARDRAIL: DO NOT invent loss figures if this tool fails. Report the error and ask for corrected parameters.",
		InputSchema: runSchema,
	}, s.handleRunSimulation)

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "list_templates",
		Description: "List the built-in risk scenarios with their default distributions. Use a name as 'template' in 'run_simulation'.",
	}, s.handleListTemplates)

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "get_simulation_result",
		Description: "Return the most recent stored simulation of an assessment. Runs are stored when 'run_simulation' receives both organizationId and assessmentId.",
	}, s.handleGetSimulationResult)

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "list_simulation_results",
		Description: "List the stored simulation runs of an organization, oldest first, with their headline figures.",
	}, s.handleListSimulationResults)

	return nil
}
