// Package mcp exposes decision aggregation and scripted evaluations as MCP
// tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"dealscout/adapters/scripted"
	"dealscout/internal/criteria"
	"dealscout/internal/decision"
	"dealscout/internal/evidence"
	"dealscout/internal/logging"
	"dealscout/internal/orchestrate"
	"dealscout/internal/report"
	"dealscout/internal/scoring"
	"dealscout/internal/store"
)

// Version is reported in the MCP implementation info.
var Version = "dev"

// Server wraps the MCP SDK server and the evaluation policies it applies.
type Server struct {
	MCPServer *sdkmcp.Server
	Policies  orchestrate.Policies
	// Store, when set, receives every evaluate_scenario report.
	Store store.Store
	// Observer, when set, receives controller events.
	Observer evidence.Observer
}

// NewServer creates an MCP server with the dealscout tools registered.
func NewServer(p orchestrate.Policies) *Server {
	s := &Server{Policies: p}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "dealscout", Version: Version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "decide",
		Description: "Aggregate a market evaluation and a competitor evaluation (or free-form competitor analysis) into a YES/NO investment decision with confidence, rationale and next actions.",
	}, s.handleDecide)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "normalize",
		Description: "Normalize a market evaluation (direct, scorecard or Bessemer scales) and/or a competitor evaluation to scores in [0,1].",
	}, s.handleNormalize)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_questions",
		Description: "List the criterion questions evidence is gathered against. Defaults to the built-in market set.",
	}, s.handleListQuestions)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_scenarios",
		Description: "List the embedded scripted evaluation scenarios.",
	}, s.handleListScenarios)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "evaluate_scenario",
		Description: "Run a scripted scenario end to end (evidence gathering, market and competitor branches, aggregation) and return the decision with a Markdown report.",
	}, s.handleEvaluateScenario)
}

// --- Tool input/output types ---

type normalizeOutput struct {
	MarketScore     float64        `json:"market_score"`
	MarketMethod    scoring.Method `json:"market_method"`
	CompetitorScore float64        `json:"competitor_score"`
}

type listQuestionsInput struct {
	Path string `json:"path,omitempty" jsonschema:"YAML or JSON question set file; empty for the built-in market set"`
}

type listScenariosInput struct{}

type listScenariosOutput struct {
	Scenarios []string `json:"scenarios"`
}

type evaluateScenarioInput struct {
	Scenario string `json:"scenario" jsonschema:"embedded scenario name (see list_scenarios)"`
}

type evaluateScenarioOutput struct {
	RunID       string           `json:"run_id"`
	Startup     string           `json:"startup"`
	Decision    decision.Output  `json:"decision"`
	Summary     evidence.Summary `json:"summary"`
	Steps       int              `json:"steps"`
	Aborted     bool             `json:"aborted"`
	AbortReason string           `json:"abort_reason,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
	Stored      bool             `json:"stored"`
	Markdown    string           `json:"markdown"`
}

// --- Handlers ---

func (s *Server) handleDecide(_ context.Context, _ *sdkmcp.CallToolRequest, input orchestrate.DecideRequest) (*sdkmcp.CallToolResult, decision.Output, error) {
	out, err := orchestrate.Decide(input, s.Policies)
	if err != nil {
		return nil, decision.Output{}, err
	}
	return nil, out, nil
}

func (s *Server) handleNormalize(_ context.Context, _ *sdkmcp.CallToolRequest, input orchestrate.DecideRequest) (*sdkmcp.CallToolResult, normalizeOutput, error) {
	if input.Market == nil && input.Competitor == nil && input.CompetitorAnalysis == nil {
		return nil, normalizeOutput{}, errors.New("normalize: no evaluations given")
	}
	m, c, err := input.Evaluations()
	if err != nil {
		return nil, normalizeOutput{}, err
	}
	score, method := scoring.ScoreMarket(m, s.Policies.Scoring)
	return nil, normalizeOutput{
		MarketScore:     score,
		MarketMethod:    method,
		CompetitorScore: scoring.NormalizeCompetitor(c),
	}, nil
}

func (s *Server) handleListQuestions(_ context.Context, _ *sdkmcp.CallToolRequest, input listQuestionsInput) (*sdkmcp.CallToolResult, criteria.Set, error) {
	set := criteria.DefaultMarket()
	if input.Path != "" {
		var err error
		if set, err = criteria.LoadFromPath(input.Path); err != nil {
			return nil, criteria.Set{}, err
		}
	}
	return nil, *set, nil
}

func (s *Server) handleListScenarios(_ context.Context, _ *sdkmcp.CallToolRequest, _ listScenariosInput) (*sdkmcp.CallToolResult, listScenariosOutput, error) {
	return nil, listScenariosOutput{Scenarios: scripted.ListScenarios()}, nil
}

func (s *Server) handleEvaluateScenario(ctx context.Context, _ *sdkmcp.CallToolRequest, input evaluateScenarioInput) (*sdkmcp.CallToolResult, evaluateScenarioOutput, error) {
	sc, err := scripted.LoadScenario(input.Scenario)
	if err != nil {
		return nil, evaluateScenarioOutput{}, err
	}
	rep, err := EvaluateScenario(ctx, sc, s.Policies, s.Observer)
	if err != nil {
		return nil, evaluateScenarioOutput{}, err
	}

	stored := false
	if s.Store != nil {
		if err := s.Store.SaveReport(rep); err != nil {
			return nil, evaluateScenarioOutput{}, fmt.Errorf("store report: %w", err)
		}
		stored = true
	}
	logging.New("mcp").Info("scenario evaluated", "scenario", sc.Name, "run_id", rep.RunID, "decision", rep.Decision.Decision)

	return nil, evaluateScenarioOutput{
		RunID:       rep.RunID,
		Startup:     rep.Startup.Name,
		Decision:    rep.Decision,
		Summary:     rep.Summary,
		Steps:       rep.Steps,
		Aborted:     rep.Aborted,
		AbortReason: rep.AbortReason,
		Warnings:    rep.Warnings,
		Stored:      stored,
		Markdown:    report.Markdown(rep),
	}, nil
}

// EvaluateScenario replays sc through a fresh orchestrator.
func EvaluateScenario(ctx context.Context, sc *scripted.Scenario, p orchestrate.Policies, obs evidence.Observer) (*report.Report, error) {
	adapter, err := scripted.New(sc)
	if err != nil {
		return nil, err
	}
	set, err := sc.QuestionSet()
	if err != nil {
		return nil, err
	}
	var opts []orchestrate.Option
	if obs != nil {
		opts = append(opts, orchestrate.WithObserver(obs))
	}
	orc, err := orchestrate.New(adapter.Capabilities(), adapter, adapter, p, opts...)
	if err != nil {
		return nil, err
	}
	return orc.Evaluate(ctx, orchestrate.Request{Startup: sc.Startup, Questions: set})
}
