// Package scripted replays YAML scenarios as a deterministic capability set,
// market assessor and competitor analyst. It lets the full evaluation run
// without an LLM, a retrieval index or network access.
package scripted

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"dealscout/internal/criteria"
	"dealscout/internal/evidence"
	"dealscout/internal/report"
	"dealscout/internal/scoring"
)

//go:embed scenarios/*.yaml
var scenarioFS embed.FS

// Scenario is a scripted evaluation: the startup, optional custom
// questions, per-question evidence scripts and the branch results.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Startup     report.Startup `yaml:"startup"`
	// Questions overrides the default market question set when non-empty.
	Questions []criteria.Question `yaml:"questions,omitempty"`
	// Evidence is keyed by question key.
	Evidence map[string]QuestionScript `yaml:"evidence"`

	Market             *scoring.MarketEvaluation     `yaml:"market,omitempty"`
	MarketError        string                        `yaml:"market_error,omitempty"`
	Competitor         *scoring.CompetitorEvaluation `yaml:"competitor,omitempty"`
	CompetitorAnalysis *scoring.CompetitorAnalysis   `yaml:"competitor_analysis,omitempty"`
	CompetitorError    string                        `yaml:"competitor_error,omitempty"`
}

// QuestionScript scripts every capability call for one question.
type QuestionScript struct {
	// Documents are returned on every retrieval for the question.
	Documents []evidence.Document `yaml:"documents,omitempty"`
	// Grades answers successive grader calls, fallback grading included.
	// Calls beyond the list grade "no". The grader is not called for an
	// empty context, so such steps consume no entry.
	Grades []bool `yaml:"grades,omitempty"`
	// Rewrites answers successive rewrite calls; missing entries get a
	// generated rephrasing.
	Rewrites []string                `yaml:"rewrites,omitempty"`
	Web      []evidence.SearchResult `yaml:"web,omitempty"`
	// Answer is the generated answer; empty derives one from the context.
	Answer string `yaml:"answer,omitempty"`

	FailRetrieve bool `yaml:"fail_retrieve,omitempty"`
	FailGrade    bool `yaml:"fail_grade,omitempty"`
	FailRewrite  bool `yaml:"fail_rewrite,omitempty"`
	FailSearch   bool `yaml:"fail_search,omitempty"`
	FailGenerate bool `yaml:"fail_generate,omitempty"`
}

// QuestionSet returns the scenario's questions, or the default market set.
func (s *Scenario) QuestionSet() (*criteria.Set, error) {
	if len(s.Questions) == 0 {
		return criteria.DefaultMarket(), nil
	}
	return criteria.NewSet(s.Name, s.Questions...)
}

// Validate checks the startup and that every evidence key names a question.
func (s *Scenario) Validate() error {
	if s.Startup.Name == "" {
		return fmt.Errorf("scenario %q: startup name is required", s.Name)
	}
	set, err := s.QuestionSet()
	if err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	for key := range s.Evidence {
		if _, ok := set.Lookup(key); !ok {
			return fmt.Errorf("scenario %q: evidence for unknown question %q", s.Name, key)
		}
	}
	return nil
}

// LoadScenario reads a scenario by name from the embedded YAML files.
func LoadScenario(name string) (*Scenario, error) {
	data, err := scenarioFS.ReadFile("scenarios/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("scenario %q not found (available: %s): %w",
			name, strings.Join(ListScenarios(), ", "), err)
	}
	return parseScenario(name, data)
}

// LoadScenarioFile reads a scenario from a YAML file on disk.
func LoadScenarioFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return parseScenario(path, data)
}

func parseScenario(name string, data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %q: %w", name, err)
	}
	if s.Name == "" {
		s.Name = name
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns the names of all embedded scenarios, sorted.
func ListScenarios() []string {
	entries, _ := scenarioFS.ReadDir("scenarios")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}
