package evidence

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Document is one retrieved chunk of evidence.
type Document struct {
	Text   string `json:"text" yaml:"text"`
	Source string `json:"source" yaml:"source"`
}

// SearchResult is one web-search hit used by the fallback step.
type SearchResult struct {
	Snippet string `json:"snippet" yaml:"snippet"`
	Source  string `json:"source" yaml:"source"`
}

// Retriever looks up documents for a query in the indexed corpus.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}

// RelevanceGrader decides whether the gathered context answers the question.
type RelevanceGrader interface {
	GradeRelevance(ctx context.Context, question, context string) (bool, error)
}

// QueryRewriter rephrases a question to improve retrieval.
type QueryRewriter interface {
	RewriteQuery(ctx context.Context, question string) (string, error)
}

// AnswerGenerator writes the answer for a question from relevant context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, context string) (string, error)
}

// WebSearcher queries an external search provider.
type WebSearcher interface {
	WebSearch(ctx context.Context, query string) ([]SearchResult, error)
}

// Capabilities bundles the collaborators a Controller needs.
type Capabilities struct {
	Retriever Retriever
	Grader    RelevanceGrader
	Rewriter  QueryRewriter
	Generator AnswerGenerator
	Searcher  WebSearcher
}

// ErrMissingCapability is returned by NewController when a collaborator is nil.
var ErrMissingCapability = errors.New("evidence: missing capability")

func (c Capabilities) validate() error {
	var missing []string
	if c.Retriever == nil {
		missing = append(missing, "retriever")
	}
	if c.Grader == nil {
		missing = append(missing, "grader")
	}
	if c.Rewriter == nil {
		missing = append(missing, "rewriter")
	}
	if c.Generator == nil {
		missing = append(missing, "generator")
	}
	if c.Searcher == nil {
		missing = append(missing, "web searcher")
	}
	if len(missing) > 0 {
		return &missingCapabilityError{names: missing}
	}
	return nil
}

type missingCapabilityError struct{ names []string }

func (e *missingCapabilityError) Error() string {
	return ErrMissingCapability.Error() + ": " + strings.Join(e.names, ", ")
}

func (e *missingCapabilityError) Unwrap() error { return ErrMissingCapability }

// Capability names a collaborator call for outcome reporting.
type Capability string

const (
	CapRetrieve  Capability = "retrieve"
	CapGrade     Capability = "grade"
	CapRewrite   Capability = "rewrite"
	CapGenerate  Capability = "generate"
	CapWebSearch Capability = "web_search"
)

// Outcome is the typed result of one capability call. Failures are carried
// here instead of propagating out of the controller.
type Outcome struct {
	Capability Capability
	OK         bool
	Err        error
	Elapsed    time.Duration
	Detail     string
}
