// Package policy evaluates the rego rules that pick a research plan for an
// intent and gate writes to the knowledge base.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/xiaot623/scholar/internal/domain"
)

// Engine is the OPA policy engine.
type Engine struct {
	plan       rego.PreparedEvalQuery
	allowWrite rego.PreparedEvalQuery
}

// WriteInput describes a candidate insight write-back.
type WriteInput struct {
	Intent         domain.Intent `json:"intent"`
	ResponseLength int           `json:"response_length"`
	Sources        int           `json:"sources"`
}

// NewEngine prepares the plan and write queries of policyContent.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	prepare := func(query string) (rego.PreparedEvalQuery, error) {
		return rego.New(
			rego.Query(query),
			rego.Module("scholar.rego", policyContent),
		).PrepareForEval(ctx)
	}

	plan, err := prepare("data.scholar.plan")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare plan query: %w", err)
	}
	allowWrite, err := prepare("data.scholar.allow_write")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare write query: %w", err)
	}
	return &Engine{plan: plan, allowWrite: allowWrite}, nil
}

// Plan returns the ordered steps for intent.
func (e *Engine) Plan(ctx context.Context, intent domain.Intent) ([]string, error) {
	results, err := e.plan.Eval(ctx, rego.EvalInput(map[string]interface{}{"intent": string(intent)}))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate plan: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, fmt.Errorf("policy defines no plan for intent %q", intent)
	}

	raw, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("plan has unexpected type %T", results[0].Expressions[0].Value)
	}
	steps := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("plan step has unexpected type %T", v)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// AllowWrite reports whether an insight may be written back.
// Undefined results deny.
func (e *Engine) AllowWrite(ctx context.Context, in WriteInput) (bool, error) {
	results, err := e.allowWrite.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate write policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, _ := results[0].Expressions[0].Value.(bool)
	return allowed, nil
}

// DefaultPolicy is the built-in policy content.
const DefaultPolicy = `
package scholar

default plan = ["Process request", "Generate response"]

plan = ["Extract research topic", "Search for papers", "Analyze findings", "Synthesize results"] {
	input.intent == "research"
}

plan = ["Identify target papers", "Retrieve content", "Analyze content", "Present insights"] {
	input.intent == "analysis"
}

plan = ["Search knowledge base", "Retrieve information", "Formulate response"] {
	input.intent == "knowledge_query"
}

default allow_write = false

writable_intents = {"research", "analysis"}

# Only substantive answers to research work are kept as insights.
allow_write {
	writable_intents[input.intent]
	input.response_length >= 80
}
`
