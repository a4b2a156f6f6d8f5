package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/bslq/internal/batch"
	"github.com/roach88/bslq/internal/checker"
	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/metadata"
	"github.com/roach88/bslq/internal/query"
	"github.com/roach88/bslq/internal/store"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	store   *store.Store
	checker *checker.Checker
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory metadata store, so scenarios
// never see each other's objects.
//
// Execution flow:
// 1. Create fresh in-memory store
// 2. Import CUE metadata and inline objects
// 3. Parse the query or batch
// 4. Type-check every statement
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with checker debug output sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := importMetadata(ctx, st, scenario); err != nil {
		return nil, err
	}

	params, err := parseParams(scenario.Params)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store: st,
		checker: checker.New(
			checker.WithProvider(st),
			checker.WithParameters(params),
			checker.WithLogger(logger),
		),
		logger: logger,
	}

	result := NewResult()
	if scenario.IsBatch() {
		h.runBatch(scenario, result)
	} else {
		h.runQuery(scenario, result)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"statements", len(result.Statements),
		"pass", result.Pass,
	)
	return result, nil
}

// importMetadata loads the scenario's metadata into st.
func importMetadata(ctx context.Context, st *store.Store, scenario *Scenario) error {
	var objs []*metadata.Object
	if scenario.Metadata != "" {
		static, errs := metadata.LoadCUE(scenario.Metadata)
		if len(errs) > 0 {
			return fmt.Errorf("failed to load metadata: %w", errs[0])
		}
		objs = append(objs, static.Objects()...)
	}
	objs = append(objs, scenario.Objects...)
	if len(objs) == 0 {
		return nil
	}

	if verrs := metadata.Validate(objs); len(verrs) > 0 {
		return fmt.Errorf("invalid metadata: %w", verrs[0])
	}
	if _, err := st.Import(ctx, scenario.Name, objs); err != nil {
		return fmt.Errorf("failed to import metadata: %w", err)
	}
	return nil
}

// parseParams converts parameter type names to resolutions.
func parseParams(params map[string]string) (map[string]ir.TypeResolution, error) {
	out := make(map[string]ir.TypeResolution, len(params))
	for name, typeName := range params {
		typ, err := ir.ParseTypeName(typeName)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		out[name] = typ
	}
	return out, nil
}

func (h *Harness) runQuery(scenario *Scenario, result *Result) {
	parse := query.Parse
	if scenario.Embedded {
		parse = query.ParseEmbedded
	}
	q, err := parse(scenario.Query)
	if err != nil {
		result.ParseError = err.Error()
		return
	}
	result.Statements = append(result.Statements, h.checker.CheckQuery(q))
}

func (h *Harness) runBatch(scenario *Scenario, result *Result) {
	parse := batch.Parse
	if scenario.Embedded {
		parse = batch.ParseEmbedded
	}
	b, err := parse(scenario.Batch)
	if err != nil {
		result.ParseError = err.Error()
		return
	}
	checked := h.checker.CheckBatch(b)
	result.Statements = checked.Results
	plan := b.Plan()
	result.Plan = &plan
}
