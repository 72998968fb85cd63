// Package bql wires the BQL pipeline — parse, validate, plan, resolve,
// traverse, filter, mutate, project — into the single callable interface
// §6 names: Engine.Execute. Grounded on the teacher's
// application/mediator.Mediator request pipeline, collapsed into one
// sequential function since BQL has no separate command/query catalog: a
// single query string decides read vs. write internally.
package bql

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bql/application/bql/binding"
	"bql/application/bql/mutate"
	"bql/application/bql/plan"
	"bql/application/bql/predicate"
	"bql/application/bql/project"
	"bql/application/bql/resolve"
	"bql/application/bql/traverse"
	"bql/application/ports"
	"bql/domain/bql/ast"
	"bql/domain/bql/parser"
	"bql/domain/bql/similarity"
	"bql/domain/bql/validate"
	apperrors "bql/pkg/errors"
	"bql/pkg/observability"
)

// ResultKind discriminates the three success shapes of §6's Result union;
// the Error shape is Execute's error return (see Result).
type ResultKind int

const (
	ResultRows ResultKind = iota
	ResultMutationReport
	ResultDeletePreview
)

// Result is the successful outcome of Engine.Execute. The `Error(kind,
// message, position?)` variant of §6's union is represented instead by
// Execute's ordinary error return (an *errors.AppError) — idiomatic Go
// favors an explicit error over a struct-tagged failure variant.
type Result struct {
	Kind    ResultKind
	Rows    []project.Row
	Report  *mutate.Report
	Preview *mutate.Preview
}

// Limits is the set of hot-reloadable resource caps the engine enforces
// (§5 Resource caps).
type Limits struct {
	MaxHopUpper    int
	MaxSetBatch    int
	MaxDeleteBatch int
}

// Options carries the per-call inputs of §6's engine interface beyond the
// query string itself.
type Options struct {
	Confirm       bool
	ActiveGraphID string
}

// Engine executes BQL query strings against a GraphService.
type Engine struct {
	svc       ports.GraphService
	limitsFn  func() Limits
	scorer    scorerAdapter
	publisher ports.EventPublisher
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// New builds an Engine. limitsFn is called once per Execute, not cached at
// construction time, so a caller backed by infrastructure/config's
// hot-reloadable DynamicConfigManager picks up cap changes without
// restarting. publisher, logger, and metrics may all be nil to skip
// auditing/metrics entirely (the cmd/bqlcli default).
func New(svc ports.GraphService, limitsFn func() Limits, publisher ports.EventPublisher, logger *zap.Logger) *Engine {
	return &Engine{
		svc:       svc,
		limitsFn:  limitsFn,
		scorer:    scorerAdapter{inner: similarity.NewScorer(similarity.DefaultConfig())},
		publisher: publisher,
		logger:    logger,
	}
}

// WithMetrics attaches a Prometheus metrics tracker, returning the same
// Engine for chaining at construction time.
func (e *Engine) WithMetrics(m *observability.Metrics) *Engine {
	e.metrics = m
	return e
}

// scorerAdapter bridges domain/bql/similarity.Scorer's Candidate/Ranked
// shape to resolve.Scorer's, so resolve doesn't need to import the domain
// similarity package by name (it only depends on the narrow interface it
// actually calls).
type scorerAdapter struct {
	inner *similarity.Scorer
}

func (s scorerAdapter) Rank(query string, candidates []resolve.RankCandidate) []resolve.RankedResult {
	in := make([]similarity.Candidate, len(candidates))
	for i, c := range candidates {
		in[i] = similarity.Candidate{NodeID: c.NodeID, Name: c.Name}
	}
	ranked := s.inner.Rank(query, in)
	out := make([]resolve.RankedResult, len(ranked))
	for i, r := range ranked {
		out[i] = resolve.RankedResult{NodeID: r.NodeID, Score: r.Score}
	}
	return out
}

// Execute parses, validates, plans, and runs queryText, returning a Result
// on success or an *errors.AppError (ParseError/SemanticError/
// ResolutionError/LimitExceeded/ServiceError) otherwise.
func (e *Engine) Execute(ctx context.Context, queryText string, opts Options) (*Result, error) {
	start := time.Now()
	result, err := e.execute(ctx, queryText, opts)
	if e.metrics != nil && err == nil {
		e.metrics.RecordQuery(resultKindLabel(result.Kind), time.Since(start))
	}
	return result, err
}

func resultKindLabel(k ResultKind) string {
	switch k {
	case ResultRows:
		return "rows"
	case ResultMutationReport:
		return "mutation_report"
	case ResultDeletePreview:
		return "delete_preview"
	default:
		return "unknown"
	}
}

func (e *Engine) execute(ctx context.Context, queryText string, opts Options) (*Result, error) {
	limits := e.limitsFn()

	q, err := parser.Parse(queryText)
	if err != nil {
		return nil, err
	}
	if err := validate.Validate(q, limits.MaxHopUpper); err != nil {
		return nil, err
	}
	if opts.ActiveGraphID == "" {
		return nil, apperrors.NewResolution("active_graph_id is required")
	}

	b := binding.New()

	if q.Match != nil {
		p, err := plan.Build(q)
		if err != nil {
			return nil, err
		}
		resolver := resolve.NewResolver(e.svc, e.scorer)
		if err := e.runMatch(ctx, opts.ActiveGraphID, q.Match, p, resolver, b); err != nil {
			return nil, err
		}
	}

	switch {
	case q.Delete != nil:
		return e.runDelete(ctx, opts, queryText, q.Delete, b, limits)
	case q.Write != nil || (q.Match != nil && len(q.Match.Set) > 0):
		return e.runWrite(ctx, opts, queryText, q, b, limits)
	default:
		rows := project.Project(q.Return, b, matchPatterns(q))
		return &Result{Kind: ResultRows, Rows: rows}, nil
	}
}

func matchPatterns(q *ast.Query) []ast.Pattern {
	if q.Match == nil {
		return nil
	}
	return q.Match.Patterns
}

// runMatch resolves every pattern left-to-right (§5 Ordering): a pattern's
// first node is resolved (or already bound from an earlier pattern
// sharing the variable), then each relationship is traversed in turn,
// narrowing the target by any independent driver the planner also found
// and by that variable's WHERE post-filters, before becoming the next
// relationship's source.
func (e *Engine) runMatch(ctx context.Context, activeGraphID string, m *ast.MatchPart, p *plan.Plan, resolver *resolve.Resolver, b *binding.Binding) error {
	for pi, pat := range m.Patterns {
		sourceVar := pat.Nodes[0].Variable
		if _, ok := b.Candidates[sourceVar]; !ok {
			vp := p.Vars[sourceVar]
			candidates, err := resolveVar(ctx, activeGraphID, vp, resolver)
			if err != nil {
				return err
			}
			b.Candidates[sourceVar] = filterByPredicates(candidates, vp.PostFilters)
		}

		for ri, rel := range pat.Rels {
			targetVar := pat.Nodes[ri+1].Variable
			tr, err := traverse.Execute(ctx, e.svc, activeGraphID, b.Candidates[sourceVar], rel)
			if err != nil {
				return err
			}

			targets := tr.Targets
			vp := p.Vars[targetVar]
			if vp.Strategy != plan.StrategyTraversal {
				independent, err := resolver.Resolve(ctx, activeGraphID, vp)
				if err != nil {
					return err
				}
				targets = intersectByID(targets, independent)
			}
			targets = filterByPredicates(targets, vp.PostFilters)

			key := rel.Variable
			if key == "" {
				key = binding.PositionalEdgeKey(pi, ri)
			}
			b.Candidates[targetVar] = targets
			b.Edges[key] = tr.Edges

			sourceVar = targetVar
		}
	}
	return nil
}

func resolveVar(ctx context.Context, activeGraphID string, vp *plan.VarPlan, resolver *resolve.Resolver) ([]ports.NodeRecord, error) {
	if vp.Strategy == plan.StrategyTraversal {
		return nil, apperrors.NewResolution("variable " + vp.Var + " is downstream-only and was not reached by any traversal")
	}
	return resolver.Resolve(ctx, activeGraphID, vp)
}

func filterByPredicates(candidates []ports.NodeRecord, atoms []ast.Expr) []ports.NodeRecord {
	if len(atoms) == 0 {
		return candidates
	}
	var out []ports.NodeRecord
	for _, c := range candidates {
		if predicate.EvalAll(atoms, c) {
			out = append(out, c)
		}
	}
	return out
}

func intersectByID(a, b []ports.NodeRecord) []ports.NodeRecord {
	allowed := make(map[string]bool, len(b))
	for _, n := range b {
		allowed[n.ID] = true
	}
	var out []ports.NodeRecord
	for _, n := range a {
		if allowed[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

func (e *Engine) runWrite(ctx context.Context, opts Options, queryText string, q *ast.Query, b *binding.Binding, limits Limits) (*Result, error) {
	executor := mutate.NewExecutor(e.svc, limits.MaxSetBatch, limits.MaxDeleteBatch, e.publisher, e.logger).WithMetrics(e.metrics)

	var report *mutate.Report
	switch {
	case q.Write != nil && q.Write.Create != nil:
		r, err := executor.ExecuteCreate(ctx, opts.ActiveGraphID, queryText, q.Write.Create.Patterns, b)
		if err != nil {
			return nil, err
		}
		report = r
	case q.Write != nil && q.Write.Merge != nil:
		r, err := executor.ExecuteMerge(ctx, opts.ActiveGraphID, queryText, q.Write.Merge, b)
		if err != nil {
			return nil, err
		}
		report = r
	}

	if report == nil {
		report = &mutate.Report{}
	}
	if q.Match != nil && len(q.Match.Set) > 0 {
		r, err := executor.ExecuteSet(ctx, opts.ActiveGraphID, queryText, q.Match.Set, b)
		if err != nil {
			return nil, err
		}
		report.Updated = append(report.Updated, r.Updated...)
	}

	return &Result{Kind: ResultMutationReport, Report: report}, nil
}

func (e *Engine) runDelete(ctx context.Context, opts Options, queryText string, del *ast.DeletePart, b *binding.Binding, limits Limits) (*Result, error) {
	executor := mutate.NewExecutor(e.svc, limits.MaxSetBatch, limits.MaxDeleteBatch, e.publisher, e.logger).WithMetrics(e.metrics)
	preview, report, err := executor.ExecuteDelete(ctx, opts.ActiveGraphID, queryText, del, b, opts.Confirm)
	if err != nil {
		return nil, err
	}
	if preview != nil {
		return &Result{Kind: ResultDeletePreview, Preview: preview}, nil
	}
	return &Result{Kind: ResultMutationReport, Report: report}, nil
}
