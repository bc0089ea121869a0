// Package ingest drives an enrichment run: node export, analysis,
// decoding and per-candidate relationship ingestion.
package ingest

import (
	"context"
	"time"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/analyzer"
	"github.com/athapong/kg-enricher/pkg/graph/metrics"
	"github.com/athapong/kg-enricher/pkg/graph/resolver"
	"github.com/athapong/kg-enricher/pkg/graph/writer"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Analyzer turns a node export into raw candidate output
type Analyzer interface {
	Analyze(ctx context.Context, nodes []graph.ExportedNode) ([]byte, error)
}

// Options tunes a Pipeline
type Options struct {
	Logger     logrus.FieldLogger
	Strictness writer.Strictness
}

// Pipeline runs the enrichment state machine. Candidates are processed
// one at a time, so later candidates observe edges written by earlier ones.
type Pipeline struct {
	store    graph.Store
	analyzer Analyzer
	resolver *resolver.Resolver
	writer   *writer.Writer
	logger   logrus.FieldLogger
}

// NewPipeline creates a pipeline over a store and an analyzer
func NewPipeline(store graph.Store, a Analyzer, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Pipeline{
		store:    store,
		analyzer: a,
		resolver: resolver.New(store, logger),
		writer:   writer.New(store, writer.WithStrictness(opts.Strictness), writer.WithLogger(logger)),
		logger:   logger,
	}
}

// Run performs a full enrichment run. The returned report is never nil;
// on a fatal error it records the last state reached.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := newReport(uuid.New().String())
	log := p.logger.WithField("run_id", report.RunID)
	log.Info("Starting enrichment run")

	err := p.run(ctx, report, log)
	p.finish(report, log, err)
	return report, err
}

// IngestCandidates runs only the ingestion steps over already decoded
// candidates, e.g. when replaying a saved analyzer output.
func (p *Pipeline) IngestCandidates(ctx context.Context, candidates *graph.Candidates) (*Report, error) {
	report := newReport(uuid.New().String())
	report.State = StateCandidatesDecoded
	log := p.logger.WithField("run_id", report.RunID)
	log.WithField("candidates", candidates.Total()).Info("Starting candidate ingestion")

	err := p.ingestAll(ctx, report, log, candidates)
	p.finish(report, log, err)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, report *Report, log logrus.FieldLogger) error {
	if p.analyzer == nil {
		return graph.Errorf("ingest.Run", graph.KindAnalyzer, "no analyzer configured")
	}

	var nodes []graph.Node
	err := observeStage("export", func() error {
		var err error
		nodes, err = p.store.ListNodes(ctx)
		return err
	})
	if err != nil {
		return err
	}

	export := make([]graph.ExportedNode, 0, len(nodes))
	for _, n := range nodes {
		export = append(export, n.Export())
	}
	report.NodesExported = len(export)
	report.State = StateNodesExported
	metrics.NodesExported.Set(float64(len(export)))
	log.WithField("nodes", len(export)).Info("Exported nodes")

	var output []byte
	err = observeStage("analyze", func() error {
		var err error
		output, err = p.analyzer.Analyze(ctx, export)
		if err != nil && graph.KindOf(err) == "" {
			err = graph.E("ingest.Run", graph.KindAnalyzer, err)
		}
		return err
	})
	if err != nil {
		return err
	}
	report.State = StateAnalysisInvoked

	var candidates *graph.Candidates
	err = observeStage("decode", func() error {
		var err error
		candidates, err = analyzer.Decode(output)
		return err
	})
	if err != nil {
		return err
	}
	report.State = StateCandidatesDecoded
	log.WithFields(logrus.Fields{
		"similar_pairs":      len(candidates.Similar),
		"keyword_pairs":      len(candidates.Keyword),
		"causal_pairs":       len(candidates.Causal),
		"hierarchical_pairs": len(candidates.Hierarchical),
	}).Info("Decoded candidates")

	return p.ingestAll(ctx, report, log, candidates)
}

func (p *Pipeline) finish(report *Report, log logrus.FieldLogger, err error) {
	report.FinishedAt = time.Now()
	totals := report.Totals()
	fields := logrus.Fields{
		"state":      report.State,
		"seen":       totals.Seen,
		"created":    totals.Created,
		"existing":   totals.Existing,
		"unverified": totals.Unverified,
		"skipped":    totals.Skipped,
		"failed":     totals.Failed,
		"duration":   report.FinishedAt.Sub(report.StartedAt),
	}

	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		log.WithFields(fields).WithError(err).Error("Enrichment run aborted")
		return
	}
	metrics.RunsTotal.WithLabelValues("success").Inc()
	log.WithFields(fields).Info("Enrichment run completed")
}

func (p *Pipeline) ingestAll(ctx context.Context, report *Report, log logrus.FieldLogger, candidates *graph.Candidates) error {
	if candidates == nil {
		candidates = &graph.Candidates{}
	}

	for _, category := range graph.Categories {
		requests := edgeRequests(category, candidates)
		err := observeStage("ingest_"+string(category), func() error {
			return p.ingestCategory(ctx, report, log.WithField("category", category), category, requests)
		})
		if err != nil {
			return err
		}
		report.State = ingestedState[category]
	}

	report.State = StateDone
	return nil
}

func (p *Pipeline) ingestCategory(ctx context.Context, report *Report, log logrus.FieldLogger, category graph.Category, requests []edgeRequest) error {
	stats := report.Categories[category]
	log.WithField("candidates", len(requests)).Info("Ingesting candidates")

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.Seen++
		outcome, err := p.ingestOne(ctx, log, req)
		if err != nil {
			if graph.IsFatal(err) {
				return err
			}
			stats.Failed++
			metrics.CandidatesProcessed.WithLabelValues(string(category), "failed").Inc()
			log.WithFields(req.fields()).WithError(err).Error("Failed to ingest candidate")
			continue
		}

		switch outcome.result {
		case resultSkipped:
			stats.Skipped++
		case resultCreated:
			stats.Created++
			report.Edges = append(report.Edges, outcome.edge)
		case resultExisting:
			stats.Existing++
		case resultUnverified:
			stats.Unverified++
			report.Edges = append(report.Edges, outcome.edge)
		}
		metrics.CandidatesProcessed.WithLabelValues(string(category), string(outcome.result)).Inc()
	}
	return nil
}

type result string

const (
	resultSkipped    result = "skipped"
	resultCreated    result = "created"
	resultExisting   result = "existing"
	resultUnverified result = "unverified"
)

type ingestOutcome struct {
	result result
	edge   graph.Relationship
}

// ingestOne resolves both endpoints of a request and ensures its edge.
// Fatal errors are returned as is; everything else concerns this
// candidate only.
func (p *Pipeline) ingestOne(ctx context.Context, log logrus.FieldLogger, req edgeRequest) (ingestOutcome, error) {
	if req.err != nil {
		return ingestOutcome{}, req.err
	}

	var (
		start, end graph.NodeID
		found      bool
		err        error
	)

	if req.startByContent {
		start, found, err = p.resolver.ResolveByContent(ctx, req.startRef)
	} else {
		start, found, err = p.resolver.Resolve(ctx, req.startRef)
	}
	if err != nil {
		return ingestOutcome{}, err
	}
	if !found {
		log.WithFields(req.fields()).Debug("Start node not found, skipping candidate")
		return ingestOutcome{result: resultSkipped}, nil
	}

	end, found, err = p.resolver.Resolve(ctx, req.endRef)
	if err != nil {
		return ingestOutcome{}, err
	}
	if !found {
		log.WithFields(req.fields()).Debug("End node not found, skipping candidate")
		return ingestOutcome{result: resultSkipped}, nil
	}

	edge := graph.Relationship{Start: start, End: end, Type: req.relType}
	outcome, err := p.writer.Ensure(ctx, start, end, req.relType)
	if err != nil {
		return ingestOutcome{}, err
	}

	switch outcome {
	case writer.OutcomeCreated:
		return ingestOutcome{result: resultCreated, edge: edge}, nil
	case writer.OutcomeUnverified:
		return ingestOutcome{result: resultUnverified, edge: edge}, nil
	default:
		return ingestOutcome{result: resultExisting, edge: edge}, nil
	}
}

func observeStage(stage string, fn func() error) error {
	timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues(stage))
	defer timer.ObserveDuration()
	return fn()
}
