// Package writer creates typed relationships exactly once.
package writer

import (
	"context"
	"strings"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/metrics"
	"github.com/sirupsen/logrus"
)

// Strictness controls how a failed post-create verification is reported
type Strictness int

const (
	// StrictnessLenient logs a missing edge after creation as a warning
	StrictnessLenient Strictness = iota
	// StrictnessStrict turns a missing edge after creation into an error
	StrictnessStrict
)

func (s Strictness) String() string {
	if s == StrictnessStrict {
		return "strict"
	}
	return "lenient"
}

// Outcome describes what Ensure did
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCreated
	OutcomeExisting
	OutcomeUnverified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeExisting:
		return "existing"
	case OutcomeUnverified:
		return "unverified"
	}
	return "none"
}

// Option configures a Writer
type Option func(*Writer)

// WithStrictness sets the verification policy
func WithStrictness(s Strictness) Option {
	return func(w *Writer) { w.strictness = s }
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(w *Writer) { w.logger = logger }
}

// Writer ensures relationships through a graph.RelationshipStore
type Writer struct {
	store      graph.RelationshipStore
	strictness Strictness
	logger     logrus.FieldLogger
}

// New creates a writer, lenient by default
func New(store graph.RelationshipStore, opts ...Option) *Writer {
	w := &Writer{
		store:      store,
		strictness: StrictnessLenient,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ensure makes sure exactly one relType edge runs from start to end.
// The check, create and verify steps are separate store calls, so
// concurrent writers on the same pair can still race.
func (w *Writer) Ensure(ctx context.Context, start, end graph.NodeID, relType string) (Outcome, error) {
	const op = "writer.Ensure"

	if !graph.ValidIdentifier(relType) {
		return OutcomeNone, graph.Errorf(op, graph.KindValidation, "invalid relationship type %q", relType)
	}

	log := w.logger.WithFields(logrus.Fields{
		"start_node": start,
		"end_node":   end,
		"rel_type":   relType,
	})

	exists, err := w.store.RelationshipExists(ctx, start, end, relType)
	if err != nil {
		return OutcomeNone, err
	}
	if exists {
		log.Debug("Relationship already exists")
		return OutcomeExisting, nil
	}

	if err := w.store.CreateRelationship(ctx, start, end, relType); err != nil {
		if graph.KindOf(err) == "" {
			err = graph.E(op, graph.KindWrite, err)
		}
		return OutcomeNone, err
	}

	verified, err := w.store.RelationshipExists(ctx, start, end, relType)
	if err != nil {
		return OutcomeNone, err
	}
	if !verified {
		if w.strictness == StrictnessStrict {
			return OutcomeNone, graph.Errorf(op, graph.KindVerification,
				"%s from %d to %d missing after create", relType, start, end)
		}
		log.Warn("Relationship not found after create")
		return OutcomeUnverified, nil
	}

	metrics.RelationshipsWritten.WithLabelValues(relType).Inc()
	log.Debug("Created relationship")
	return OutcomeCreated, nil
}

// RelationType derives a relationship type name from a causal phrase:
// whitespace runs become underscores and letters are upper-cased, so
// "caused by" becomes CAUSED_BY. Phrases that do not yield a safe
// identifier are rejected.
func RelationType(phrase string) (string, error) {
	relType := strings.ToUpper(strings.Join(strings.Fields(phrase), "_"))
	if !graph.ValidIdentifier(relType) {
		return "", graph.Errorf("writer.RelationType", graph.KindValidation,
			"phrase %q does not form a valid relationship type", phrase)
	}
	return relType, nil
}
