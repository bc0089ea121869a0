// Package resolver maps candidate endpoint references to internal node
// identities.
package resolver

import (
	"context"
	"strconv"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// lookupLimit is two so that ambiguous matches can be reported without
// scanning every match.
const lookupLimit = 2

const (
	strategyInternalID = "internal_id"
	strategyExternalID = "external_id"
	strategyContent    = "content"
)

// Resolver looks up node identities through a graph.NodeFinder
type Resolver struct {
	finder graph.NodeFinder
	logger logrus.FieldLogger
}

// New creates a resolver
func New(finder graph.NodeFinder, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{finder: finder, logger: logger}
}

// Resolve maps a reference to a node. A reference made only of digits is
// an internal id; anything else is matched against the external id
// property. A reference that matches nothing returns false and no error.
func (r *Resolver) Resolve(ctx context.Context, ref string) (graph.NodeID, bool, error) {
	if ref == "" {
		return 0, false, nil
	}

	if isDigits(ref) {
		n, err := strconv.ParseInt(ref, 10, 64)
		if err != nil {
			return 0, false, graph.E("resolver.Resolve", graph.KindResolution,
				errors.Wrapf(err, "parsing internal id %q", ref))
		}
		ids, err := r.finder.FindNodesByID(ctx, graph.NodeID(n), lookupLimit)
		if err != nil {
			return 0, false, err
		}
		return r.pick(strategyInternalID, ref, ids)
	}

	ids, err := r.finder.FindNodesByProperty(ctx, graph.PropExternalID, ref, lookupLimit)
	if err != nil {
		return 0, false, err
	}
	return r.pick(strategyExternalID, ref, ids)
}

// ResolveByContent maps text to the node whose content equals it exactly
func (r *Resolver) ResolveByContent(ctx context.Context, text string) (graph.NodeID, bool, error) {
	if text == "" {
		return 0, false, nil
	}

	ids, err := r.finder.FindNodesByProperty(ctx, graph.PropContent, text, lookupLimit)
	if err != nil {
		return 0, false, err
	}
	return r.pick(strategyContent, text, ids)
}

// pick returns the first match in store order
func (r *Resolver) pick(strategy, key string, ids []graph.NodeID) (graph.NodeID, bool, error) {
	if len(ids) == 0 {
		metrics.ResolutionLookups.WithLabelValues(strategy, "miss").Inc()
		return 0, false, nil
	}

	metrics.ResolutionLookups.WithLabelValues(strategy, "hit").Inc()
	if len(ids) > 1 {
		metrics.ResolutionLookups.WithLabelValues(strategy, "ambiguous").Inc()
		r.logger.WithFields(logrus.Fields{
			"strategy": strategy,
			"key":      truncate(key, 80),
			"node_id":  ids[0],
		}).Debug("Reference matches several nodes, using the first")
	}
	return ids[0], true, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
