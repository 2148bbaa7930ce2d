// Package importer contains the reconciliation core: the mapping
// engines, the entity reconciler, and the registry that runs the
// configured source importers.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownImporter is returned when a run is scoped to an
// identifier no importer registered under.
var ErrUnknownImporter = errors.New("unknown importer")

// Importer imports one provider's records into the canonical catalog.
type Importer interface {
	// Identifier is the stable name the importer registers under.
	Identifier() string

	// ImportFeatures fetches the provider's full record set and
	// reconciles it into features. It must be idempotent: repeated
	// runs against an unchanged source converge on identical data.
	ImportFeatures(ctx context.Context) (*Result, error)
}

// Result summarizes one importer invocation.
type Result struct {
	Identifier       string
	RunID            string
	FeaturesImported int
	Duration         time.Duration
	Err              error
}

// Registry holds the configured importers. Importers are registered
// explicitly at process initialization, in the order they should run;
// there is no runtime discovery.
type Registry struct {
	order     []string
	importers map[string]Importer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{importers: make(map[string]Importer)}
}

// Register adds an importer under its identifier. Registering the
// same identifier twice is a programming error.
func (r *Registry) Register(imp Importer) error {
	id := imp.Identifier()
	if id == "" {
		return errors.New("importer has an empty identifier")
	}
	if _, exists := r.importers[id]; exists {
		return fmt.Errorf("importer %q registered twice", id)
	}
	r.order = append(r.order, id)
	r.importers[id] = imp
	return nil
}

// Identifiers returns the registered identifiers in registration order.
func (r *Registry) Identifiers() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Runner executes registered importers and collects a summary.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, logger: logger}
}

// Summary aggregates the results of one orchestrated run.
type Summary struct {
	Results []Result
}

// Failed returns the results of importers that did not complete.
func (s Summary) Failed() []Result {
	var failed []Result
	for _, res := range s.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Run executes the named importers, or every registered importer in
// registration order when no identifier is given. Unknown identifiers
// fail before any import executes. A failing importer is logged and
// recorded in the summary without stopping the ones after it.
func (r *Runner) Run(ctx context.Context, identifiers ...string) (Summary, error) {
	ids := identifiers
	if len(ids) == 0 {
		ids = r.registry.Identifiers()
	}

	// Resolve everything up front so a typo cannot half-run.
	selected := make([]Importer, 0, len(ids))
	for _, id := range ids {
		imp, ok := r.registry.importers[id]
		if !ok {
			known := r.registry.Identifiers()
			sort.Strings(known)
			return Summary{}, fmt.Errorf("%w: %q (configured importers: %s)",
				ErrUnknownImporter, id, strings.Join(known, ", "))
		}
		selected = append(selected, imp)
	}

	var summary Summary
	for _, imp := range selected {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		runID := uuid.NewString()
		logger := r.logger.With("importer", imp.Identifier(), "run_id", runID)
		logger.Info("importer starting")

		start := time.Now()
		res, err := imp.ImportFeatures(ctx)
		if res == nil {
			res = &Result{}
		}
		res.Identifier = imp.Identifier()
		res.RunID = runID
		res.Duration = time.Since(start)
		res.Err = err

		if err != nil {
			logger.Error("importer failed", "error", err, "duration", res.Duration)
		} else {
			logger.Info("importer finished",
				"features", res.FeaturesImported, "duration", res.Duration)
		}

		summary.Results = append(summary.Results, *res)
	}

	return summary, nil
}
