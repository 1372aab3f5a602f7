// Package generator produces the synthetic batch record datasets. A Generator
// is single-threaded and performs no I/O; construct one per concurrent caller.
package generator

import (
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/catalog"
	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

// DefaultSeed is used when no seed is configured.
const DefaultSeed int64 = 42

// Defaults applied when a request leaves a knob unset.
const (
	DefaultBatchesPerDay   = 20
	DefaultComplaintRate   = 0.008
	DefaultCAPABaseCount   = 10
	DefaultReadingsPerDay  = 3
	DefaultBatchesPerStudy = 3
	DefaultReceiptsPerWeek = 5
)

// Generator owns a random context, the reference catalog and the scenario
// provider. Every entity method resets the random context to the seed first,
// so a table depends only on its inputs.
type Generator struct {
	rnd       *core.RandomContext
	seed      int64
	catalog   *catalog.Catalog
	scenarios scenario.Provider
	now       func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the seed used at every generator entry point.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithCatalog replaces the built-in reference data.
func WithCatalog(c *catalog.Catalog) Option {
	return func(g *Generator) {
		if c != nil {
			g.catalog = c
		}
	}
}

// WithScenarios replaces the built-in scenario table.
func WithScenarios(p scenario.Provider) Option {
	return func(g *Generator) {
		if p != nil {
			g.scenarios = p
		}
	}
}

// WithClock sets the reference "now" used for complaint and CAPA status.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		seed:      DefaultSeed,
		catalog:   catalog.Default(),
		scenarios: scenario.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.rnd = core.NewRandomContext(g.seed)
	return g
}

// Seed returns the generator seed.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Catalog returns the reference data in use.
func (g *Generator) Catalog() *catalog.Catalog {
	return g.catalog
}

func (g *Generator) reset() {
	g.rnd.Reset(g.seed)
}

// today is the reference day for status derivation.
func (g *Generator) today() time.Time {
	return core.Day(g.now())
}

func (g *Generator) pick(items []string) string {
	return core.Choose(g.rnd, items)
}

func (g *Generator) pickWeighted(ws []catalog.Weighted) string {
	values, weights := catalog.Values(ws)
	return core.ChooseWeighted(g.rnd, values, weights)
}

// eachDay calls fn for every day in [start, end].
func eachDay(start, end time.Time, fn func(day time.Time)) {
	last := core.Day(end)
	for day := core.Day(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}
