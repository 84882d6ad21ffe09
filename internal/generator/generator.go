// Package generator produces synthetic node property sets for load testing
// the import path.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config drives the synthetic data generator.
type Config struct {
	NumNodes int
	// SharedAttributeChance is the probability that a node reuses an email or
	// city already handed to an earlier node.
	SharedAttributeChance float64
	Seed                  int64
	// Label is stored under the "kind" property of every node.
	Label string
}

// DefaultConfig returns baseline settings.
func DefaultConfig() Config {
	return Config{
		NumNodes:              1000,
		SharedAttributeChance: 0.2,
		Seed:                  42,
		Label:                 "Person",
	}
}

// Generator produces node property maps.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
	pools         attributePools
	now           time.Time
}

// New returns a configured Generator instance. Zero fields take defaults; a
// zero seed is replaced by the current time.
func New(cfg Config) *Generator {
	if cfg.NumNodes <= 0 {
		cfg.NumNodes = DefaultConfig().NumNodes
	}
	if cfg.SharedAttributeChance < 0 {
		cfg.SharedAttributeChance = 0
	}
	if cfg.SharedAttributeChance > 1 {
		cfg.SharedAttributeChance = 1
	}
	if cfg.Label == "" {
		cfg.Label = DefaultConfig().Label
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
		now:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate synthesises cfg.NumNodes property maps. It respects context
// cancellation. The same seed always yields the same nodes.
func (g *Generator) Generate(ctx context.Context) ([]map[string]any, error) {
	nodes := make([]map[string]any, g.cfg.NumNodes)
	for i := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		first := g.pick(g.nameFragments.first)
		last := g.pick(g.nameFragments.last)
		email := g.maybeShared(&g.pools.emails, func() string {
			return fmt.Sprintf("%s.%s%d@%s", first, last, i+1, g.pick(g.nameFragments.domains))
		})
		city := g.maybeShared(&g.pools.cities, func() string { return g.pick(g.nameFragments.cities) })
		createdAt := g.now.Add(-time.Duration(g.rand.Intn(365*24)) * time.Hour)

		nodes[i] = map[string]any{
			"key":       fmt.Sprintf("N-%06d", i+1),
			"kind":      g.cfg.Label,
			"name":      first + " " + last,
			"email":     email,
			"city":      city,
			"score":     g.rand.Float64(),
			"createdAt": createdAt.Format(time.RFC3339),
		}
	}
	return nodes, nil
}

type attributePools struct {
	emails []string
	cities []string
}

func (g *Generator) maybeShared(pool *[]string, newValue func() string) string {
	if len(*pool) > 0 && g.rand.Float64() < g.cfg.SharedAttributeChance {
		return (*pool)[g.rand.Intn(len(*pool))]
	}
	val := newValue()
	*pool = append(*pool, val)
	return val
}

func (g *Generator) pick(options []string) string {
	return options[g.rand.Intn(len(options))]
}

type nameFragments struct {
	first   []string
	last    []string
	domains []string
	cities  []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:   []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:    []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		domains: []string{"example.com", "mail.com", "graph.test", "example.org"},
		cities:  []string{"San Francisco", "New York", "Seattle", "Austin", "Chicago", "Miami", "Denver", "Boston", "Los Angeles"},
	}
}
