// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompts

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CATEGORIES
// =============================================================================

// Category classifies prompt intent. It drives both template selection
// and metric labels.
type Category string

const (
	ShortQA        Category = "short_qa"
	LongForm       Category = "long_form"
	CodeGeneration Category = "code_generation"
)

// Categories returns all built-in categories in stable order.
func Categories() []Category {
	return []Category{ShortQA, LongForm, CodeGeneration}
}

// Valid reports whether c names a known category.
func (c Category) Valid() bool {
	switch c {
	case ShortQA, LongForm, CodeGeneration:
		return true
	}
	return false
}

// =============================================================================
// ERRORS
// =============================================================================

// InsufficientUniqueError is returned when a unique sample of count
// prompts is requested but the category's template pool is smaller.
type InsufficientUniqueError struct {
	Category  Category
	Requested int
	Available int
}

func (e *InsufficientUniqueError) Error() string {
	return fmt.Sprintf("cannot generate %d unique prompts of type %s: only %d available",
		e.Requested, e.Category, e.Available)
}

// =============================================================================
// SOURCE
// =============================================================================

// Source is the capability the benchmark engine consumes: an ordered
// sequence of prompts for a category.
type Source interface {
	Generate(category Category, count int, allowDuplicates bool) ([]string, error)
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator produces prompts from per-category template pools.
// Selection uses an internal PRNG so a seeded Generator yields
// reproducible sequences; the zero seed derives from the template
// pools only and is therefore also stable.
type Generator struct {
	templates map[Category][]string
	rng       *rand.Rand
}

// NewGenerator creates a generator with the built-in template sets.
func NewGenerator() *Generator {
	return NewGeneratorWithSeed(1)
}

// NewGeneratorWithSeed creates a generator with a fixed PRNG seed so
// prompt selection is reproducible across runs.
func NewGeneratorWithSeed(seed int64) *Generator {
	templates := map[Category][]string{
		ShortQA:        append([]string(nil), shortQATemplates...),
		LongForm:       append([]string(nil), longFormTemplates...),
		CodeGeneration: append([]string(nil), codeGenerationTemplates...),
	}
	return &Generator{
		templates: templates,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Generate returns count prompts of the given category, in order.
// With allowDuplicates, templates repeat as needed; without it, a
// unique sample is drawn and InsufficientUniqueError is returned when
// the pool is too small.
func (g *Generator) Generate(category Category, count int, allowDuplicates bool) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be greater than 0, got %d", count)
	}

	pool, ok := g.templates[category]
	if !ok || len(pool) == 0 {
		return nil, fmt.Errorf("unsupported prompt category: %s", category)
	}

	if !allowDuplicates && count > len(pool) {
		return nil, &InsufficientUniqueError{
			Category:  category,
			Requested: count,
			Available: len(pool),
		}
	}

	if allowDuplicates {
		prompts := make([]string, count)
		for i := range prompts {
			prompts[i] = pool[g.rng.Intn(len(pool))]
		}
		return prompts, nil
	}

	// Unique sample: shuffle a copy and take the prefix.
	shuffled := append([]string(nil), pool...)
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count], nil
}

// TemplateCount returns the pool size for a category.
func (g *Generator) TemplateCount(category Category) int {
	return len(g.templates[category])
}

// Info returns per-category template counts, sorted by category name.
func (g *Generator) Info() map[string]int {
	info := make(map[string]int, len(g.templates))
	for cat, pool := range g.templates {
		info[string(cat)] = len(pool)
	}
	return info
}

// =============================================================================
// YAML TEMPLATE FILES
// =============================================================================

// templateFile is the on-disk shape of a user template file:
//
//	short_qa:
//	  - "What is ...?"
//	code_generation:
//	  - "Write a function ..."
type templateFile map[string][]string

// LoadTemplates merges templates from a YAML file into the generator's
// pools. Unknown category keys are rejected so typos do not silently
// create unreachable pools.
func (g *Generator) LoadTemplates(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template file: %w", err)
	}

	var parsed templateFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse template file: %w", err)
	}

	// Validate all keys before mutating any pool.
	keys := make([]string, 0, len(parsed))
	for key := range parsed {
		if !Category(key).Valid() {
			return fmt.Errorf("unknown prompt category %q in %s", key, path)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		g.templates[Category(key)] = append(g.templates[Category(key)], parsed[key]...)
	}
	return nil
}
