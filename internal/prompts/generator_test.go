// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerate_CountMatches(t *testing.T) {
	g := NewGenerator()

	for _, cat := range Categories() {
		prompts, err := g.Generate(cat, 5, true)
		if err != nil {
			t.Fatalf("%s: %v", cat, err)
		}
		if len(prompts) != 5 {
			t.Errorf("%s: got %d prompts, want 5", cat, len(prompts))
		}
		for i, p := range prompts {
			if p == "" {
				t.Errorf("%s: prompt %d is empty", cat, i)
			}
		}
	}
}

func TestGenerate_DuplicatesBeyondPool(t *testing.T) {
	g := NewGenerator()

	pool := g.TemplateCount(ShortQA)
	prompts, err := g.Generate(ShortQA, pool*3, true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(prompts) != pool*3 {
		t.Errorf("got %d prompts, want %d", len(prompts), pool*3)
	}
}

func TestGenerate_UniqueSample(t *testing.T) {
	g := NewGenerator()

	pool := g.TemplateCount(CodeGeneration)
	prompts, err := g.Generate(CodeGeneration, pool, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	seen := make(map[string]bool, len(prompts))
	for _, p := range prompts {
		if seen[p] {
			t.Errorf("duplicate prompt in unique sample: %q", p)
		}
		seen[p] = true
	}
}

func TestGenerate_UniqueExceedsPool(t *testing.T) {
	g := NewGenerator()

	pool := g.TemplateCount(LongForm)
	_, err := g.Generate(LongForm, pool+1, false)
	if err == nil {
		t.Fatal("expected error for unique sample larger than pool")
	}

	var insufficient *InsufficientUniqueError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %T, want *InsufficientUniqueError", err)
	}
	if insufficient.Requested != pool+1 || insufficient.Available != pool {
		t.Errorf("error fields: requested=%d available=%d", insufficient.Requested, insufficient.Available)
	}
}

func TestGenerate_InvalidInputs(t *testing.T) {
	g := NewGenerator()

	if _, err := g.Generate(ShortQA, 0, true); err == nil {
		t.Error("expected error for count 0")
	}
	if _, err := g.Generate(ShortQA, -3, true); err == nil {
		t.Error("expected error for negative count")
	}
	if _, err := g.Generate(Category("poetry"), 5, true); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestGenerate_SeededReproducibility(t *testing.T) {
	a := NewGeneratorWithSeed(42)
	b := NewGeneratorWithSeed(42)

	pa, err := a.Generate(ShortQA, 20, true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pb, err := b.Generate(ShortQA, 20, true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("prompt %d differs between equally seeded generators", i)
		}
	}
}

func TestLoadTemplates_MergesPools(t *testing.T) {
	g := NewGenerator()
	before := g.TemplateCount(ShortQA)

	path := filepath.Join(t.TempDir(), "extra.yaml")
	content := "short_qa:\n  - \"What is the speed of light?\"\n  - \"Who wrote Hamlet?\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write template file: %v", err)
	}

	if err := g.LoadTemplates(path); err != nil {
		t.Fatalf("load templates: %v", err)
	}
	if got := g.TemplateCount(ShortQA); got != before+2 {
		t.Errorf("pool size: got %d, want %d", got, before+2)
	}
}

func TestLoadTemplates_RejectsUnknownCategory(t *testing.T) {
	g := NewGenerator()
	before := g.Info()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := "short_qa:\n  - \"ok\"\nnonsense:\n  - \"should fail\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write template file: %v", err)
	}

	if err := g.LoadTemplates(path); err == nil {
		t.Fatal("expected error for unknown category key")
	}

	// No pool may have been mutated by the failed load.
	after := g.Info()
	for cat, n := range before {
		if after[cat] != n {
			t.Errorf("pool %s changed on failed load: %d -> %d", cat, n, after[cat])
		}
	}
}

func TestLoadTemplates_MissingFile(t *testing.T) {
	g := NewGenerator()
	if err := g.LoadTemplates(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
