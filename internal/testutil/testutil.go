// Package testutil provides fixture builders and HTTP assertions shared by
// the package tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dom/pkmn-draft-website/internal/draftdb"
)

// SetBuilder writes an on-disk draft set fixture: a set directory with
// generated/ templates and generated_stats/ blocks, in the layout the
// database loader expects.
type SetBuilder struct {
	name  string
	items []fixtureItem
}

type fixtureItem struct {
	fileName string
	template string
	stats    string
	hasStats bool
}

// NewSetBuilder creates a builder for a set with the given name.
func NewSetBuilder(name string) *SetBuilder {
	return &SetBuilder{name: name}
}

// WithGeneratedItems adds n items with distinct names, each with a matching
// stats block.
func (b *SetBuilder) WithGeneratedItems(n int) *SetBuilder {
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Mon%03d", i)
		b.items = append(b.items, fixtureItem{
			fileName: fmt.Sprintf("item_%03d.html", i),
			template: fmt.Sprintf("<div>%s @ Leftovers<br>Ability: Pressure</div>", name),
			stats:    fmt.Sprintf("<p>%s stats</p>", name),
			hasStats: true,
		})
	}
	return b
}

// WithItem adds one item with explicit template and stats HTML.
func (b *SetBuilder) WithItem(fileName, template, stats string) *SetBuilder {
	b.items = append(b.items, fixtureItem{fileName: fileName, template: template, stats: stats, hasStats: true})
	return b
}

// WithItemNoStats adds an item that has no stats file on disk.
func (b *SetBuilder) WithItemNoStats(fileName, template string) *SetBuilder {
	b.items = append(b.items, fixtureItem{fileName: fileName, template: template})
	return b
}

// Build writes the set directory under root.
func (b *SetBuilder) Build(t *testing.T, root string) {
	t.Helper()

	templateDir := filepath.Join(root, b.name, "generated")
	statsDir := filepath.Join(root, b.name, "generated_stats")
	if err := os.MkdirAll(templateDir, 0o755); err != nil {
		t.Fatalf("failed to create template dir: %v", err)
	}
	if err := os.MkdirAll(statsDir, 0o755); err != nil {
		t.Fatalf("failed to create stats dir: %v", err)
	}

	for _, item := range b.items {
		if err := os.WriteFile(filepath.Join(templateDir, item.fileName), []byte(item.template), 0o644); err != nil {
			t.Fatalf("failed to write template %s: %v", item.fileName, err)
		}
		if !item.hasStats {
			continue
		}
		if err := os.WriteFile(filepath.Join(statsDir, item.fileName), []byte(item.stats), 0o644); err != nil {
			t.Fatalf("failed to write stats %s: %v", item.fileName, err)
		}
	}
}

// NewDatabase writes a single-set fixture with n distinct items into a temp
// directory and loads it.
func NewDatabase(t *testing.T, setName string, n int) *draftdb.Database {
	t.Helper()

	root := t.TempDir()
	NewSetBuilder(setName).WithGeneratedItems(n).Build(t, root)

	db, err := draftdb.Load(root)
	if err != nil {
		t.Fatalf("failed to load fixture database: %v", err)
	}
	return db
}
