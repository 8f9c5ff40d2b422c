// Package draftdb loads the on-disk item database. The layout is one
// directory per draft set, each holding generated/ (item template HTML)
// and generated_stats/ (matching stats HTML, keyed by file name). The
// database is immutable after loading and safe to share by reference.
package draftdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dom/pkmn-draft-website/internal/domain"
)

const (
	templateDirName = "generated"
	statsDirName    = "generated_stats"
)

// Item is one draftable entry: the rendered HTML template shown while
// picking, its stats block, and the plain-text form used for dedup keys
// and export.
type Item struct {
	ID       domain.DraftItemID
	Template string
	Stats    string
	Plain    string
}

// Set is a named collection of items. dedup groups item ids by the name
// token of their plain-text form, so variants of the same item can be
// collapsed into one draftable entry.
type Set struct {
	name  string
	items map[domain.DraftItemID]*Item
	dedup map[string][]domain.DraftItemID
}

func (s *Set) Name() string { return s.name }

// Item returns the item with the given id, or nil.
func (s *Set) Item(id domain.DraftItemID) *Item {
	return s.items[id]
}

func (s *Set) NumItems() int { return len(s.items) }

// DedupGroups returns the deduplicated-name index. Callers must not mutate
// the returned map.
func (s *Set) DedupGroups() map[string][]domain.DraftItemID {
	return s.dedup
}

// DraftPool returns one representative item id per deduplicated name, in a
// deterministic order. This is the id universe packs are built from: a
// draft offers each named item at most once even when the set directory
// carries several variants of it.
func (s *Set) DraftPool() []domain.DraftItemID {
	keys := make([]string, 0, len(s.dedup))
	for k := range s.dedup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pool := make([]domain.DraftItemID, 0, len(keys))
	for _, k := range keys {
		pool = append(pool, s.dedup[k][0])
	}
	return pool
}

// Database maps set names to loaded sets.
type Database struct {
	sets map[string]*Set
}

// Set returns the named set, or nil.
func (db *Database) Set(name string) *Set {
	return db.sets[name]
}

// SetNames lists the loaded sets in sorted order.
func (db *Database) SetNames() []string {
	names := make([]string, 0, len(db.sets))
	for name := range db.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load scans root for set directories and parses every item in them.
func Load(root string) (*Database, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading database root: %w", err)
	}

	db := &Database{sets: make(map[string]*Set)}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		set, err := loadSet(filepath.Join(root, entry.Name()), entry.Name())
		if err != nil {
			return nil, fmt.Errorf("loading set %s: %w", entry.Name(), err)
		}
		log.Info().
			Str("set", set.name).
			Int("items", len(set.items)).
			Int("unique_names", len(set.dedup)).
			Msg("loaded draft set")
		db.sets[set.name] = set
	}
	return db, nil
}

func loadSet(dir, name string) (*Set, error) {
	templateDir := filepath.Join(dir, templateDirName)
	statsDir := filepath.Join(dir, statsDirName)

	entries, err := os.ReadDir(templateDir)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}
	// Sorted file names give stable item ids across restarts of the same
	// dataset.
	fileNames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileNames = append(fileNames, entry.Name())
	}
	sort.Strings(fileNames)

	set := &Set{
		name:  name,
		items: make(map[domain.DraftItemID]*Item, len(fileNames)),
		dedup: make(map[string][]domain.DraftItemID),
	}
	var nextID domain.DraftItemID
	for _, fileName := range fileNames {
		template, err := os.ReadFile(filepath.Join(templateDir, fileName))
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", fileName, err)
		}
		// Stats are optional: an item without a generated stats file just
		// renders with an empty stats block.
		stats, err := os.ReadFile(filepath.Join(statsDir, fileName))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading stats %s: %w", fileName, err)
			}
			log.Debug().Str("set", name).Str("item", fileName).Msg("no stats file")
			stats = nil
		}

		plain := renderPlainText(string(template))
		item := &Item{
			ID:       nextID,
			Template: string(template),
			Stats:    string(stats),
			Plain:    plain,
		}
		set.items[item.ID] = item
		key := dedupKey(plain)
		set.dedup[key] = append(set.dedup[key], item.ID)
		nextID++
	}
	return set, nil
}

// dedupKey is the token before the first '@' of the plain-text form,
// trimmed. "Garchomp @ Choice Scarf ..." dedups to "Garchomp".
func dedupKey(plain string) string {
	before, _, _ := strings.Cut(plain, "@")
	return strings.TrimSpace(before)
}
