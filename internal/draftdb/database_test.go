package draftdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/pkmn-draft-website/internal/domain"
	"github.com/dom/pkmn-draft-website/internal/draftdb"
	"github.com/dom/pkmn-draft-website/internal/testutil"
)

func loadFixture(t *testing.T) *draftdb.Database {
	t.Helper()
	root := t.TempDir()
	testutil.NewSetBuilder("kanto").
		WithItem("a_garchomp.html", "<div>Garchomp @ Choice Scarf<br>Ability: Rough Skin</div>", "<p>scarf stats</p>").
		WithItem("b_garchomp.html", "<div>Garchomp @ Leftovers<br>Ability: Sand Veil</div>", "<p>lefties stats</p>").
		WithItemNoStats("c_pikachu.html", "<div>Pikachu @ Light Ball</div>").
		Build(t, root)
	testutil.NewSetBuilder("johto").WithGeneratedItems(2).Build(t, root)

	db, err := draftdb.Load(root)
	require.NoError(t, err)
	return db
}

func TestLoad_MissingRoot(t *testing.T) {
	_, err := draftdb.Load("/no/such/dir")
	require.Error(t, err)
}

func TestLoad_Sets(t *testing.T) {
	db := loadFixture(t)
	assert.Equal(t, []string{"johto", "kanto"}, db.SetNames())
	assert.Nil(t, db.Set("hoenn"))
}

func TestSet_ItemsGetStableIDs(t *testing.T) {
	set := loadFixture(t).Set("kanto")
	require.NotNil(t, set)
	assert.Equal(t, 3, set.NumItems())

	// Ids follow sorted file name order.
	scarf := set.Item(0)
	require.NotNil(t, scarf)
	assert.Contains(t, scarf.Template, "Choice Scarf")
	assert.Equal(t, "<p>scarf stats</p>", scarf.Stats)

	pikachu := set.Item(2)
	require.NotNil(t, pikachu)
	assert.Contains(t, pikachu.Template, "Pikachu")
	assert.Empty(t, pikachu.Stats, "missing stats file renders empty")

	assert.Nil(t, set.Item(99))
}

func TestSet_PlainText(t *testing.T) {
	set := loadFixture(t).Set("kanto")
	require.NotNil(t, set)
	assert.Equal(t, "Garchomp @ Choice Scarf\nAbility: Rough Skin", set.Item(0).Plain)
	assert.Equal(t, "Pikachu @ Light Ball", set.Item(2).Plain)
}

func TestSet_DedupAndDraftPool(t *testing.T) {
	set := loadFixture(t).Set("kanto")
	require.NotNil(t, set)

	groups := set.DedupGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, []domain.DraftItemID{0, 1}, groups["Garchomp"])
	assert.Equal(t, []domain.DraftItemID{2}, groups["Pikachu"])

	// One representative per name, ordered by name.
	assert.Equal(t, []domain.DraftItemID{0, 2}, set.DraftPool())
}
