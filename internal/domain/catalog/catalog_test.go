package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(names ...string) *Catalog {
	c := New()
	for _, n := range names {
		c.Put(NewRecord("/games", n, ""))
	}
	return c
}

func TestCatalogKeepsIdentifierOrder(t *testing.T) {
	c := newCatalog("C", "A", "B")
	assert.Equal(t, []string{"A", "B", "C"}, c.IDs())

	first, ok := c.First()
	require.True(t, ok)
	assert.Equal(t, "A", first.ID)
}

func TestCatalogPutReplaces(t *testing.T) {
	c := newCatalog("A", "B")
	replacement := NewRecord("/games", "A", "")
	replacement.CardCount = 7

	c.Put(replacement)

	assert.Equal(t, 2, c.Len())
	got, ok := c.Get("A")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestCatalogRemove(t *testing.T) {
	c := newCatalog("A", "B", "C")

	assert.True(t, c.Remove("B"))
	assert.False(t, c.Remove("B"))
	assert.Equal(t, []string{"A", "C"}, c.IDs())
	_, ok := c.Get("B")
	assert.False(t, ok)
}

func TestNeighbor(t *testing.T) {
	c := newCatalog("A", "B", "C")

	tests := []struct {
		name string
		from string
		dir  Direction
		want string
	}{
		{"next from middle", "B", Next, "C"},
		{"next wraps", "C", Next, "A"},
		{"previous from middle", "B", Previous, "A"},
		{"previous wraps", "A", Previous, "C"},
		{"next from unknown sorts in place", "AB", Next, "B"},
		{"previous from unknown sorts in place", "AB", Previous, "A"},
		{"next from sentinel", "", Next, "A"},
		{"previous from sentinel", "", Previous, "C"},
		{"next past the end wraps", "Z", Next, "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Neighbor(tt.from, tt.dir)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNeighborCycleReturnsToStart(t *testing.T) {
	c := newCatalog("delta", "alpha", "charlie", "bravo", "echo")
	for _, start := range c.IDs() {
		id := start
		for i := 0; i < c.Len(); i++ {
			id, _ = c.Neighbor(id, Next)
		}
		assert.Equal(t, start, id)
	}
}

func TestNeighborSingleAndEmpty(t *testing.T) {
	_, ok := New().Neighbor("A", Next)
	assert.False(t, ok)

	c := newCatalog("only")
	next, _ := c.Neighbor("only", Next)
	prev, _ := c.Neighbor("only", Previous)
	assert.Equal(t, "only", next)
	assert.Equal(t, "only", prev)
}

func TestListing(t *testing.T) {
	c := New()
	c.Put(NewRecord("/games", "Zed", "https://z.example/z.json"))
	c.Put(NewRecord("/games", "Alpha", ""))

	listing := c.Listing()
	require.Len(t, listing, 2)
	assert.Equal(t, Entry{ID: "Alpha", Name: "Alpha"}, listing[0])
	assert.Equal(t, "Zed", listing[1].Name)
}

func TestRecordIdentity(t *testing.T) {
	rec := NewRecord("/games", DefaultName, "https://example.com/g.json")
	assert.Equal(t, "Standard@https%3A%2F%2Fexample.com%2Fg.json", rec.ID)
	assert.Equal(t, filepath.Join("/games", rec.ID), rec.Dir)

	rec.Rename("Mahjong")
	assert.Equal(t, "Mahjong@https%3A%2F%2Fexample.com%2Fg.json", rec.ID)
	assert.Equal(t, filepath.Join("/games", rec.ID), rec.Dir)
}

func TestRecordErrorIsSticky(t *testing.T) {
	rec := NewRecord("/games", "A", "")

	rec.Fail("first")
	rec.Fail("second")
	assert.Equal(t, "first", rec.Error())
	assert.False(t, rec.Healthy())

	rec.ClearError()
	assert.True(t, rec.Healthy())
}

func TestRecordReady(t *testing.T) {
	rec := NewRecord("/games", "A", "")
	assert.False(t, rec.Ready())

	rec.MarkLoaded()
	assert.True(t, rec.Ready())

	rec.SetDownloading(true)
	assert.False(t, rec.Ready())
}

func TestInvalidSentinel(t *testing.T) {
	inv := Invalid()
	assert.True(t, inv.IsInvalid())
	assert.True(t, inv.Loaded())
	assert.Empty(t, inv.ID)

	inv.Fail("boom")
	inv.SetDownloading(true)
	assert.True(t, inv.Healthy())
	assert.False(t, inv.Downloading())
}

func TestFromDir(t *testing.T) {
	rec := FromDir("/games", "Mahjong@https%3A%2F%2Fexample.com%2Fm.json")
	assert.Equal(t, "Mahjong", rec.Name)
	assert.Equal(t, "https://example.com/m.json", rec.Source)
	assert.Equal(t, filepath.Join("/games", "Mahjong@https%3A%2F%2Fexample.com%2Fm.json"), rec.Dir)

	// Non-canonical names keep their directory as identifier.
	odd := FromDir("/games", "Trailing.")
	assert.Equal(t, "Trailing.", odd.ID)
	assert.Equal(t, filepath.Join("/games", "Trailing."), odd.Dir)
	assert.False(t, odd.Loaded())
}
