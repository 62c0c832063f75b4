package catalog

import "sort"

// Direction selects a neighbor in catalog order.
type Direction int

const (
	Previous Direction = iota
	Next
)

// String returns the string representation of the direction
func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// Entry is one row of the selection listing.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog is an ordered set of records keyed by identifier.
type Catalog struct {
	records map[string]*Record
	ids     []string
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{records: make(map[string]*Record)}
}

// Put inserts rec, replacing any record with the same identifier.
func (c *Catalog) Put(rec *Record) {
	if _, exists := c.records[rec.ID]; !exists {
		i := sort.SearchStrings(c.ids, rec.ID)
		c.ids = append(c.ids, "")
		copy(c.ids[i+1:], c.ids[i:])
		c.ids[i] = rec.ID
	}
	c.records[rec.ID] = rec
}

// Get looks up a record by identifier.
func (c *Catalog) Get(id string) (*Record, bool) {
	rec, ok := c.records[id]
	return rec, ok
}

// Remove deletes the record with the given identifier.
func (c *Catalog) Remove(id string) bool {
	if _, ok := c.records[id]; !ok {
		return false
	}
	delete(c.records, id)
	i := sort.SearchStrings(c.ids, id)
	c.ids = append(c.ids[:i], c.ids[i+1:]...)
	return true
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// IDs returns identifiers in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// First returns the lexicographically first record.
func (c *Catalog) First() (*Record, bool) {
	if len(c.ids) == 0 {
		return nil, false
	}
	return c.records[c.ids[0]], true
}

// Neighbor returns the identifier before or after id, wrapping at both ends.
// An id that is not in the catalog is placed where it would sort.
func (c *Catalog) Neighbor(id string, dir Direction) (string, bool) {
	n := len(c.ids)
	if n == 0 {
		return "", false
	}
	i := sort.SearchStrings(c.ids, id)
	found := i < n && c.ids[i] == id

	switch {
	case dir == Next && found:
		return c.ids[(i+1)%n], true
	case dir == Next:
		return c.ids[i%n], true
	default:
		return c.ids[(i-1+n)%n], true
	}
}

// Listing returns (identifier, display name) pairs in catalog order.
func (c *Catalog) Listing() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, Entry{ID: id, Name: c.records[id].Name})
	}
	return out
}
