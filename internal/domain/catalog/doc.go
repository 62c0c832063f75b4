// Package catalog holds the in-memory view of installed game packages.
//
// Components:
//   - Record: one package (identity, source, directory, load/download/error state)
//   - Catalog: records ordered by identifier, with wraparound neighbor lookup
//   - Descriptor: the package's game.json / game.yaml
//   - DiskLoader: reads descriptors and content pages from a package directory
//
// Nothing in this package is safe for concurrent use. Records and the catalog
// are owned by the registry manager's loop.
package catalog
