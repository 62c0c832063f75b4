// Package identity maps a package's display name and source location to a
// single identifier and back.
//
// Identifiers double as directory names under the games root, so every
// character that is illegal or awkward in a path segment is percent-escaped.
//
// Format:
//   - Local package (no source): esc(name)
//   - Remote package: esc(name) + "@" + esc(source)
//
// Decode never fails. A string Encode could not have produced (it contains a
// raw '/' or ':' for example) is treated as a bare source location, which lets
// callers hand an unknown identifier straight to the fetch path.
//
// Example Usage:
//
//	id := identity.Encode("Standard", "https://example.com/standard.json")
//	name, source := identity.Decode(id)
package identity
