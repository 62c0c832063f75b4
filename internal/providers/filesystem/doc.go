// Package filesystem stores game packages on local disk.
//
// Components:
//   - Disk: games root layout, discovery listing, staging and install
//   - Extract/Pack: zip and tar (plain, gzip, zstd) bundles
//   - CopyTree: parallel directory copy used for the default set
//
// Built on:
//   - charlievieth/fastwalk for directory traversal
//   - klauspost/compress for gzip and zstd streams
//   - gabriel-vasile/mimetype for archive detection
//
// Downloads are written into a hidden .staging-<uuid> directory and moved into
// place by Install, so a failed fetch never leaves a half-written package.
package filesystem
