// Package files downloads game bundles into package directories.
//
// A bundle is either a bare descriptor (game.json or game.yaml) or an archive
// (zip, tar, tar.gz, tar.zst) holding a package directory. When the descriptor
// names an allCardsUrl, its content pages are downloaded as AllCards<N>.json.
package files
