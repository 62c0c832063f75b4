// Package paths provides the on-disk layout of the games root.
//
// Layout:
//
//	<root>/
//	  <identifier>/           one directory per package (see package identity)
//	    game.json | game.yaml package descriptor
//	    AllCards<N>.json      content page N
//	  .staging-<uuid>/        in-progress downloads, ignored by discovery
//
// Any change here must stay in sync with the descriptor loader in
// internal/domain/catalog.
package paths
