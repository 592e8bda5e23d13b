// Package grammars holds the built-in trait grammars and the shared
// fragments they build on.
//
// Every grammar is a function returning a fresh rules.Registry, so callers
// may extend a grammar without affecting anyone else's copy. Grammars are
// compiled on demand; compiled grammars are immutable and may be shared.
package grammars
