// Package rules holds grammar rule declarations.
//
// A grammar is a Registry of named rules of four kinds. Fragments and
// keywords match raw text; replacers and producers match sequences of
// tokens, naming the rules they expect as bare words. Registries are built
// once, validated as a whole (see Closure), and then compiled.
package rules
