// Package pattern implements the text operations used to compose regular
// expressions out of named rules.
//
// Every named capture in a composed pattern gets a unique compiled name of
// the form <logical>__<n>. Back-references are relinked to the compiled name
// of the declaration they are lexically tied to, and callers only ever see
// logical names (see LogicalName).
//
// Patterns are written for IgnoreCase and IgnorePatternWhitespace mode.
// Python-style (?P<name>...) and (?P=name) are accepted and normalized.
//
// Two reference syntaxes exist:
//   - {name} inside fragment patterns inlines another fragment's pattern
//   - bare words inside token-level patterns name rules whose tokens the
//     pattern matches
//
// All functions are pure; the only state is the Namer passed in.
package pattern
