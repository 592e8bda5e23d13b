// Package engine runs compiled grammars over text.
//
// A parse has three phases:
//
//  1. Scan. Every fragment and keyword alternative is matched over the
//     text. Candidates are ordered by start, priority, length (longest
//     first) and declaration order, and any candidate overlapping an
//     earlier winner is dropped. The winners become tokens.
//
//  2. Replace. The token stream is written as token text, one fixed-width
//     code per token, and the replacer alternatives are matched over it.
//     Each winning match merges the tokens it covers into one. This repeats
//     until no replacer matches or the pass ceiling is hit.
//
//  3. Produce. The producer alternatives are matched once over the final
//     token text. Each winning match is merged and handed to its rule's
//     action, which returns traits or nothing to reject the span.
//
// Parses are pure functions of grammar and text. A Parser may be shared by
// any number of goroutines; Extractor fans records out over a worker pool
// and delivers results in input order.
package engine
