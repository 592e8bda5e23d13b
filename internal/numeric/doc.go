// Package numeric converts matched measurement text into trait values.
//
// Values are stored in canonical units: millimetres for lengths and grams
// for masses, rounded to two decimal places. The builders in this package
// are producer actions; they read well-known group names from the merged
// token (number, units, shorthand_wt, lbs, ozs and so on) and reject the
// match by returning nil when a value cannot be read.
package numeric
