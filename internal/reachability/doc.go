// Package reachability decides, from the outcome of a single HTTP attempt,
// whether a domain looks blocked through the egress that carried it.
//
// The decision is ordered and the first matching rule wins:
//
//  1. transport failure
//  2. HTTP 403
//  3. HTTP 451
//  4. any other 4xx status
//  5. a 200 body containing a configured block keyword (case-insensitive,
//     configured order, first hit wins)
//  6. a 200 body smaller than the minimum size
//
// Everything else is not blocked. Status checks run before content
// inspection, and the small-body rule runs only after keyword matching
// fails, so the most specific reason is reported.
package reachability
