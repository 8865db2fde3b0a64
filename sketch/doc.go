/*
Package sketch implements a Count-Min Sketch for estimating per-key event frequencies in fixed memory.

A sketch is a depth x width grid of counters. Each row owns an independent hash function
(xxHash64 seeded with the row index) that maps a key onto one column of that row. Adding a key
increments one counter per row; estimating a key takes the minimum of its counters.

Because every counter a key touches holds at least that key's true count, an estimate never
undercounts. Collisions only ever inflate counters, and with probability at least 1 - e^-depth
the overestimate is bounded by total * e / width where total is the sum of all added counts.

Examples:

* width 1000, depth 5
** memory: 40KB of counters
** error bound: 0.27% of all events
** confidence: 99.3%

* width 10000, depth 7
** memory: 560KB of counters
** error bound: 0.027% of all events
** confidence: 99.9%

Sketches of identical dimensions are linear: merging a sketch built over A with one built over B
produces exactly the sketch built over A and B together.

Row hashing is part of the persisted format. Changing seeds or the hash function makes existing
state unreadable, so any such change must bump StateVersion.
*/
package sketch
