// Package geometry holds the pure functions behind node placement and
// connection routing: port anchors, bezier curves, the padded overlap test,
// the spiral search for a free position and the viewport transform.
package geometry
