//go:build fastmath

package dynamics

// mathTolerance is the absolute error allowed for results that pass through
// the approximated square-root backend.
const mathTolerance = 1e-6
