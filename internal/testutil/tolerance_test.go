package testutil

import "testing"

func TestRequireWithinDB(t *testing.T) {
	RequireWithinDB(t, "gain", 0.5, 0.5*1.01, 0.1)
}

func TestRequireNearlyEqual(t *testing.T) {
	RequireNearlyEqual(t, "x", 1.0, 1.0+1e-12, 1e-9)
}
