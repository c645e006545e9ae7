package testutil

import "testing"

// Given names a precondition subtest.
func Given(t *testing.T, precondition string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("given "+precondition, fn)
}

// Then names an expectation subtest nested under Given.
func Then(t *testing.T, expectation string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("then "+expectation, fn)
}
