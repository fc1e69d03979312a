// Package testutil provides common test utilities and assertions for bridge tests
package testutil

import (
	"testing"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/hostrt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertCellEqual asserts that two cells hold the same tag and bits.
func AssertCellEqual(t *testing.T, expected, actual entities.Cell, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, expected.Equal(actual), append([]interface{}{"expected %s, got %s", expected, actual}, msgAndArgs...)...)
}

// AssertNoLeaks asserts that the runtime has exactly `live` live objects and
// no pending error.
func AssertNoLeaks(t *testing.T, rt *hostrt.Runtime, live int, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, live, rt.Live(), msgAndArgs...)
	assert.NoError(t, rt.Occurred(), "host error left pending")
}

// RequireRefCount requires obj to have exactly n references.
func RequireRefCount(t *testing.T, obj *hostrt.Object, n int64, msgAndArgs ...interface{}) {
	t.Helper()
	require.Equal(t, n, obj.RefCount(), msgAndArgs...)
}
