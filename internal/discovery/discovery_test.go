package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTarget_ExactlyOnePicksIt(t *testing.T) {
	targets := []Target{{Name: "only", Address: "10.0.0.1:17"}}

	got, err := selectTarget(targets, "", 0)

	require.NoError(t, err)
	assert.Equal(t, "only", got.Name)
}

func TestSelectTarget_NameFilterNarrows(t *testing.T) {
	targets := []Target{
		{Name: "a", Address: "10.0.0.1:17"},
		{Name: "b", Address: "10.0.0.2:17"},
	}

	got, err := selectTarget(targets, "b", 0)

	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)
}

func TestSelectTarget_IndexInRange(t *testing.T) {
	targets := []Target{
		{Name: "a", Address: "10.0.0.1:17"},
		{Name: "b", Address: "10.0.0.2:17"},
		{Name: "c", Address: "10.0.0.3:17"},
	}

	got, err := selectTarget(targets, "", 2)

	require.NoError(t, err)
	assert.Equal(t, "c", got.Name)
}

func TestSelectTarget_IndexOutOfRangeFallsBackToFirst(t *testing.T) {
	targets := []Target{
		{Name: "a", Address: "10.0.0.1:17"},
		{Name: "b", Address: "10.0.0.2:17"},
	}

	got, err := selectTarget(targets, "", 99)

	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}

func TestSelectTarget_NoneFound(t *testing.T) {
	_, err := selectTarget(nil, "", 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTargetsFound)
}
