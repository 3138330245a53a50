package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/hawker-io/hawker/internal/testing/guard"
)

func TestGuardEnablesTestMode(t *testing.T) {
	RefreshTestMode()
	require.True(t, InTestMode())
}

func TestRefreshTestModeTracksEnv(t *testing.T) {
	t.Setenv("HAWKER_TEST_MODE", "0")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv("HAWKER_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
