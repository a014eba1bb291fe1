package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/odyssey-pos/testing"
)

func TestInTestModeFromEnv(t *testing.T) {
	require.True(t, InTestMode())
}
