// ABOUTME: Tests for the plugin contract helpers.

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCount(t *testing.T) {
	assert.Equal(t, 3, SeedCount("small"))
	assert.Equal(t, 8, SeedCount("medium"))
	assert.Equal(t, 8, SeedCount(""))
	assert.Equal(t, 20, SeedCount("large"))
}

func TestMockPluginContract(t *testing.T) {
	var p Plugin = &mockPlugin{name: "events", defErr: errors.New("boom")}

	assert.Equal(t, "healthy", p.Health().Status)
	assert.EqualError(t, p.Define(context.Background(), nil), "boom")

	data, err := p.Seed(context.Background(), "small")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"events": 3}, data.Records)

	_, isStore := p.(StorePlugin)
	assert.False(t, isStore)
	_, hasFuncs := p.(FuncProvider)
	assert.False(t, hasFuncs)
}
