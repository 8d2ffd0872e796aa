package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConfig struct {
	chunkSize int
	level     int
	name      string
}

func withChunkSize(n int) Option[*fakeConfig] {
	return New(func(c *fakeConfig) error {
		if n <= 0 {
			return errors.New("chunk size must be positive")
		}
		c.chunkSize = n

		return nil
	})
}

func withLevel(n int) Option[*fakeConfig] {
	return NoError(func(c *fakeConfig) { c.level = n })
}

func TestApply_InOrder(t *testing.T) {
	cfg := &fakeConfig{}
	err := Apply(cfg, withChunkSize(4096), withLevel(3), withLevel(5))
	require.NoError(t, err)
	require.Equal(t, 4096, cfg.chunkSize)
	require.Equal(t, 5, cfg.level) // later options win
}

func TestApply_StopsAtFirstError(t *testing.T) {
	cfg := &fakeConfig{}
	err := Apply(cfg, withLevel(2), withChunkSize(-1), withLevel(9))
	require.Error(t, err)
	require.Equal(t, 2, cfg.level) // the option after the failure never ran
}

func TestApply_NoOptions(t *testing.T) {
	cfg := &fakeConfig{name: "unchanged"}
	require.NoError(t, Apply(cfg))
	require.Equal(t, "unchanged", cfg.name)
}

func TestNoError_NeverFails(t *testing.T) {
	cfg := &fakeConfig{}
	opt := NoError(func(c *fakeConfig) { c.name = "set" })
	require.NoError(t, Apply(cfg, opt))
	require.Equal(t, "set", cfg.name)
}

func TestOption_WorksForAnyConfigType(t *testing.T) {
	type counters struct{ n int }

	target := &counters{}
	bump := NoError(func(c *counters) { c.n++ })
	require.NoError(t, Apply(target, bump, bump, bump))
	require.Equal(t, 3, target.n)
}
