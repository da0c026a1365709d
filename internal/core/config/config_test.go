package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	doc := `
world_seed: testbasin
belt:
  capacity: 90
  required_to_fire: 30
  max_visible: 24
  ring_radius: 1.2
  orbit_rate: 1.5
`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "testbasin", c.WorldSeed)
	assert.Equal(t, 90, c.Belt.Capacity)
	assert.Equal(t, 30, c.Belt.RequiredToFire)
	// untouched sections keep defaults
	assert.Equal(t, Default().Drops.PoolSize, c.Drops.PoolSize)
	assert.Equal(t, Default().Spears.Speed, c.Spears.Speed)
}

func TestLoadEmptyDocumentYieldsDefaults(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), *c)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero drop pool", func(c *Config) { c.Drops.PoolSize = 0 }},
		{"threshold above capacity", func(c *Config) { c.Belt.RequiredToFire = c.Belt.Capacity + 1 }},
		{"overlap factor above one", func(c *Config) { c.Merge.OverlapFactor = 1.5 }},
		{"zero merge stride", func(c *Config) { c.Merge.FrameStride = 0 }},
		{"negative ambient chance", func(c *Config) { c.Drops.AmbientChance = -0.1 }},
		{"inverted terrain heights", func(c *Config) { c.Terrain.MinHeight, c.Terrain.MaxHeight = 5, 5 }},
		{"zero spear speed", func(c *Config) { c.Spears.Speed = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
