package config

import (
	"fmt"
)

// Config collects every tunable of the simulation core. All of the "feel"
// values (attraction falloff, merge overlap, split ceiling) are hand-tuned
// gameplay constants, not derived quantities; they are kept configurable
// rather than being given a physical justification.
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// WorldSeed names the world; the terrain and RNG seeds are derived
	// from it by hashing, so runs with the same name are reproducible.
	WorldSeed string `yaml:"world_seed"`

	Terrain TerrainConfig `yaml:"terrain"`
	Drops   DropConfig    `yaml:"drops"`
	Merge   MergeConfig   `yaml:"merge"`
	Belt    BeltConfig    `yaml:"belt"`
	Spears  SpearConfig   `yaml:"spears"`
	Sources SourceConfig  `yaml:"sources"`
}

// TerrainConfig shapes the generated heightfield.
type TerrainConfig struct {
	GridSize  int     `yaml:"grid_size"`
	CellSize  float64 `yaml:"cell_size"`
	MinHeight float64 `yaml:"min_height"`
	MaxHeight float64 `yaml:"max_height"`
}

// DropConfig tunes the free water drop simulation.
type DropConfig struct {
	PoolSize           int     `yaml:"pool_size"`
	Gravity            float64 `yaml:"gravity"`              // m/s², applied downward when idle
	RestEpsilon        float64 `yaml:"rest_epsilon"`         // height above terrain treated as contact
	Friction           float64 `yaml:"friction"`             // horizontal damping per frame at rest
	AttractionRadius   float64 `yaml:"attraction_radius"`    // absorb gesture reach
	AttractionStrength float64 `yaml:"attraction_strength"`  // peak acceleration at zero distance
	CollectRadius      float64 `yaml:"collect_radius"`       // inside this, the drop is banked
	SpawnScale         float64 `yaml:"spawn_scale"`          // visual scale of a freshly spawned drop
	EffectLifetimeSec  float64 `yaml:"effect_lifetime_sec"`  // transient collection-effect drops
	AmbientChance      float64 `yaml:"ambient_chance"`       // emission probability per reference frame
	AmbientRadius      float64 `yaml:"ambient_radius"`       // emission scatter around a source
}

// MergeConfig tunes the drop merge/split engine.
type MergeConfig struct {
	OverlapFactor float64 `yaml:"overlap_factor"` // fraction of combined radius that counts as touching
	SplitCeiling  float64 `yaml:"split_ceiling"`  // scale above which a drop sheds volume
	FrameStride   int     `yaml:"frame_stride"`   // merge pass runs every N-th frame
	SplitOffset   float64 `yaml:"split_offset"`   // spawn distance of the shed drop
	SplitKick     float64 `yaml:"split_kick"`     // outward speed of the shed drop
}

// BeltConfig tunes the water belt resource counter and its orbit ring.
type BeltConfig struct {
	Capacity       int     `yaml:"capacity"`
	RequiredToFire int     `yaml:"required_to_fire"`
	MaxVisible     int     `yaml:"max_visible"`
	RingRadius     float64 `yaml:"ring_radius"`
	OrbitRate      float64 `yaml:"orbit_rate"` // revolutions per second at full belt
}

// SpearConfig tunes the pooled projectile engine.
type SpearConfig struct {
	PoolSize          int     `yaml:"pool_size"`
	Speed             float64 `yaml:"speed"`
	LifetimeSec       float64 `yaml:"lifetime_sec"`
	MaxTravel         float64 `yaml:"max_travel"`
	TrailLength       int     `yaml:"trail_length"`
	MuzzleOffset      float64 `yaml:"muzzle_offset"`       // forward offset from the fire origin
	ScatterDrops      int     `yaml:"scatter_drops"`       // drops spawned by an explosion
	ScatterSpeed      float64 `yaml:"scatter_speed"`
	ReleaseDelayTicks int     `yaml:"release_delay_ticks"` // settle window before pool release
}

// SourceConfig tunes ambient collection gating near water sources.
type SourceConfig struct {
	SearchRadius float64 `yaml:"search_radius"`
}

// Default returns the shipped tuning.
func Default() Config {
	return Config{
		LogLevel:  "info",
		WorldSeed: "stillwater",
		Terrain: TerrainConfig{
			GridSize:  128,
			CellSize:  2.0,
			MinHeight: -6.0,
			MaxHeight: 14.0,
		},
		Drops: DropConfig{
			PoolSize:           450,
			Gravity:            25.0,
			RestEpsilon:        0.05,
			Friction:           0.92,
			AttractionRadius:   25.0,
			AttractionStrength: 60.0,
			CollectRadius:      1.0,
			SpawnScale:         0.35,
			EffectLifetimeSec:  2.0,
			AmbientChance:      0.04,
			AmbientRadius:      8.0,
		},
		Merge: MergeConfig{
			OverlapFactor: 0.5,
			SplitCeiling:  2.0,
			FrameStride:   2,
			SplitOffset:   0.6,
			SplitKick:     3.0,
		},
		Belt: BeltConfig{
			Capacity:       450,
			RequiredToFire: 45,
			MaxVisible:     24,
			RingRadius:     1.2,
			OrbitRate:      1.5,
		},
		Spears: SpearConfig{
			PoolSize:          6,
			Speed:             40.0,
			LifetimeSec:       6.0,
			MaxTravel:         160.0,
			TrailLength:       16,
			MuzzleOffset:      1.5,
			ScatterDrops:      8,
			ScatterSpeed:      5.0,
			ReleaseDelayTicks: 3,
		},
		Sources: SourceConfig{
			SearchRadius: 12.0,
		},
	}
}

// Validate checks the configuration for values that would break the
// simulation. It is called once at startup; a failure here is fatal.
func (c *Config) Validate() error {
	if c.Drops.PoolSize <= 0 {
		return fmt.Errorf("drops.pool_size must be positive, got %d", c.Drops.PoolSize)
	}
	if c.Spears.PoolSize <= 0 {
		return fmt.Errorf("spears.pool_size must be positive, got %d", c.Spears.PoolSize)
	}
	if c.Spears.TrailLength <= 0 {
		return fmt.Errorf("spears.trail_length must be positive, got %d", c.Spears.TrailLength)
	}
	if c.Belt.Capacity <= 0 {
		return fmt.Errorf("belt.capacity must be positive, got %d", c.Belt.Capacity)
	}
	if c.Belt.RequiredToFire <= 0 || c.Belt.RequiredToFire > c.Belt.Capacity {
		return fmt.Errorf("belt.required_to_fire must be in [1, %d], got %d",
			c.Belt.Capacity, c.Belt.RequiredToFire)
	}
	if c.Merge.OverlapFactor <= 0 || c.Merge.OverlapFactor > 1 {
		return fmt.Errorf("merge.overlap_factor must be in (0, 1], got %g", c.Merge.OverlapFactor)
	}
	if c.Merge.SplitCeiling <= 0 {
		return fmt.Errorf("merge.split_ceiling must be positive, got %g", c.Merge.SplitCeiling)
	}
	if c.Merge.FrameStride <= 0 {
		return fmt.Errorf("merge.frame_stride must be positive, got %d", c.Merge.FrameStride)
	}
	if c.Drops.AttractionRadius <= 0 {
		return fmt.Errorf("drops.attraction_radius must be positive, got %g", c.Drops.AttractionRadius)
	}
	if c.Drops.AmbientChance < 0 || c.Drops.AmbientChance > 1 {
		return fmt.Errorf("drops.ambient_chance must be in [0, 1], got %g", c.Drops.AmbientChance)
	}
	if c.Drops.Friction < 0 || c.Drops.Friction > 1 {
		return fmt.Errorf("drops.friction must be in [0, 1], got %g", c.Drops.Friction)
	}
	if c.Terrain.GridSize < 2 {
		return fmt.Errorf("terrain.grid_size must be at least 2, got %d", c.Terrain.GridSize)
	}
	if c.Terrain.CellSize <= 0 {
		return fmt.Errorf("terrain.cell_size must be positive, got %g", c.Terrain.CellSize)
	}
	if c.Terrain.MaxHeight <= c.Terrain.MinHeight {
		return fmt.Errorf("terrain.max_height must exceed min_height")
	}
	if c.Spears.Speed <= 0 {
		return fmt.Errorf("spears.speed must be positive, got %g", c.Spears.Speed)
	}
	if c.Spears.ReleaseDelayTicks < 0 {
		return fmt.Errorf("spears.release_delay_ticks must not be negative, got %d",
			c.Spears.ReleaseDelayTicks)
	}
	return nil
}
