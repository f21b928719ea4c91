package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgTurretRP2 = `{
  "turret": {
    "band_min_mm": 100,
    "band_max_mm": 1000,
    "dwell_count": 5,
    "stable_epsilon_cd": 100,
    "fire_ticks": 50,
    "idle_ticks": 300,
    "track_timeout_ticks": 25,
    "reacquire_ms": 30000,
    "servo_rate_cd": 150,
    "tolerance_cd": 25,
    "tick_ms": 20,
    "sample_ms": 50,
    "queue_depth": 16,
    "queue_reserve": 4
  },
  "heartbeat": {
    "interval": 5
  }
}`

const cfgSim = `{
  "turret": {
    "band_min_mm": 100,
    "band_max_mm": 800,
    "dwell_count": 5,
    "stable_epsilon_cd": 100,
    "fire_ticks": 50,
    "tick_ms": 20,
    "sample_ms": 50
  },
  "heartbeat": {
    "interval": 2
  }
}`

var embeddedConfigs = map[string][]byte{
	"turret-rp2": []byte(cfgTurretRP2),
	"sim":        []byte(cfgSim),
}
