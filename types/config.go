package types

// Turret configuration supplied on topic "config/turret".

type TurretConfig struct {
	BandMinMM        uint16 `json:"band_min_mm"`
	BandMaxMM        uint16 `json:"band_max_mm"`
	DwellCount       int    `json:"dwell_count"`        // stable samples before firing
	StableEpsilonCD  int16  `json:"stable_epsilon_cd"`  // aim delta treated as "still"
	FireTicks        int    `json:"fire_ticks"`         // firing window cap in ticks
	IdleTicks        int    `json:"idle_ticks"`         // no-contact ticks before idle
	TrackTimeoutTick int    `json:"track_timeout_ticks"`
	ReacquireMs      uint32 `json:"reacquire_ms"`  // reacquisition within this of the last contact voices restored
	ServoRateCD      int16  `json:"servo_rate_cd"` // max slew per tick
	ToleranceCD      int16  `json:"tolerance_cd"`
	TickMs           uint32 `json:"tick_ms"`
	SampleMs         uint32 `json:"sample_ms"`
	QueueDepth       int    `json:"queue_depth"`
	QueueReserve     int    `json:"queue_reserve"`
}

// DefaultTurretConfig returns the firmware defaults used when the
// retained config omits a key.
func DefaultTurretConfig() TurretConfig {
	return TurretConfig{
		BandMinMM:        100,
		BandMaxMM:        1000,
		DwellCount:       5,
		StableEpsilonCD:  100,
		FireTicks:        50,
		IdleTicks:        300,
		TrackTimeoutTick: 25,
		ReacquireMs:      30000,
		ServoRateCD:      150,
		ToleranceCD:      25,
		TickMs:           20,
		SampleMs:         50,
		QueueDepth:       16,
		QueueReserve:     4,
	}
}

// TurretConfigFromMap overlays a decoded JSON object on the defaults.
// Unknown keys are ignored; missing keys keep their default.
func TurretConfigFromMap(m map[string]any) TurretConfig {
	c := DefaultTurretConfig()
	if m == nil {
		return c
	}
	if v, ok := AsInt(m["band_min_mm"]); ok {
		c.BandMinMM = uint16(v)
	}
	if v, ok := AsInt(m["band_max_mm"]); ok {
		c.BandMaxMM = uint16(v)
	}
	if v, ok := AsInt(m["dwell_count"]); ok {
		c.DwellCount = int(v)
	}
	if v, ok := AsInt(m["stable_epsilon_cd"]); ok {
		c.StableEpsilonCD = int16(v)
	}
	if v, ok := AsInt(m["fire_ticks"]); ok {
		c.FireTicks = int(v)
	}
	if v, ok := AsInt(m["idle_ticks"]); ok {
		c.IdleTicks = int(v)
	}
	if v, ok := AsInt(m["track_timeout_ticks"]); ok {
		c.TrackTimeoutTick = int(v)
	}
	if v, ok := AsInt(m["reacquire_ms"]); ok {
		c.ReacquireMs = uint32(v)
	}
	if v, ok := AsInt(m["servo_rate_cd"]); ok {
		c.ServoRateCD = int16(v)
	}
	if v, ok := AsInt(m["tolerance_cd"]); ok {
		c.ToleranceCD = int16(v)
	}
	if v, ok := AsInt(m["tick_ms"]); ok {
		c.TickMs = uint32(v)
	}
	if v, ok := AsInt(m["sample_ms"]); ok {
		c.SampleMs = uint32(v)
	}
	if v, ok := AsInt(m["queue_depth"]); ok {
		c.QueueDepth = int(v)
	}
	if v, ok := AsInt(m["queue_reserve"]); ok {
		c.QueueReserve = int(v)
	}
	return c
}

// AsInt accepts the numeric shapes a JSON decoder may hand us.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
