// Package types holds the payload shapes exchanged over the bus and the
// turret runtime configuration.
package types

// ------------------------
// Turret state (retained)
// ------------------------

type TurretState struct {
	State    string `json:"state"` // "idle", "scanning", "tracking", "firing", "fault"
	Armed    bool   `json:"armed"`
	AngleCD  int16  `json:"angle_cd"`
	Distance uint16 `json:"distance_mm"`
	TS       int64  `json:"ts_ms"`
}

type FaultReport struct {
	Code string `json:"code"` // machine-readable short code
	Op   string `json:"op"`
	TS   int64  `json:"ts_ms"`
}

// ------------------------
// Generic replies
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
