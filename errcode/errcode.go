package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Control-core taxonomy.
	OutOfRange    Code = "out_of_range"   // calibration input outside declared domain
	Overflow      Code = "overflow"       // event queue full; resolved by drop policy
	OutOfBounds   Code = "out_of_bounds"  // servo command outside physical limits
	NoClip        Code = "no_clip"        // missing audio asset; degraded, non-fatal
	HardwareFault Code = "hardware_fault" // actuator/sensor failure; escalates to Fault
	BadRecord     Code = "bad_record"     // persisted record version/layout mismatch
	BadImage      Code = "bad_image"      // clip store image signature/layout mismatch
	NotFound      Code = "not_found"      // named clip absent from the store
	Busy          Code = "busy"           // playback already in progress

	// Bus plumbing.
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	InvalidTopic   Code = "invalid_topic"
	Unsupported    Code = "unsupported"
	Faulted        Code = "faulted" // control rejected: turret is in Fault

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap annotates err with a code and an operation name.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Is reports whether err carries the given code.
func Is(err error, c Code) bool { return Of(err) == c }
