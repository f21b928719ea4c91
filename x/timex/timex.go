package timex

import "time"

// NowMs returns Unix milliseconds as int64. Event timestamps use this
// clock; on TinyGo targets it is backed by the monotonic system timer.
func NowMs() int64 { return time.Now().UnixMilli() }

// SinceMs returns the elapsed milliseconds since an earlier NowMs value.
func SinceMs(start int64) int64 { return NowMs() - start }
