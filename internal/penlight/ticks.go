package penlight

import "time"

var epoch = time.Now()

// Ticks returns a millisecond counter that wraps at the uint32
// boundary (about every 49.7 days). Callers must compare ticks with
// TicksDiff, never by direct subtraction.
func Ticks() uint32 {
	return uint32(time.Since(epoch).Milliseconds())
}

// TicksDiff returns the signed distance from b to a over the wrapping
// uint32 modulus, so a timestamp taken just after a wrap still compares
// correctly against one taken just before it.
func TicksDiff(a, b uint32) int32 {
	return int32(a - b)
}
