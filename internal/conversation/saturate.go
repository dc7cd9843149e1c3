package conversation

import "github.com/rs/zerolog"

// satAdd applies a signed delta to an unsigned counter, clamping at zero
// instead of wrapping. Corrupt input driving a counter negative must not
// panic or wrap.
func satAdd(log zerolog.Logger, field string, cur uint32, delta int32) uint32 {
	if delta >= 0 {
		d := uint32(delta)
		if cur > ^uint32(0)-d {
			return ^uint32(0)
		}
		return cur + d
	}
	d := uint32(-delta)
	if d > cur {
		log.Warn().Str("field", field).Uint32("current", cur).Int32("delta", delta).
			Msg("counter underflow clamped to zero")
		return 0
	}
	return cur - d
}

// sign returns 1 if v is positive, 0 otherwise — the indicator function used
// by folder-status delta propagation.
func sign(v uint32) int32 {
	if v > 0 {
		return 1
	}
	return 0
}
