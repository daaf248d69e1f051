package frame

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDuration is the tick used by PolicyClamp for frames that arrive
// with no usable delay.
const DefaultDuration = 100 * time.Millisecond

type PolicyMode string

const (
	// PolicyStrict rejects non-positive durations with ErrInvalidDuration.
	PolicyStrict PolicyMode = "strict"
	// PolicyClamp replaces non-positive durations with the policy default.
	PolicyClamp PolicyMode = "clamp"
)

var ErrUnknownPolicy = fmt.Errorf("unknown duration policy")

// Policy decides what happens to a decoded frame whose delay is zero or
// negative. The same input always gets the same outcome.
type Policy struct {
	Mode     PolicyMode
	Fallback time.Duration
}

func Strict() Policy {
	return Policy{Mode: PolicyStrict}
}

func Clamp(fallback time.Duration) Policy {
	if fallback <= 0 {
		fallback = DefaultDuration
	}

	return Policy{Mode: PolicyClamp, Fallback: fallback}
}

func ParsePolicy(mode string, fallback time.Duration) (Policy, error) {
	switch PolicyMode(strings.ToLower(strings.TrimSpace(mode))) {
	case PolicyStrict:
		return Strict(), nil
	case PolicyClamp, "":
		return Clamp(fallback), nil
	}

	return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, mode)
}

// Duration returns the duration the policy would hand to New.
func (p Policy) Duration(d time.Duration) time.Duration {
	if d > 0 || p.Mode != PolicyClamp {
		return d
	}

	if p.Fallback <= 0 {
		return DefaultDuration
	}

	return p.Fallback
}

func (p Policy) Make(still Still, d time.Duration) (Frame, error) {
	return New(still, p.Duration(d))
}

// MakeTicks builds a frame from a delay in hundredths of a second, the unit
// GIF stores.
func (p Policy) MakeTicks(still Still, ticks int) (Frame, error) {
	return p.Make(still, time.Duration(ticks)*10*time.Millisecond)
}

func (p Policy) String() string {
	if p.Mode == PolicyClamp {
		return fmt.Sprintf("%s(%s)", p.Mode, p.Duration(0))
	}
	return string(p.Mode)
}
