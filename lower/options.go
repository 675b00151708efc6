package lower

import (
	"fmt"

	"github.com/npillmayer/schuko"
)

// DefaultGosubStackDepth is the number of pending GOSUB returns a procedure
// can hold before trapping.
const DefaultGosubStackDepth = 128

// Configuration keys read by OptionsFromConfig.
const (
	KeyBoundsChecks = "lower.bounds-checks"
	KeyGosubDepth   = "lower.gosub-depth"
)

// Options tunes lowering. The zero value is usable.
type Options struct {
	// BoundsChecks makes every array access compare the index against the
	// array length and call rt_array_oob_panic when it is out of range.
	BoundsChecks bool
	// GosubStackDepth defaults to DefaultGosubStackDepth.
	GosubStackDepth int
	// Namer makes the block namer for a procedure. Nil selects NewBlockNamer.
	Namer func(proc string) Namer
}

func (o Options) gosubDepth() int {
	if o.GosubStackDepth <= 0 {
		return DefaultGosubStackDepth
	}
	return o.GosubStackDepth
}

func (o Options) namer(proc string) Namer {
	if o.Namer == nil {
		return NewBlockNamer(proc)
	}
	return o.Namer(proc)
}

// OptionsFromConfig reads lowering options from a configuration.
func OptionsFromConfig(conf schuko.Configuration) (Options, error) {
	var opts Options
	if conf.IsSet(KeyBoundsChecks) {
		opts.BoundsChecks = conf.GetBool(KeyBoundsChecks)
	}
	if conf.IsSet(KeyGosubDepth) {
		depth := conf.GetInt(KeyGosubDepth)
		if depth <= 0 {
			return opts, fmt.Errorf("%s must be positive, got %d", KeyGosubDepth, depth)
		}
		opts.GosubStackDepth = depth
	}
	return opts, nil
}
