package main

import (
	"strconv"

	"github.com/npillmayer/schuko"
	"github.com/spf13/pflag"
	"github.com/strager/basil/lower"
)

const (
	flagBoundsChecks = "bounds-checks"
	flagGosubDepth   = "gosub-depth"
)

// flagKeys maps configuration keys onto command-line flags.
var flagKeys = map[string]string{
	lower.KeyBoundsChecks: flagBoundsChecks,
	lower.KeyGosubDepth:   flagGosubDepth,
}

// flagConfig is a schuko.Configuration backed by parsed flags. A key is set
// only when its flag was given on the command line.
type flagConfig struct {
	flags *pflag.FlagSet
}

var _ schuko.Configuration = flagConfig{}

func newFlagConfig(flags *pflag.FlagSet) flagConfig {
	return flagConfig{flags: flags}
}

func (c flagConfig) lookup(key string) *pflag.Flag {
	name, ok := flagKeys[key]
	if !ok {
		name = key
	}
	return c.flags.Lookup(name)
}

func (c flagConfig) InitDefaults() {}

func (c flagConfig) IsSet(key string) bool {
	f := c.lookup(key)
	return f != nil && f.Changed
}

func (c flagConfig) GetString(key string) string {
	if f := c.lookup(key); f != nil {
		return f.Value.String()
	}
	return ""
}

func (c flagConfig) GetInt(key string) int {
	n, _ := strconv.Atoi(c.GetString(key))
	return n
}

func (c flagConfig) GetBool(key string) bool {
	b, _ := strconv.ParseBool(c.GetString(key))
	return b
}

func (c flagConfig) IsInteractive() bool { return false }
