package lower

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// T traces procedure lowering.
func T() tracing.Trace {
	return tracing.Select("basil.lower")
}

// tscan traces the scan pass.
func tscan() tracing.Trace {
	return tracing.Select("basil.scan")
}

// InternalError is the panic value for broken lowering invariants. It never
// describes a problem in the user's program.
type InternalError struct {
	Msg string
}

func (e InternalError) Error() string {
	return "internal compiler error: " + e.Msg
}

func internalf(format string, args ...any) {
	panic(InternalError{Msg: fmt.Sprintf(format, args...)})
}
