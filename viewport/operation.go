package viewport

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Operation is the interaction mode that pointer drags are mapped to.
type Operation int

const (
	// OpOrbit rotates the camera around its target.
	OpOrbit Operation = iota
	// OpPan translates the target in the view plane.
	OpPan
	// OpZoom changes the camera distance.
	OpZoom
	// OpSelect leaves the camera untouched.
	OpSelect
)

// ErrUnknownOperation is returned by ParseOperation for unrecognized names.
var ErrUnknownOperation = errors.New("viewport: unknown operation")

var operationNames = [...]string{
	OpOrbit:  "orbit",
	OpPan:    "pan",
	OpZoom:   "zoom",
	OpSelect: "select",
}

var operationAliases = map[string]Operation{
	"orbit":  OpOrbit,
	"rotate": OpOrbit,
	"pan":    OpPan,
	"zoom":   OpZoom,
	"dolly":  OpZoom,
	"select": OpSelect,
}

// String returns the canonical lower-case name.
func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationNames) {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return operationNames[o]
}

// ParseOperation maps a mode name to an Operation. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseOperation(s string) (Operation, error) {
	name := cases.Fold().String(strings.TrimSpace(s))
	if op, ok := operationAliases[name]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}
