package kernel

import (
	"fmt"
	"strconv"
	"strings"
)

// Transformation identifies a transformation type. It indexes into an
// authority's admissible action vector.
type Transformation uint8

// VectorWidth is the fixed width of the admissible action vector. Every
// bit at or beyond this index must be zero on every stored record.
const VectorWidth = 16

// Governance transformation types occupy the low bits; the remaining
// identifiers are resource operations with no kernel-interpreted meaning.
const (
	TransformCreateAuthority  Transformation = 0
	TransformDestroyAuthority Transformation = 1
)

// transformation names for the wire and for batch/scenario files.
const (
	nameCreateAuthority  = "CREATE_AUTHORITY"
	nameDestroyAuthority = "DESTROY_AUTHORITY"
	opPrefix             = "EXECUTE_OP"
)

// String returns the canonical name of the transformation.
func (t Transformation) String() string {
	switch t {
	case TransformCreateAuthority:
		return nameCreateAuthority
	case TransformDestroyAuthority:
		return nameDestroyAuthority
	default:
		return fmt.Sprintf("%s%d", opPrefix, int(t)-2)
	}
}

// Valid reports whether the transformation falls inside the vector width.
func (t Transformation) Valid() bool {
	return int(t) < VectorWidth
}

// ParseTransformation resolves a transformation name: CREATE_AUTHORITY,
// DESTROY_AUTHORITY, or EXECUTE_OPn for n in [0, VectorWidth-3].
func ParseTransformation(name string) (Transformation, error) {
	switch name {
	case nameCreateAuthority:
		return TransformCreateAuthority, nil
	case nameDestroyAuthority:
		return TransformDestroyAuthority, nil
	}
	if rest, ok := strings.CutPrefix(name, opPrefix); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 0 && n+2 < VectorWidth {
			return Transformation(n + 2), nil
		}
	}
	return 0, fmt.Errorf("unknown transformation type %q", name)
}

// ActionVector is a fixed-width bitset naming exactly which transformation
// types an authority may admit. Compared structurally, never semantically.
type ActionVector uint64

// vectorMask covers the defined transformation-type range.
const vectorMask ActionVector = (1 << VectorWidth) - 1

// Has reports whether the vector admits the given transformation type.
func (v ActionVector) Has(t Transformation) bool {
	return v&(1<<t) != 0
}

// With returns the vector with the given transformation bit set.
func (v ActionVector) With(t Transformation) ActionVector {
	return v | (1 << t)
}

// Union returns the bitwise union of both vectors.
func (v ActionVector) Union(o ActionVector) ActionVector {
	return v | o
}

// SubsetOf reports whether every bit of v is present in o. This is the
// structural containment check behind the non-amplification invariant.
func (v ActionVector) SubsetOf(o ActionVector) bool {
	return v&^o == 0
}

// InRange reports whether every set bit lies inside the defined
// transformation-type range.
func (v ActionVector) InRange() bool {
	return v&^vectorMask == 0
}

// VectorOf builds a vector from transformation types.
func VectorOf(ts ...Transformation) ActionVector {
	var v ActionVector
	for _, t := range ts {
		v = v.With(t)
	}
	return v
}

// ParseVector builds a vector from transformation names.
func ParseVector(names []string) (ActionVector, error) {
	var v ActionVector
	for _, name := range names {
		t, err := ParseTransformation(name)
		if err != nil {
			return 0, err
		}
		v = v.With(t)
	}
	return v, nil
}

// Names returns the sorted transformation names for each set bit.
func (v ActionVector) Names() []string {
	var names []string
	for t := Transformation(0); int(t) < VectorWidth; t++ {
		if v.Has(t) {
			names = append(names, t.String())
		}
	}
	return names
}
