package obstacle

import (
	"errors"
	"fmt"
)

// Kind identifies an obstacle variant.
type Kind uint8

const (
	KindOverheadBar Kind = iota
	KindGateLeft
	KindGateRight
	KindHurdle

	kindCount
)

// KindCount is the number of obstacle variants.
const KindCount = int(kindCount)

var ErrUnknownKind = errors.New("unknown obstacle kind")

var kindNames = [...]string{
	KindOverheadBar: "overhead",
	KindGateLeft:    "gate_left",
	KindGateRight:   "gate_right",
	KindHurdle:      "hurdle",
}

// Kinds lists every variant in declaration order.
func Kinds() []Kind {
	return []Kind{KindOverheadBar, KindGateLeft, KindGateRight, KindHurdle}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is a known variant.
func (k Kind) Valid() bool { return k < kindCount }

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
