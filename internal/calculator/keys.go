package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/hp12c/pkg/tvm"
)

// ErrUnknownKey is returned when a key token does not name a keypad key.
var ErrUnknownKey = errors.New("unknown key")

// Key is one physical key on the keypad. The meaning of a key depends on the
// shift state when it is pressed; see Resolve.
type Key int

// Digit keys occupy 0-9 so that a digit key's value is its digit.
const (
	Key0 Key = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyDot
	KeyEnter
	KeyAdd
	KeySubtract
	KeyMultiply
	KeyDivide
	KeyPower
	KeyReciprocal
	KeyPercentTotal
	KeyDeltaPercent
	KeyPercent
	KeyCHS
	KeySwap
	KeyRollDown
	KeyClx
	KeySTO
	KeyRCL
	KeyF
	KeyG
	KeyN
	KeyI
	KeyPV
	KeyPMT
	KeyFV
	KeyOn
	keyCount
)

var keyLabels = [keyCount]string{
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	".", "ENTER", "+", "-", "×", "÷", "yˣ", "1/x", "%T", "Δ%", "%",
	"CHS", "x<>y", "R↓", "CLX", "STO", "RCL", "f", "g",
	"n", "i", "PV", "PMT", "FV", "ON",
}

// keyAliases maps lower case tokens to keys, in addition to the labels.
var keyAliases = map[string]Key{
	"enter":  KeyEnter,
	"*":      KeyMultiply,
	"x":      KeyMultiply,
	"/":      KeyDivide,
	"pow":    KeyPower,
	"y^x":    KeyPower,
	"yx":     KeyPower,
	"recip":  KeyReciprocal,
	"d%":     KeyDeltaPercent,
	"delta%": KeyDeltaPercent,
	"swap":   KeySwap,
	"rdn":    KeyRollDown,
	"roll":   KeyRollDown,
	"r":      KeyRollDown,
}

var keysByToken = func() map[string]Key {
	m := make(map[string]Key, len(keyLabels)+len(keyAliases))
	for k, label := range keyLabels {
		m[strings.ToLower(label)] = Key(k)
	}
	for alias, k := range keyAliases {
		m[alias] = k
	}
	return m
}()

// String returns the key's keypad label.
func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyLabels[k]
}

// IsDigit reports whether k is one of the ten digit keys.
func (k Key) IsDigit() bool {
	return k >= Key0 && k <= Key9
}

// Target returns the TVM register of a financial key.
func (k Key) Target() (tvm.Target, bool) {
	switch k {
	case KeyN:
		return tvm.N, true
	case KeyI:
		return tvm.I, true
	case KeyPV:
		return tvm.PV, true
	case KeyPMT:
		return tvm.PMT, true
	case KeyFV:
		return tvm.FV, true
	}
	return 0, false
}

// ParseKey converts a token such as "7", "enter", "x<>y" or "PMT" into a Key.
// Matching is case insensitive.
func ParseKey(token string) (Key, error) {
	k, ok := keysByToken[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, token)
	}
	return k, nil
}

// ParseKeys converts every token, failing on the first unknown one.
func ParseKeys(tokens []string) ([]Key, error) {
	keys := make([]Key, 0, len(tokens))
	for _, token := range tokens {
		k, err := ParseKey(token)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}
