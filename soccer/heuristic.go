package soccer

import "unicode"

// Key is a keyboard key used for manual control
type Key rune

const (
	KeyW Key = 'w'
	KeyA Key = 'a'
	KeyS Key = 's'
	KeyD Key = 'd'
	KeyE Key = 'e'
	KeyQ Key = 'q'
)

// KeySource reports which keys are held down
type KeySource interface {
	Pressed(Key) bool
}

// KeySet is a static set of pressed keys
type KeySet map[Key]bool

var _ KeySource = KeySet{}

// ParseKeys builds a KeySet from the letters of s, ignoring case
func ParseKeys(s string) KeySet {
	keys := make(KeySet)
	for _, r := range s {
		if unicode.IsLetter(r) {
			keys[Key(unicode.ToLower(r))] = true
		}
	}
	return keys
}

func (k KeySet) Pressed(key Key) bool {
	return k[key]
}

// Heuristic maps pressed keys onto out. Keys are checked in the order
// W, S, A, D, E, Q so S wins over W, D over A and Q over E. Slots without
// a pressed key are left untouched.
func Heuristic(keys KeySource, out *Actions) {
	if keys.Pressed(KeyW) {
		out[ActionMoveX] = -1
	}
	if keys.Pressed(KeyS) {
		out[ActionMoveX] = 1
	}
	if keys.Pressed(KeyA) {
		out[ActionMoveZ] = -1
	}
	if keys.Pressed(KeyD) {
		out[ActionMoveZ] = 1
	}
	if keys.Pressed(KeyE) {
		out[ActionRotate] = 1
	}
	if keys.Pressed(KeyQ) {
		out[ActionRotate] = -1
	}
}
