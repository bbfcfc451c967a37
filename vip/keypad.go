package vip

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// The hex keypad is laid out on the left of a QWERTY keyboard:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var (
	runeKeys = map[rune]byte{
		'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
		'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
		'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
		'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
	}
	codeKeys = map[key.Code]byte{
		key.Code1: 0x1, key.Code2: 0x2, key.Code3: 0x3, key.Code4: 0xc,
		key.CodeQ: 0x4, key.CodeW: 0x5, key.CodeE: 0x6, key.CodeR: 0xd,
		key.CodeA: 0x7, key.CodeS: 0x8, key.CodeD: 0x9, key.CodeF: 0xe,
		key.CodeZ: 0xa, key.CodeX: 0x0, key.CodeC: 0xb, key.CodeV: 0xf,
	}
)

// KeyForRune returns the hex key typed by r, ignoring case.
func KeyForRune(r rune) (k byte, ok bool) {
	k, ok = runeKeys[unicode.ToLower(r)]
	return
}

// KeyForCode returns the hex key at the physical key c.
func KeyForCode(c key.Code) (k byte, ok bool) {
	k, ok = codeKeys[c]
	return
}
