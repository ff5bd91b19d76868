package idl

import (
	"crypto/sha256"
	"strings"
	"unicode"
)

// Instruction and event discriminators follow the Anchor wire convention: the
// first eight bytes of a sha256 over a namespaced name. Instruction names are
// hashed in snake case regardless of how the interface spells them; event
// names are hashed verbatim.

func InstructionDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + ToSnake(name)))
	return sum[:8]
}

func EventDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("event:" + name))
	return sum[:8]
}

// ToSnake converts a camelCase identifier to snake_case. Identifiers already
// in snake case pass through unchanged.
func ToSnake(name string) string {
	var b strings.Builder

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}

			b.WriteRune(unicode.ToLower(r))
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
