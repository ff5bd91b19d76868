package seed

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

var ErrBadDerivation = fmt.Errorf("address derivation failed")

// derivationPrefix marks a placeholder as a program-address derivation. The
// remainder is a comma-separated fragment list; each fragment contributes one
// seed byte sequence, in order.
const derivationPrefix = "pda:"

// DeriveAddress derives a program-owned address from a derivation spec.
//
// Fragments resolve left to right:
//   - "signer" is always the caller's identity in canonical binary form;
//     there is no escape for the literal word.
//   - a fragment starting with "pda:" derives recursively, and the derived
//     address's binary form becomes a single seed of the outer derivation.
//   - anything else is a literal text seed, raw bytes, no transformation.
//
// A single colon-separated fragment with no commas is tolerated as the legacy
// single-level form.
func DeriveAddress(spec string, caller, program solana.PublicKey) (solana.PublicKey, error) {
	if !strings.HasPrefix(spec, derivationPrefix) {
		return solana.PublicKey{}, fmt.Errorf("%w: missing %q prefix in %q", ErrBadDerivation, derivationPrefix, spec)
	}

	body := spec[len(derivationPrefix):]
	if body == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: empty seed list in %q", ErrBadDerivation, spec)
	}

	fragments := strings.Split(body, ",")

	// Legacy form: pda:a:b with no commas. Nested derivations are excluded
	// or the recursive prefix would be split apart.
	if len(fragments) == 1 && strings.Contains(fragments[0], ":") && !strings.HasPrefix(fragments[0], derivationPrefix) {
		fragments = strings.Split(fragments[0], ":")
	}

	seeds := make([][]byte, 0, len(fragments))

	for _, fragment := range fragments {
		if fragment == "" {
			return solana.PublicKey{}, fmt.Errorf("%w: empty fragment in %q", ErrBadDerivation, spec)
		}

		seed, err := resolveFragment(fragment, caller, program)
		if err != nil {
			return solana.PublicKey{}, err
		}

		seeds = append(seeds, seed)
	}

	address, _, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return solana.PublicKey{}, errors.Wrapf(ErrBadDerivation, "%q: %s", spec, err.Error())
	}

	return address, nil
}

func resolveFragment(fragment string, caller, program solana.PublicKey) ([]byte, error) {
	if fragment == keywordSigner {
		return caller.Bytes(), nil
	}

	if strings.HasPrefix(fragment, derivationPrefix) {
		nested, err := DeriveAddress(fragment, caller, program)
		if err != nil {
			return nil, err
		}

		return nested.Bytes(), nil
	}

	return []byte(fragment), nil
}
