// Package seed is the seed-execution engine: it resolves declarative call
// descriptions into concrete chain calls, submits them, and surfaces the
// events the program emitted.
package seed

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

var (
	ErrBadAddress = fmt.Errorf("invalid address syntax")
	ErrBadNumber  = fmt.Errorf("invalid numeric value")
	ErrResolution = fmt.Errorf("placeholder resolution failed")
)

// Context distinguishes account-role resolution from positional-argument
// resolution. The two differ only in the fallback rule for unrecognized
// strings: an account role must name an address, an argument may be any
// literal.
type Context int

const (
	ContextAccounts Context = iota
	ContextArgs
)

// Kind tags a parsed placeholder. Parsing is an ordered match: the first
// matching shape wins, so a value that satisfies several shapes always
// resolves the same way.
type Kind int

const (
	KindPassthrough Kind = iota
	KindNumber
	KindAddress
	KindSigner
	KindSystemProgram
	KindRent
	KindNewKeypair
	KindProgramAddress
	KindLiteral
)

// Placeholder is one parsed declarative value, ready to resolve.
type Placeholder struct {
	Kind Kind
	// Raw is the original value for passthrough and numeric kinds.
	Raw interface{}
	// Text carries the string payload for address, derivation and literal
	// kinds.
	Text string
}

const (
	keywordSigner        = "signer"
	keywordPayer         = "payer"
	keywordSystemProgram = "systemProgram"
	keywordRent          = "rent"
	newKeypairPrefix     = "new:"
)

// Parse classifies one declarative value. Match order is part of the
// contract:
//  1. non-scalar values pass through untouched
//  2. numerics widen to arbitrary-precision integers
//  3. syntactically valid addresses resolve as addresses
//  4. signer / payer
//  5. systemProgram
//  6. rent
//  7. new: keypair mint
//  8. pda: address derivation
//  9. remaining strings: literal (arguments) or address-or-fail (accounts)
func Parse(value interface{}) Placeholder {
	switch v := value.(type) {
	case string:
		return parseString(v)
	case float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return Placeholder{Kind: KindNumber, Raw: v}
	default:
		return Placeholder{Kind: KindPassthrough, Raw: value}
	}
}

func parseString(v string) Placeholder {
	if _, err := solana.PublicKeyFromBase58(v); err == nil {
		return Placeholder{Kind: KindAddress, Text: v}
	}

	switch v {
	case keywordSigner, keywordPayer:
		return Placeholder{Kind: KindSigner, Text: v}
	case keywordSystemProgram:
		return Placeholder{Kind: KindSystemProgram, Text: v}
	case keywordRent:
		return Placeholder{Kind: KindRent, Text: v}
	}

	if strings.HasPrefix(v, newKeypairPrefix) {
		return Placeholder{Kind: KindNewKeypair, Text: v}
	}

	if strings.HasPrefix(v, derivationPrefix) {
		return Placeholder{Kind: KindProgramAddress, Text: v}
	}

	return Placeholder{Kind: KindLiteral, Text: v, Raw: v}
}

// Resolver turns parsed placeholders into concrete call values. It is scoped
// to one caller identity and one target program; it holds no state across
// calls, so every execution re-resolves from scratch.
type Resolver struct {
	Caller  solana.PublicKey
	Program solana.PublicKey
}

// Cosigner is a freshly minted keypair whose signature the transaction
// requires, reported through an explicit side channel rather than smuggled
// into the accounts map.
type Cosigner struct {
	Role string
	Key  solana.PrivateKey
}

// Resolution is one call's fully resolved accounts, arguments, and implicit
// co-signers. Keypairs minted for argument positions are not co-signers;
// arguments are not account roles.
type Resolution struct {
	Accounts map[string]solana.PublicKey
	Args     []interface{}
	Signers  []Cosigner
}

// ResolveCall resolves a call spec's accounts map and argument list. Any
// failure identifies the offending role or argument position and its raw
// value, and aborts the whole call.
func (r *Resolver) ResolveCall(call CallSpec) (*Resolution, error) {
	res := &Resolution{
		Accounts: make(map[string]solana.PublicKey, len(call.Accounts)),
		Args:     make([]interface{}, 0, len(call.Args)),
	}

	for role, raw := range call.Accounts {
		key, cosigner, err := r.resolveAccount(role, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "account %q (value %v)", role, raw)
		}

		res.Accounts[role] = key

		if cosigner != nil {
			res.Signers = append(res.Signers, *cosigner)
		}
	}

	for i, raw := range call.Args {
		value, err := r.resolveArg(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d (value %v)", i, raw)
		}

		res.Args = append(res.Args, value)
	}

	return res, nil
}

func (r *Resolver) resolveAccount(role string, raw interface{}) (solana.PublicKey, *Cosigner, error) {
	ph := Parse(raw)

	switch ph.Kind {
	case KindAddress:
		key, err := solana.PublicKeyFromBase58(ph.Text)
		return key, nil, err
	case KindSigner:
		return r.Caller, nil, nil
	case KindSystemProgram:
		return solana.SystemProgramID, nil, nil
	case KindRent:
		return solana.SysVarRentPubkey, nil, nil
	case KindNewKeypair:
		wallet := solana.NewWallet()
		return wallet.PublicKey(), &Cosigner{Role: role, Key: wallet.PrivateKey}, nil
	case KindProgramAddress:
		key, err := DeriveAddress(ph.Text, r.Caller, r.Program)
		return key, nil, err
	case KindLiteral:
		key, err := solana.PublicKeyFromBase58(ph.Text)
		if err != nil {
			return solana.PublicKey{}, nil, fmt.Errorf("%w: %s", ErrBadAddress, ph.Text)
		}

		return key, nil, nil
	default:
		return solana.PublicKey{}, nil, fmt.Errorf("%w: account role cannot hold %T", ErrResolution, raw)
	}
}

func (r *Resolver) resolveArg(raw interface{}) (interface{}, error) {
	ph := Parse(raw)

	switch ph.Kind {
	case KindPassthrough:
		return ph.Raw, nil
	case KindNumber:
		return widenNumber(ph.Raw)
	case KindAddress:
		return solana.PublicKeyFromBase58(ph.Text)
	case KindSigner:
		return r.Caller, nil
	case KindSystemProgram:
		return solana.SystemProgramID, nil
	case KindRent:
		return solana.SysVarRentPubkey, nil
	case KindNewKeypair:
		// The public half only; argument-position keypairs never co-sign.
		return solana.NewWallet().PublicKey(), nil
	case KindProgramAddress:
		return DeriveAddress(ph.Text, r.Caller, r.Program)
	default:
		return ph.Raw, nil
	}
}

// widenNumber lifts any scalar numeric to an arbitrary-precision integer
// matching the chain's native numeric argument encoding.
func widenNumber(raw interface{}) (*big.Int, error) {
	switch v := raw.(type) {
	case float64:
		n, accuracy := big.NewFloat(v).Int(nil)
		if accuracy != big.Exact {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrBadNumber, v)
		}

		return n, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case json.Number:
		n, ok := new(big.Int).SetString(v.String(), 10)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBadNumber, v.String())
		}

		return n, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadNumber, raw)
	}
}
