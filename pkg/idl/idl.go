// Package idl loads and queries program interface descriptions: the callable
// functions of a deployed program, the account roles and arguments each one
// declares, and the shapes of the events it emits.
package idl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

var (
	ErrNotFound = fmt.Errorf("program interface not found")
	ErrDecoding = fmt.Errorf("program interface decoding failure")
)

// IDL is one program's interface description.
type IDL struct {
	Version      string        `json:"version"`
	Name         string        `json:"name"`
	Instructions []Instruction `json:"instructions"`
	Events       []Event       `json:"events"`
}

// Instruction describes one callable entry point: the account roles it
// requires by name and its positional arguments.
type Instruction struct {
	Name     string        `json:"name"`
	Accounts []AccountRole `json:"accounts"`
	Args     []Field       `json:"args"`
}

type AccountRole struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
}

type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Event describes one emitted-event shape as it appears in program logs.
type Event struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Instruction returns the named entry point. Lookup is exact; a miss is the
// caller's resolution-time error.
func (i *IDL) Instruction(name string) (Instruction, bool) {
	for _, ins := range i.Instructions {
		if ins.Name == name {
			return ins, true
		}
	}

	return Instruction{}, false
}

// Event returns the event whose discriminator matches the first eight bytes
// of a decoded log payload.
func (i *IDL) Event(discriminator []byte) (Event, bool) {
	for _, evt := range i.Events {
		if bytes.Equal(EventDiscriminator(evt.Name), discriminator) {
			return evt, true
		}
	}

	return Event{}, false
}

// Decode parses an interface description document.
func Decode(encoded []byte) (*IDL, error) {
	var doc IDL
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecoding, err.Error())
	}

	return &doc, nil
}

// LoadFile reads an interface description from an explicit path.
func LoadFile(path string) (*IDL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("%w: %s", ErrDecoding, err.Error())
	}

	return Decode(data)
}

// Load reads the interface description for a named program from its
// conventional artifact location under the workspace root.
func Load(root, program string) (*IDL, error) {
	return LoadFile(filepath.Join(root, "target", "idl", program+".json"))
}
