// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

// Package pcapwriter renders a pair of already-diffed packet collections
// into one of the output capture formats the comparator can produce.
package pcapwriter

import "fmt"

// Mode selects which of the six output formats Write produces.
type Mode int

const (
	// ModeBasic interleaves every A packet with every unmatched B packet
	// in timestamp order, tagging each with a trailing classification
	// byte. Matched B packets are not emitted.
	ModeBasic Mode = iota
	// ModeFull re-frames every packet (matched pairs included) into a
	// bespoke three-case record on a synthetic link-layer type.
	ModeFull
	// ModeMatchA emits only the matched packets of collection A.
	ModeMatchA
	// ModeMatchB emits only the matched packets of collection B.
	ModeMatchB
	// ModeAdded emits the unmatched packets of collection B.
	ModeAdded
	// ModeRemoved emits the unmatched packets of collection A.
	ModeRemoved
)

// ParseMode parses the --output-format flag value.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "basic":
		return ModeBasic, nil
	case "full":
		return ModeFull, nil
	case "match_a":
		return ModeMatchA, nil
	case "match_b":
		return ModeMatchB, nil
	case "added":
		return ModeAdded, nil
	case "removed":
		return ModeRemoved, nil
	default:
		return 0, newModeError("unrecognised output format %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeBasic:
		return "basic"
	case ModeFull:
		return "full"
	case ModeMatchA:
		return "match_a"
	case ModeMatchB:
		return "match_b"
	case ModeAdded:
		return "added"
	case ModeRemoved:
		return "removed"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}
