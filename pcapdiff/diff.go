// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

// Package pcapdiff pairs the packets of two capture files under a
// configurable equality predicate and records, for every packet, whether it
// was matched and which packet in the other collection it matched.
package pcapdiff

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/jgibbard/pcapdiff/pcapfile"
)

// SearchMethod selects the pairing strategy FindMatching uses to locate a
// B-side candidate for each A-side packet.
type SearchMethod int

const (
	// SearchTimestamp keeps a monotonic cursor into B and only considers
	// candidates inside a small time window around each A packet. O(|A|+|B|)
	// amortised, but requires both collections to be timestamp-sorted.
	SearchTimestamp SearchMethod = iota
	// SearchFull compares every A packet against every unmatched B packet,
	// O(|A|*|B|). Order-independent, at the cost of quadratic time.
	SearchFull
	// SearchLocation would pair packets by capture interface/location
	// metadata this format does not carry, and always fails.
	SearchLocation
)

// ParseSearchMethod parses the --search-method flag value.
func ParseSearchMethod(s string) (SearchMethod, error) {
	switch s {
	case "timestamp":
		return SearchTimestamp, nil
	case "full":
		return SearchFull, nil
	case "location":
		return SearchLocation, nil
	default:
		return 0, newConfigError("unrecognised search method %q", s)
	}
}

// byteRange is a [Start, End) byte range into a packet's payload, as parsed
// from a "[start:end]" flag value. An End of zero or negative is an offset
// from the end of the payload (0 reaches the last byte, -1 stops one byte
// short of it); a positive End is an absolute index.
type byteRange struct {
	Start int
	End   int64
}

var rangePattern = regexp.MustCompile(`^\[(\d*):(-?\d*)\]$`)

// parseRange parses a "[start:end]" range expression. An empty start
// defaults to 0; an empty end defaults to 0, i.e. the end of the payload.
func parseRange(s string) (byteRange, error) {
	m := rangePattern.FindStringSubmatch(s)
	if m == nil {
		return byteRange{}, newConfigError("range %q does not match the expected [start:end] format", s)
	}

	start := 0
	if m[1] != "" {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return byteRange{}, newConfigError("range %q: invalid start: %s", s, err)
		}
		start = v
	}

	var end int64
	if m[2] != "" {
		v, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return byteRange{}, newConfigError("range %q: invalid end: %s", s, err)
		}
		end = v
	}

	return byteRange{Start: start, End: end}, nil
}

// resolve turns r into a concrete [start, end) slice bound against a
// payload of the given length. It reports ok=false for any range that
// would require a negative or out-of-bounds slice, or that starts at or
// past the end of the payload, rather than replicating the wraparound an
// unsigned-arithmetic implementation would produce.
func (r byteRange) resolve(dataLen int) (start, end int, ok bool) {
	start = r.Start
	if r.End <= 0 {
		end = dataLen + int(r.End)
	} else {
		end = int(r.End)
	}
	if start < 0 || end > dataLen || start >= end {
		return 0, 0, false
	}
	return start, end, true
}

// length reports the literal span of a range whose end is a positive,
// absolute literal, or false if the end is relative to the payload length
// (and so cannot be known without it).
func (r byteRange) length() (n int, ok bool) {
	if r.End <= 0 {
		return 0, false
	}
	return int(r.End) - r.Start, true
}

// parseMask parses a --byte-mask flag value: a string of '0'/'1'
// characters, one per byte position of the compare range counted from the
// range's start ('1' compares the byte, '0' ignores it); positions beyond
// the mask's length are always compared.
func parseMask(s string) ([]bool, error) {
	if s == "" {
		return nil, nil
	}
	mask := make([]bool, len(s))
	for i, c := range s {
		switch c {
		case '0':
			mask[i] = false
		case '1':
			mask[i] = true
		default:
			return nil, newConfigError("byte mask %q: character %q at position %d must be '0' or '1'", s, c, i)
		}
	}
	return mask, nil
}

// Config holds a fully validated packet-comparison configuration.
type Config struct {
	SearchMethod SearchMethod
	Mask         []bool
	RangeA       byteRange
	RangeB       byteRange
	TimeNeg      pcapfile.Timestamp
	TimePos      pcapfile.Timestamp
}

// NewConfig validates and assembles a Config from the raw flag values.
// rangeA and rangeB, when both fully bounded by literal (non-relative)
// ends, must describe equal-length spans. Comparison is positional, so a
// length mismatch can never match.
func NewConfig(searchMethod SearchMethod, mask []bool, rangeA, rangeB string, timeNeg, timePos float64) (*Config, error) {
	ra, err := parseRange(rangeA)
	if err != nil {
		return nil, err
	}
	rb, err := parseRange(rangeB)
	if err != nil {
		return nil, err
	}

	if la, ok := ra.length(); ok {
		if lb, ok := rb.length(); ok {
			if la != lb {
				return nil, newConfigError("range A length %d does not match range B length %d", la, lb)
			}
		}
	}

	neg, err := pcapfile.TimestampFromSeconds(timeNeg)
	if err != nil {
		return nil, newConfigError("negative time window: %s", err)
	}
	pos, err := pcapfile.TimestampFromSeconds(timePos)
	if err != nil {
		return nil, newConfigError("positive time window: %s", err)
	}

	return &Config{
		SearchMethod: searchMethod,
		Mask:         mask,
		RangeA:       ra,
		RangeB:       rb,
		TimeNeg:      neg,
		TimePos:      pos,
	}, nil
}

// Differ pairs the packets of two collections under a Config.
type Differ struct {
	cfg *Config
}

// NewDiffer builds a Differ from an already-validated Config.
func NewDiffer(cfg *Config) *Differ {
	return &Differ{cfg: cfg}
}

// FindMatching pairs packets of a against packets of b in place, setting
// Match and Mate on every packet that is paired. It never unpairs or
// re-pairs a packet that is already matched.
func (d *Differ) FindMatching(a, b *pcapfile.Packets) error {
	switch d.cfg.SearchMethod {
	case SearchTimestamp:
		d.findMatchingTimestamp(a, b)
		return nil
	case SearchFull:
		d.findMatchingFull(a, b)
		return nil
	case SearchLocation:
		return newConfigError("location-based search is not supported by this capture format")
	default:
		return newConfigError("unrecognised search method")
	}
}

// compare reports whether pa and pb are equal under the configured range,
// mask and byte comparison.
func (d *Differ) compare(pa, pb *pcapfile.Packet) bool {
	startA, endA, ok := d.cfg.RangeA.resolve(len(pa.Data))
	if !ok {
		return false
	}
	startB, endB, ok := d.cfg.RangeB.resolve(len(pb.Data))
	if !ok {
		return false
	}
	if endA-startA != endB-startB {
		return false
	}

	for i := 0; i < endA-startA; i++ {
		if i < len(d.cfg.Mask) && !d.cfg.Mask[i] {
			continue
		}
		if pa.Data[startA+i] != pb.Data[startB+i] {
			return false
		}
	}
	return true
}

// findMatchingTimestamp walks a once, maintaining a monotonic, never
// rewinding cursor into b located by binary search on timestamp. For each
// A packet it scans forward from the cursor while B's timestamp is within
// [a.Time - TimeNeg, a.Time + TimePos], picking the first unmatched B
// packet that satisfies compare.
func (d *Differ) findMatchingTimestamp(a, b *pcapfile.Packets) {
	cursor := 0
	for i := 0; i < a.Len(); i++ {
		pa := a.At(i)
		if pa.Match {
			continue
		}
		windowStart := pa.Header.Time.Sub(d.cfg.TimeNeg)
		windowEnd := pa.Header.Time.Add(d.cfg.TimePos)

		cursor = advanceCursor(b, cursor, windowStart)

		for j := cursor; j < b.Len(); j++ {
			pb := b.At(j)
			if pb.Header.Time.After(windowEnd) {
				break
			}
			if pb.Match {
				continue
			}
			if d.compare(pa, pb) {
				pa.Match = true
				pa.Mate = &pcapfile.Mate{Collection: pcapfile.CollectionB, Index: j}
				pb.Match = true
				pb.Mate = &pcapfile.Mate{Collection: pcapfile.CollectionA, Index: i}
				break
			}
		}
	}
}

// advanceCursor returns the index of the first packet in b whose timestamp
// is at or after windowStart, never returning an index before the
// previous cursor position.
func advanceCursor(b *pcapfile.Packets, cursor int, windowStart pcapfile.Timestamp) int {
	n := b.Len()
	idx := sort.Search(n-cursor, func(k int) bool {
		return b.At(cursor + k).Header.Time.AfterOrEqual(windowStart)
	})
	return cursor + idx
}

// findMatchingFull compares every A packet against every unmatched B
// packet in index order, pairing the first match found.
func (d *Differ) findMatchingFull(a, b *pcapfile.Packets) {
	for i := 0; i < a.Len(); i++ {
		pa := a.At(i)
		if pa.Match {
			continue
		}
		for j := 0; j < b.Len(); j++ {
			pb := b.At(j)
			if pb.Match {
				continue
			}
			if d.compare(pa, pb) {
				pa.Match = true
				pa.Mate = &pcapfile.Mate{Collection: pcapfile.CollectionB, Index: j}
				pb.Match = true
				pb.Mate = &pcapfile.Mate{Collection: pcapfile.CollectionA, Index: i}
				break
			}
		}
	}
}
