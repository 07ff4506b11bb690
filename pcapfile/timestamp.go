// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

// Package pcapfile reads the classic PCAP v2.4 microsecond-resolution
// capture format into an in-memory packet sequence and offers the small set
// of mutations (timestamp shifting) the comparator needs.
package pcapfile

import (
	"fmt"
	"math"
	"time"
)

// microsPerSecond is the number of microseconds in one second, i.e. the
// modulus a Timestamp's Usec field must always stay below.
const microsPerSecond = 1_000_000

// Timestamp is a fixed-point (seconds, microseconds) capture time. Usec is
// always in [0, 1_000_000).
type Timestamp struct {
	Sec  uint32
	Usec uint32
}

// NewTimestamp builds a Timestamp from separate seconds and microseconds
// fields, rejecting a microseconds value that would overflow into the next
// second.
func NewTimestamp(sec, usec uint32) (Timestamp, error) {
	if usec >= microsPerSecond {
		return Timestamp{}, fmt.Errorf("pcapfile: timestamp microseconds %d must be less than %d", usec, microsPerSecond)
	}
	return Timestamp{Sec: sec, Usec: usec}, nil
}

// TimestampFromSeconds builds a Timestamp from a non-negative, sub-2^32
// floating point number of seconds. The fractional part is floored rather
// than rounded, so a value of e.g. 0.9999999 never wraps up to the next
// second.
func TimestampFromSeconds(seconds float64) (Timestamp, error) {
	if seconds < 0 {
		return Timestamp{}, fmt.Errorf("pcapfile: timestamp %g must not be negative", seconds)
	}
	if seconds >= math.MaxUint32+1 {
		return Timestamp{}, fmt.Errorf("pcapfile: timestamp %g is too large", seconds)
	}

	whole, frac := math.Modf(seconds)
	usec := math.Floor(frac * microsPerSecond)

	return Timestamp{Sec: uint32(whole), Usec: uint32(usec)}, nil
}

// Before reports whether t is strictly earlier than o.
func (t Timestamp) Before(o Timestamp) bool {
	return t.Sec < o.Sec || (t.Sec == o.Sec && t.Usec < o.Usec)
}

// After reports whether t is strictly later than o.
func (t Timestamp) After(o Timestamp) bool {
	return o.Before(t)
}

// BeforeOrEqual reports whether t is earlier than or equal to o.
func (t Timestamp) BeforeOrEqual(o Timestamp) bool {
	return !o.Before(t)
}

// AfterOrEqual reports whether t is later than or equal to o.
func (t Timestamp) AfterOrEqual(o Timestamp) bool {
	return !t.Before(o)
}

// Add returns t + o, carrying a second whenever the combined microseconds
// reach 1,000,000.
func (t Timestamp) Add(o Timestamp) Timestamp {
	sec := t.Sec + o.Sec
	usec := t.Usec + o.Usec
	if usec >= microsPerSecond {
		sec++
		usec -= microsPerSecond
	}
	return Timestamp{Sec: sec, Usec: usec}
}

// Sub returns t - o, saturating at the zero Timestamp rather than wrapping
// when o is greater than t. This happens when the pairing engine's
// negative time-window reaches back past the epoch for an early packet, or
// when Packets.OffsetTimestamps shifts a packet backwards by more than its
// own timestamp.
func (t Timestamp) Sub(o Timestamp) Timestamp {
	if t.Before(o) {
		return Timestamp{}
	}
	sec := t.Sec - o.Sec
	usec := int64(t.Usec) - int64(o.Usec)
	if usec < 0 {
		sec--
		usec += microsPerSecond
	}
	return Timestamp{Sec: sec, Usec: uint32(usec)}
}

// String renders t as "YYYY-MM-DD HH:MM:SS.mmm" in local time, millisecond
// precision.
func (t Timestamp) String() string {
	tm := time.Unix(int64(t.Sec), 0).Local()
	return fmt.Sprintf("%s.%03d", tm.Format("2006-01-02 15:04:05"), t.Usec/1000)
}
