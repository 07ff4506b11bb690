// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

package pcapdiff

import (
	"fmt"
	"io"

	"github.com/jgibbard/pcapdiff/pcapfile"
	"github.com/jgibbard/pcapdiff/pcapwriter"
)

// Options configures a full A-vs-B comparison run.
type Options struct {
	// MaxPackets caps how many records are read from each file; zero
	// reads every record and requires the file to contain none left over.
	MaxPackets uint64

	// Mask, RangeA and RangeB configure the per-packet equality
	// predicate, in the same string forms the CLI accepts.
	Mask   string
	RangeA string
	RangeB string

	// AutoAlign requests automatic time alignment of B against A. Run
	// rejects it in every case: combined with a non-zero
	// TimeOffsetA/TimeOffsetB as mutually exclusive, and on its own as an
	// unsupported feature. No timestamps are shifted.
	AutoAlign bool

	// TimeOffsetA and TimeOffsetB shift each collection's timestamps,
	// in seconds, before pairing.
	TimeOffsetA float64
	TimeOffsetB float64

	// TimeNeg and TimePos bound the pairing time window around each A
	// packet's timestamp, in seconds.
	TimeNeg float64
	TimePos float64

	SearchMethod string
	OutputFormat string

	// Verbose, if non-nil, receives progress output matching the CLI's
	// --verbose mode.
	Verbose io.Writer
}

// Result is the outcome of a comparison run.
type Result struct {
	Matched  int
	Removed  int
	Added    int
	Output   []byte
	ExitCode int
}

// Run performs a full comparison of bufA against bufB: parsing, optional
// timestamp offsetting, pairing, and rendering the configured output
// format. It always computes Output; whether to persist it is left to the
// caller.
func Run(bufA, bufB []byte, opts Options) (Result, error) {
	if opts.AutoAlign && (opts.TimeOffsetA != 0 || opts.TimeOffsetB != 0) {
		return Result{}, newConfigError("auto-time-align cannot be combined with an explicit time offset")
	}

	outputMode, err := pcapwriter.ParseMode(opts.OutputFormat)
	if err != nil {
		return Result{}, err
	}
	searchMethod, err := ParseSearchMethod(opts.SearchMethod)
	if err != nil {
		return Result{}, err
	}

	a, err := pcapfile.ReadPackets(bufA, opts.MaxPackets)
	if err != nil {
		return Result{}, fmt.Errorf("reading file A: %w", err)
	}
	opts.logf("read %d packets from file A", a.Len())

	b, err := pcapfile.ReadPackets(bufB, opts.MaxPackets)
	if err != nil {
		return Result{}, fmt.Errorf("reading file B: %w", err)
	}
	opts.logf("read %d packets from file B", b.Len())

	if metaA, err := a.Metadata(); err == nil {
		opts.logf("A: %s", metaA)
	}
	if metaB, err := b.Metadata(); err == nil {
		opts.logf("B: %s", metaB)
	}

	if outputMode == pcapwriter.ModeBasic && a.LinkLayer() != b.LinkLayer() {
		return Result{}, newConfigError("basic output format requires both captures to share a link-layer type")
	}

	if opts.AutoAlign {
		return Result{}, newConfigError("automatic time alignment is not supported")
	}

	if opts.TimeOffsetA != 0 {
		if err := a.OffsetTimestamps(opts.TimeOffsetA); err != nil {
			return Result{}, fmt.Errorf("offsetting file A: %w", err)
		}
		if start, err := a.StartTime(); err == nil {
			opts.logf("A: new start time %s", start)
		}
	}
	if opts.TimeOffsetB != 0 {
		if err := b.OffsetTimestamps(opts.TimeOffsetB); err != nil {
			return Result{}, fmt.Errorf("offsetting file B: %w", err)
		}
		if start, err := b.StartTime(); err == nil {
			opts.logf("B: new start time %s", start)
		}
	}

	mask, err := parseMask(opts.Mask)
	if err != nil {
		return Result{}, err
	}
	cfg, err := NewConfig(searchMethod, mask, opts.RangeA, opts.RangeB, opts.TimeNeg, opts.TimePos)
	if err != nil {
		return Result{}, err
	}

	if err := NewDiffer(cfg).FindMatching(a, b); err != nil {
		return Result{}, err
	}

	removed := countUnmatched(a)
	added := countUnmatched(b)
	matched := a.Len() - removed

	opts.logf("%9d packets matched", matched)
	opts.logf("%9d packets removed (present only in A)", removed)
	opts.logf("%9d packets added (present only in B)", added)

	out, err := pcapwriter.Write(outputMode, a, b)
	if err != nil {
		return Result{}, err
	}

	exitCode := 0
	if removed != 0 || added != 0 {
		exitCode = 1
	}

	return Result{
		Matched:  matched,
		Removed:  removed,
		Added:    added,
		Output:   out,
		ExitCode: exitCode,
	}, nil
}

func countUnmatched(p *pcapfile.Packets) int {
	n := 0
	for i := 0; i < p.Len(); i++ {
		if !p.At(i).Match {
			n++
		}
	}
	return n
}

func (o Options) logf(format string, args ...interface{}) {
	if o.Verbose == nil {
		return
	}
	fmt.Fprintf(o.Verbose, format+"\n", args...)
}
