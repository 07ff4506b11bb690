// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

// Command pcapdiff compares two classic PCAP capture files and reports, or
// renders in one of several output formats, the packets they share and the
// packets unique to each.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgibbard/pcapdiff/pcapdiff"
)

func main() {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}

// Execute builds and runs the pcapdiff command against args, writing
// command help to stdout and verbose progress and errors to stderr, and
// returns the process exit code:
// 0 if the files match, 1 if they differ, 2 on a usage or comparison
// error.
func Execute(args []string, stdout, stderr io.Writer) int {
	var (
		maxPackets   uint64
		byteMask     string
		rangeA       string
		rangeB       string
		autoAlign    bool
		offsetA      float64
		offsetB      float64
		timeNeg      float64
		timePos      float64
		searchMethod string
		outputFormat string
		outputPath   string
		verbose      bool
	)

	exitCode := 2

	cmd := &cobra.Command{
		Use:           "pcapdiff <file-a> <file-b>",
		Short:         "Compare two PCAP capture files",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bufA, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			bufB, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}

			var verboseOut io.Writer
			if verbose {
				verboseOut = stderr
			}

			result, err := pcapdiff.Run(bufA, bufB, pcapdiff.Options{
				MaxPackets:   maxPackets,
				Mask:         byteMask,
				RangeA:       rangeA,
				RangeB:       rangeB,
				AutoAlign:    autoAlign,
				TimeOffsetA:  offsetA,
				TimeOffsetB:  offsetB,
				TimeNeg:      timeNeg,
				TimePos:      timePos,
				SearchMethod: searchMethod,
				OutputFormat: outputFormat,
				Verbose:      verboseOut,
			})
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, result.Output, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outputPath, err)
				}
			}

			exitCode = result.ExitCode
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint64VarP(&maxPackets, "max-packets", "n", 0, "stop reading each file after this many packets (0 = read all)")
	flags.StringVarP(&byteMask, "byte-mask", "m", "", "per-byte comparison mask, e.g. 0011 ignores bytes 0 and 1")
	flags.StringVarP(&rangeA, "range-a", "a", "[:]", "byte range of file A's payload to compare, [start:end]")
	flags.StringVarP(&rangeB, "range-b", "b", "[:]", "byte range of file B's payload to compare, [start:end]")
	flags.BoolVarP(&autoAlign, "auto-time-align", "A", false, "automatic time alignment (not supported: setting it is an error)")
	flags.Float64VarP(&offsetA, "time-offset-a", "t", 0, "seconds to shift file A's timestamps by")
	flags.Float64VarP(&offsetB, "time-offset-b", "T", 0, "seconds to shift file B's timestamps by")
	flags.Float64VarP(&timeNeg, "neg-time-diff", "d", 0.01, "seconds a B packet may precede its A match")
	flags.Float64VarP(&timePos, "pos-time-diff", "D", 0.01, "seconds a B packet may follow its A match")
	flags.StringVar(&searchMethod, "search-method", "timestamp", "pairing strategy: timestamp, full, or location")
	flags.StringVarP(&outputFormat, "output-format", "f", "basic", "output format: basic, full, match_a, match_b, added, or removed")
	flags.StringVarP(&outputPath, "output", "o", "", "write the rendered output capture to this path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print progress and summary information")

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 2
	}

	return exitCode
}
