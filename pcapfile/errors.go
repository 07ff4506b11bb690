// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

package pcapfile

import "fmt"

// ReadError reports a failure to validate or parse a byte buffer as a PCAP
// capture. When HasLocation is true, Index names the 0-based packet record
// involved and Offset the byte offset of the record header within the
// buffer; global-header failures (wrong magic, wrong version, file too
// small) have no such location.
type ReadError struct {
	Index       int
	Offset      int64
	HasLocation bool
	Err         error
}

func newReadError(err error) *ReadError {
	return &ReadError{Err: err}
}

func newReadErrorAt(index int, offset int64, err error) *ReadError {
	return &ReadError{Index: index, Offset: offset, HasLocation: true, Err: err}
}

func (e *ReadError) Error() string {
	if !e.HasLocation {
		return fmt.Sprintf("pcapfile: %s", e.Err)
	}
	return fmt.Sprintf("pcapfile: packet %d (byte offset %d): %s", e.Index, e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
