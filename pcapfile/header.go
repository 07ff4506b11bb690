// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

package pcapfile

// Byte layout constants for the classic PCAP v2.4 format: a 24-byte global
// header followed by a stream of 16-byte per-packet headers, each followed
// by raw payload bytes. All multi-byte integers are host (little) endian.
const (
	FileHeaderSize   = 24
	RecordHeaderSize = 16

	// MagicMicroseconds is the only magic number this reader accepts:
	// microsecond-resolution timestamps, host endian.
	MagicMicroseconds = 0xA1B2C3D4
	// MagicNanoseconds marks a nanosecond-resolution capture. Rejected with
	// a specific message; nanosecond-resolution captures are not supported.
	MagicNanoseconds = 0xA1B23C4D
	// MagicMicrosecondsSwapped and MagicNanosecondsSwapped mark captures
	// written on a processor of the opposite endianness. Both are rejected.
	MagicMicrosecondsSwapped = 0xD4C3B2A1
	MagicNanosecondsSwapped  = 0x4D3CB2A1

	// SupportedMajorVersion and SupportedMinorVersion are the only PCAP
	// version this reader (and the standard header writers) support.
	SupportedMajorVersion = 2
	SupportedMinorVersion = 4

	// StandardSnapLen is the snap length written into every output capture.
	StandardSnapLen = 65535
)

// FileHeader is the 24-byte PCAP global header.
type FileHeader struct {
	MagicNumber  uint32
	MajorVersion uint16
	MinorVersion uint16
	ThisZone     uint32
	SigFigs      uint32
	SnapLen      uint32
	LinkType     uint32
}

// StandardHeader builds the file header every writer in this module emits:
// magic 0xA1B2C3D4, version 2.4, thiszone/sigfigs zero, snaplen 65535, and
// the given link-layer type.
func StandardHeader(linkType uint32) FileHeader {
	return FileHeader{
		MagicNumber:  MagicMicroseconds,
		MajorVersion: SupportedMajorVersion,
		MinorVersion: SupportedMinorVersion,
		ThisZone:     0,
		SigFigs:      0,
		SnapLen:      StandardSnapLen,
		LinkType:     linkType,
	}
}

// PacketHeader is the 16-byte per-record header: a Timestamp plus the
// captured and original lengths. A reader packet always has InclLen ==
// OrigLen. Truncated (snap-length clipped) captures are rejected.
type PacketHeader struct {
	Time    Timestamp
	InclLen uint32
	OrigLen uint32
}
