// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

package pcapfile

import (
	"encoding/binary"
	"fmt"
)

// ReadPackets parses buf as a classic PCAP v2.4 microsecond-resolution
// capture and returns its packets in file order. maxPackets, if non-zero,
// stops the read after that many records and tolerates unread bytes
// trailing the buffer; with maxPackets zero every byte of buf must belong
// to a complete record.
func ReadPackets(buf []byte, maxPackets uint64) (*Packets, error) {
	if len(buf) < FileHeaderSize {
		return nil, newReadError(fmt.Errorf("buffer of %d bytes is smaller than the %d-byte file header", len(buf), FileHeaderSize))
	}

	header, err := parseFileHeader(buf)
	if err != nil {
		return nil, err
	}

	var packets []*Packet
	offset := FileHeaderSize

	for offset+RecordHeaderSize <= len(buf) {
		index := len(packets)

		sec := binary.LittleEndian.Uint32(buf[offset : offset+4])
		usec := binary.LittleEndian.Uint32(buf[offset+4 : offset+8])
		inclLen := binary.LittleEndian.Uint32(buf[offset+8 : offset+12])
		origLen := binary.LittleEndian.Uint32(buf[offset+12 : offset+16])

		if inclLen != origLen {
			return nil, newReadErrorAt(index, int64(offset), fmt.Errorf("captured length %d does not match original length %d: truncated (snap-length clipped) captures are not supported", inclLen, origLen))
		}

		ts, err := NewTimestamp(sec, usec)
		if err != nil {
			return nil, newReadErrorAt(index, int64(offset), err)
		}

		offset += RecordHeaderSize

		if offset+int(inclLen) > len(buf) {
			return nil, newReadErrorAt(index, int64(offset-RecordHeaderSize), fmt.Errorf("record claims %d bytes of payload but only %d remain in the buffer", inclLen, len(buf)-offset))
		}

		data := make([]byte, inclLen)
		copy(data, buf[offset:offset+int(inclLen)])
		offset += int(inclLen)

		packets = append(packets, &Packet{
			Header: PacketHeader{Time: ts, InclLen: inclLen, OrigLen: origLen},
			Data:   data,
		})

		if maxPackets > 0 && uint64(len(packets)) == maxPackets {
			break
		}
	}

	if maxPackets == 0 && offset != len(buf) {
		return nil, newReadError(fmt.Errorf("%d trailing byte(s) after the last complete record do not form a full %d-byte record header", len(buf)-offset, RecordHeaderSize))
	}

	if len(packets) == 0 {
		return nil, newReadError(fmt.Errorf("capture contains no packets"))
	}

	return NewPackets(packets, header.LinkType), nil
}

// parseFileHeader reads and validates the 24-byte global header at the
// start of buf. buf must already be known to hold at least FileHeaderSize
// bytes.
func parseFileHeader(buf []byte) (FileHeader, error) {
	magic := binary.LittleEndian.Uint32(buf[0:4])

	switch magic {
	case MagicMicroseconds:
		// the only supported format
	case MagicNanoseconds:
		return FileHeader{}, newReadError(fmt.Errorf("nanosecond-resolution captures (magic 0x%08x) are not supported", magic))
	case MagicMicrosecondsSwapped:
		return FileHeader{}, newReadError(fmt.Errorf("byte-swapped microsecond-resolution captures (magic 0x%08x) are not supported", magic))
	case MagicNanosecondsSwapped:
		return FileHeader{}, newReadError(fmt.Errorf("byte-swapped nanosecond-resolution captures (magic 0x%08x) are not supported", magic))
	default:
		return FileHeader{}, newReadError(fmt.Errorf("unrecognised magic number 0x%08x", magic))
	}

	header := FileHeader{
		MagicNumber:  magic,
		MajorVersion: binary.LittleEndian.Uint16(buf[4:6]),
		MinorVersion: binary.LittleEndian.Uint16(buf[6:8]),
		ThisZone:     binary.LittleEndian.Uint32(buf[8:12]),
		SigFigs:      binary.LittleEndian.Uint32(buf[12:16]),
		SnapLen:      binary.LittleEndian.Uint32(buf[16:20]),
		LinkType:     binary.LittleEndian.Uint32(buf[20:24]),
	}

	if header.MajorVersion != SupportedMajorVersion || header.MinorVersion != SupportedMinorVersion {
		return FileHeader{}, newReadError(fmt.Errorf("unsupported file version %d.%d, only %d.%d is supported", header.MajorVersion, header.MinorVersion, SupportedMajorVersion, SupportedMinorVersion))
	}

	return header, nil
}
