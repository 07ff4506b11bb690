// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

package pcapwriter

import (
	"encoding/binary"

	"github.com/jgibbard/pcapdiff/pcapfile"
)

const (
	fileHeaderSize   = pcapfile.FileHeaderSize
	recordHeaderSize = pcapfile.RecordHeaderSize

	// linkTypeFull is DLT_USER0, the synthetic link-layer type every
	// "full" mode capture declares in its global header.
	linkTypeFull = 147

	fullCaseMatched = 0
	fullCaseRemoved = 1
	fullCaseAdded   = 2

	basicClassMatchedA   = 0
	basicClassUnmatchedA = 1
	basicClassB          = 2
)

// Write renders a and b, already paired by pcapdiff, as a complete PCAP
// byte stream in the given output format.
func Write(mode Mode, a, b *pcapfile.Packets) ([]byte, error) {
	switch mode {
	case ModeMatchA:
		return writeSubset(a, true)
	case ModeMatchB:
		return writeSubset(b, true)
	case ModeRemoved:
		return writeSubset(a, false)
	case ModeAdded:
		return writeSubset(b, false)
	case ModeBasic:
		return writeBasic(a, b)
	case ModeFull:
		return writeFull(a, b)
	default:
		return nil, newModeError("unrecognised output mode %v", mode)
	}
}

// putFileHeader writes the 24-byte standard global header for linkType
// into b, which must be at least fileHeaderSize long.
func putFileHeader(b []byte, linkType uint32) {
	h := pcapfile.StandardHeader(linkType)
	binary.LittleEndian.PutUint32(b[0:4], h.MagicNumber)
	binary.LittleEndian.PutUint16(b[4:6], h.MajorVersion)
	binary.LittleEndian.PutUint16(b[6:8], h.MinorVersion)
	binary.LittleEndian.PutUint32(b[8:12], h.ThisZone)
	binary.LittleEndian.PutUint32(b[12:16], h.SigFigs)
	binary.LittleEndian.PutUint32(b[16:20], h.SnapLen)
	binary.LittleEndian.PutUint32(b[20:24], h.LinkType)
}

// putRecordHeader writes a 16-byte record header into b, which must be at
// least recordHeaderSize long.
func putRecordHeader(b []byte, t pcapfile.Timestamp, inclLen, origLen uint32) {
	binary.LittleEndian.PutUint32(b[0:4], t.Sec)
	binary.LittleEndian.PutUint32(b[4:8], t.Usec)
	binary.LittleEndian.PutUint32(b[8:12], inclLen)
	binary.LittleEndian.PutUint32(b[12:16], origLen)
}

// writeSubset renders the packets of p whose Match flag equals wantMatch,
// unmodified, as a standard capture on p's own link-layer type.
func writeSubset(p *pcapfile.Packets, wantMatch bool) ([]byte, error) {
	size := fileHeaderSize
	for i := 0; i < p.Len(); i++ {
		if p.At(i).Match == wantMatch {
			size += recordHeaderSize + len(p.At(i).Data)
		}
	}

	out := make([]byte, size)
	putFileHeader(out, p.LinkLayer())
	offset := fileHeaderSize

	for i := 0; i < p.Len(); i++ {
		pkt := p.At(i)
		if pkt.Match != wantMatch {
			continue
		}
		n := len(pkt.Data)
		putRecordHeader(out[offset:], pkt.Header.Time, uint32(n), uint32(n))
		offset += recordHeaderSize
		offset += copy(out[offset:], pkt.Data)
	}

	return out, nil
}

// writeBasic interleaves every A packet (tagged matched or unmatched) with
// every unmatched B packet, in timestamp order, B preferred on ties. A
// matched B packet is never emitted on its own: its pairing is already
// represented by the A record it matched.
func writeBasic(a, b *pcapfile.Packets) ([]byte, error) {
	if a.LinkLayer() != b.LinkLayer() {
		return nil, newModeError("basic output requires both captures to share a link-layer type, got 0x%08x and 0x%08x", a.LinkLayer(), b.LinkLayer())
	}

	size := fileHeaderSize
	for i := 0; i < a.Len(); i++ {
		size += recordHeaderSize + len(a.At(i).Data) + 1
	}
	for i := 0; i < b.Len(); i++ {
		if !b.At(i).Match {
			size += recordHeaderSize + len(b.At(i).Data) + 1
		}
	}

	out := make([]byte, size)
	putFileHeader(out, a.LinkLayer())
	offset := fileHeaderSize

	ia, ib := 0, 0
	for ia < a.Len() {
		for ib < b.Len() && b.At(ib).Match {
			ib++
		}
		pa := a.At(ia)
		if ib < b.Len() && b.At(ib).Header.Time.BeforeOrEqual(pa.Header.Time) {
			offset = appendBasic(out, offset, b.At(ib), basicClassB)
			ib++
			continue
		}
		class := basicClassUnmatchedA
		if pa.Match {
			class = basicClassMatchedA
		}
		offset = appendBasic(out, offset, pa, byte(class))
		ia++
	}
	for ; ib < b.Len(); ib++ {
		if !b.At(ib).Match {
			offset = appendBasic(out, offset, b.At(ib), basicClassB)
		}
	}

	return out, nil
}

// appendBasic writes one basic-mode record for p at offset: a record
// header whose lengths are p's payload length plus one, the payload, and
// a trailing one-byte classification tag. It returns the offset just past
// the record it wrote.
func appendBasic(out []byte, offset int, p *pcapfile.Packet, class byte) int {
	n := len(p.Data)
	putRecordHeader(out[offset:], p.Header.Time, uint32(n+1), uint32(n+1))
	offset += recordHeaderSize
	offset += copy(out[offset:], p.Data)
	out[offset] = class
	offset++
	return offset
}

// writeFull re-frames every A packet and every unmatched B packet into a
// bespoke three-case record (matched/removed/added) on the synthetic
// DLT_USER0 link-layer type, merged in the same timestamp order as
// writeBasic.
func writeFull(a, b *pcapfile.Packets) ([]byte, error) {
	size := fileHeaderSize
	for i := 0; i < a.Len(); i++ {
		size += recordHeaderSize + fullFrameLenA(a, b, a.At(i))
	}
	for i := 0; i < b.Len(); i++ {
		if !b.At(i).Match {
			size += recordHeaderSize + fullFrameLenB(b.At(i))
		}
	}

	out := make([]byte, size)
	putFileHeader(out, linkTypeFull)
	offset := fileHeaderSize

	ia, ib := 0, 0
	for ia < a.Len() {
		for ib < b.Len() && b.At(ib).Match {
			ib++
		}
		pa := a.At(ia)
		if ib < b.Len() && b.At(ib).Header.Time.BeforeOrEqual(pa.Header.Time) {
			offset = appendFullB(out, offset, b.LinkLayer(), b.At(ib))
			ib++
			continue
		}
		offset = appendFullA(out, offset, a, b, pa)
		ia++
	}
	for ; ib < b.Len(); ib++ {
		if !b.At(ib).Match {
			offset = appendFullB(out, offset, b.LinkLayer(), b.At(ib))
		}
	}

	return out, nil
}

// fullFrameLenA returns the payload byte count (after the 16-byte record
// header) a full-mode record for pa requires: 21 fixed bytes plus both
// payloads when pa is matched, 5 fixed bytes plus its own payload
// otherwise.
func fullFrameLenA(a, b *pcapfile.Packets, pa *pcapfile.Packet) int {
	if pa.Match {
		mate := pa.ResolvedMate(a, b)
		return 21 + len(pa.Data) + len(mate.Data)
	}
	return 5 + len(pa.Data)
}

// fullFrameLenB returns the payload byte count a full-mode "added" record
// for an unmatched B packet requires.
func fullFrameLenB(pb *pcapfile.Packet) int {
	return 5 + len(pb.Data)
}

// appendFullA writes one full-mode record for an A packet: case 0
// (matched, both payloads framed back to back) or case 1 (removed, its
// own payload only).
func appendFullA(out []byte, offset int, a, b *pcapfile.Packets, pa *pcapfile.Packet) int {
	n := fullFrameLenA(a, b, pa)
	putRecordHeader(out[offset:], pa.Header.Time, uint32(n), uint32(n))
	offset += recordHeaderSize

	if pa.Match {
		mate := pa.ResolvedMate(a, b)
		out[offset] = fullCaseMatched
		offset++
		binary.LittleEndian.PutUint32(out[offset:], a.LinkLayer())
		offset += 4
		binary.LittleEndian.PutUint32(out[offset:], uint32(len(pa.Data)))
		offset += 4
		offset += copy(out[offset:], pa.Data)
		binary.LittleEndian.PutUint32(out[offset:], b.LinkLayer())
		offset += 4
		binary.LittleEndian.PutUint32(out[offset:], mate.Header.Time.Sec)
		offset += 4
		binary.LittleEndian.PutUint32(out[offset:], mate.Header.Time.Usec)
		offset += 4
		offset += copy(out[offset:], mate.Data)
		return offset
	}

	out[offset] = fullCaseRemoved
	offset++
	binary.LittleEndian.PutUint32(out[offset:], a.LinkLayer())
	offset += 4
	offset += copy(out[offset:], pa.Data)
	return offset
}

// appendFullB writes one full-mode "added" record for an unmatched B
// packet: case 2, its own payload only.
func appendFullB(out []byte, offset int, linkTypeB uint32, pb *pcapfile.Packet) int {
	n := fullFrameLenB(pb)
	putRecordHeader(out[offset:], pb.Header.Time, uint32(n), uint32(n))
	offset += recordHeaderSize
	out[offset] = fullCaseAdded
	offset++
	binary.LittleEndian.PutUint32(out[offset:], linkTypeB)
	offset += 4
	offset += copy(out[offset:], pb.Data)
	return offset
}
