// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

package pcapfile

import (
	"errors"
	"fmt"

	"github.com/google/gopacket/layers"
)

// CollectionID names one of the two Packets collections a Mate reference
// points into. A Packet never holds a pointer into the other collection
// directly (appending or re-slicing would invalidate it); instead it holds
// a re-resolvable (collection, index) pair.
type CollectionID uint8

const (
	CollectionA CollectionID = iota
	CollectionB
)

// Mate is the weak back-reference a matched Packet carries to its pair in
// the other collection.
type Mate struct {
	Collection CollectionID
	Index      int
}

// Packet is one captured frame: its header, its owned payload, and the
// pairing engine's verdict (Match, Mate). Packets are created once by
// ReadPackets and afterwards mutated only by the pairing engine (Match,
// Mate) and Packets.OffsetTimestamps (Header.Time).
type Packet struct {
	Header PacketHeader
	Data   []byte
	Match  bool
	Mate   *Mate
}

// ResolvedMate returns the Packet p is paired with, looking it up in
// whichever of a or b p.Mate names, or nil if p is unmatched.
func (p *Packet) ResolvedMate(a, b *Packets) *Packet {
	if p.Mate == nil {
		return nil
	}
	if p.Mate.Collection == CollectionA {
		return a.At(p.Mate.Index)
	}
	return b.At(p.Mate.Index)
}

// Packets is an ordered, owning sequence of Packet sharing a single
// link-layer type. Callers are expected to keep it in non-decreasing
// timestamp order, the order ReadPackets produces and the one the
// timestamp-based pairing strategy relies on.
type Packets struct {
	packets   []*Packet
	linkLayer uint32
}

// NewPackets wraps an already-built packet slice (e.g. a fixture built
// directly by a test, or output from ReadPackets) together with its
// link-layer tag.
func NewPackets(packets []*Packet, linkLayer uint32) *Packets {
	return &Packets{packets: packets, linkLayer: linkLayer}
}

// Len returns the number of packets in the collection.
func (p *Packets) Len() int {
	return len(p.packets)
}

// At returns the packet at index i.
func (p *Packets) At(i int) *Packet {
	return p.packets[i]
}

// LinkLayer returns the link-layer type carried from the file header.
func (p *Packets) LinkLayer() uint32 {
	return p.linkLayer
}

// OffsetTimestamps shifts every packet's timestamp by deltaSeconds: forward
// if positive, backward if negative, a no-op at exactly zero.
func (p *Packets) OffsetTimestamps(deltaSeconds float64) error {
	if deltaSeconds == 0 {
		return nil
	}
	if deltaSeconds > 0 {
		offset, err := TimestampFromSeconds(deltaSeconds)
		if err != nil {
			return err
		}
		for _, pkt := range p.packets {
			pkt.Header.Time = pkt.Header.Time.Add(offset)
		}
		return nil
	}
	offset, err := TimestampFromSeconds(-deltaSeconds)
	if err != nil {
		return err
	}
	for _, pkt := range p.packets {
		pkt.Header.Time = pkt.Header.Time.Sub(offset)
	}
	return nil
}

// StartTime returns the timestamp of the first packet. It fails on an
// empty collection.
func (p *Packets) StartTime() (Timestamp, error) {
	if len(p.packets) == 0 {
		return Timestamp{}, errors.New("pcapfile: cannot determine start time of an empty packet collection")
	}
	return p.packets[0].Header.Time, nil
}

// Metadata renders a one-line summary: packet count, link-layer type (both
// numeric and, where gopacket recognises it, named), and the start time. It
// fails on an empty collection, matching the original's GetMetadataString.
func (p *Packets) Metadata() (string, error) {
	if len(p.packets) == 0 {
		return "", errors.New("pcapfile: cannot print metadata of an empty packet collection")
	}
	return fmt.Sprintf("Num packets: %9d. Link type: 0x%08x (%s). Start Time: %s",
		len(p.packets), p.linkLayer, linkTypeName(p.linkLayer), p.packets[0].Header.Time), nil
}

// linkTypeName renders a DLT_* link-layer number using gopacket's registry
// of named link types, for diagnostics only. It never influences parsing
// or comparison; this module does not dissect above the link layer.
func linkTypeName(linkType uint32) string {
	return layers.LinkType(linkType).String()
}
