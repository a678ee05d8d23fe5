// Package mip reads and writes the framed binary protocol spoken by the
// inertial/GNSS sensor. A frame carries one descriptor set and a payload of
// tagged fields; the reader validates framing and checksums and yields
// Packets whose fields are left undecoded.
package mip

import (
	"fmt"
	"sort"
)

// Descriptor sets used by the sensor.
const (
	DescriptorBaseCommand   uint8 = 0x01
	DescriptorConfigCommand uint8 = 0x0C
	DescriptorIMUData       uint8 = 0x80
	DescriptorGNSSData      uint8 = 0x81
)

// Field is the raw data of one tagged field within a payload. Its length is
// the length of the span; interpretation is left to the caller.
type Field []byte

// Payload maps field tags to their data. Tags are unique within a payload.
type Payload map[uint8]Field

// Field returns the field stored under tag and whether it was present.
func (p Payload) Field(tag uint8) (Field, bool) {
	f, ok := p[tag]
	return f, ok
}

// Tags returns the payload tags in ascending order.
func (p Payload) Tags() []uint8 {
	tags := make([]uint8, 0, len(p))
	for tag := range p {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Packet is one validated transport unit.
type Packet struct {
	Descriptor uint8
	Payload    Payload
}

// NewPacket builds a packet from (tag, data) pairs, rejecting duplicate tags.
func NewPacket(descriptor uint8, fields ...TaggedField) (*Packet, error) {
	p := &Packet{Descriptor: descriptor, Payload: make(Payload, len(fields))}
	for _, f := range fields {
		if _, dup := p.Payload[f.Tag]; dup {
			return nil, fmt.Errorf("duplicate field tag 0x%02x in descriptor set 0x%02x", f.Tag, descriptor)
		}
		p.Payload[f.Tag] = f.Data
	}
	return p, nil
}

// TaggedField pairs a field tag with its data, in wire order.
type TaggedField struct {
	Tag  uint8
	Data Field
}

func (p *Packet) String() string {
	return fmt.Sprintf("Descriptor: 0x%02x, Fields: %d", p.Descriptor, len(p.Payload))
}
