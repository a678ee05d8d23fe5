package mip

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

const (
	syncByte1 = 0x75
	syncByte2 = 0x65

	headerSize   = 4 // sync1, sync2, descriptor set, payload length
	checksumSize = 2
	fieldHeader  = 2 // field length, field tag

	// MaxPayload is the largest payload a frame can carry.
	MaxPayload = 255
	// MaxFieldData is the largest data span a single field can carry.
	MaxFieldData = MaxPayload - fieldHeader
)

// ErrNoData is returned by a polling source when a read completed without
// producing any bytes (for example a serial read timeout).
var ErrNoData = errors.New("no data available")

// FrameStats counts what the reader has seen since it was created.
type FrameStats struct {
	Frames         uint64 `json:"frames"`
	ChecksumErrors uint64 `json:"checksum_errors"`
	Malformed      uint64 `json:"malformed"`
	SkippedBytes   uint64 `json:"skipped_bytes"`
}

// Reader extracts validated packets from a byte stream. Corrupt frames are
// skipped one byte at a time until the next sync sequence, so a single bad
// frame never desynchronises the stream for longer than its own length.
type Reader struct {
	br *bufio.Reader

	frames         atomic.Uint64
	checksumErrors atomic.Uint64
	malformed      atomic.Uint64
	skipped        atomic.Uint64
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 4096)}
}

// ReadPacket returns the next valid packet on the stream. It returns
// (nil, nil) when the underlying reader reported ErrNoData before a whole
// frame was available; buffered bytes are kept for the next call.
func (r *Reader) ReadPacket() (*Packet, error) {
	for {
		hdr, err := r.br.Peek(headerSize)
		if err != nil {
			return r.readErr(err)
		}
		if hdr[0] != syncByte1 || hdr[1] != syncByte2 {
			r.skip()
			continue
		}

		total := headerSize + int(hdr[3]) + checksumSize
		frame, err := r.br.Peek(total)
		if errors.Is(err, io.EOF) {
			// The stream ended inside this frame; a false sync may be
			// hiding a complete frame further on.
			r.skip()
			continue
		}
		if err != nil {
			return r.readErr(err)
		}

		want := Checksum(frame[:total-checksumSize])
		if frame[total-2] != want[0] || frame[total-1] != want[1] {
			r.checksumErrors.Add(1)
			r.skip()
			continue
		}

		pkt, err := parsePayload(frame[2], frame[headerSize:total-checksumSize])
		if err != nil {
			r.malformed.Add(1)
			r.skip()
			continue
		}

		if _, err := r.br.Discard(total); err != nil {
			return nil, err
		}
		r.frames.Add(1)
		return pkt, nil
	}
}

// Stats returns a snapshot of the reader counters. Safe for concurrent use.
func (r *Reader) Stats() FrameStats {
	return FrameStats{
		Frames:         r.frames.Load(),
		ChecksumErrors: r.checksumErrors.Load(),
		Malformed:      r.malformed.Load(),
		SkippedBytes:   r.skipped.Load(),
	}
}

func (r *Reader) skip() {
	if _, err := r.br.Discard(1); err == nil {
		r.skipped.Add(1)
	}
}

func (r *Reader) readErr(err error) (*Packet, error) {
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	return nil, err
}

// parsePayload splits a payload into its fields. Field data is copied so the
// packet does not alias the reader's buffer.
func parsePayload(descriptor uint8, payload []byte) (*Packet, error) {
	pkt := &Packet{Descriptor: descriptor, Payload: make(Payload)}
	for off := 0; off < len(payload); {
		if len(payload)-off < fieldHeader {
			return nil, fmt.Errorf("truncated field header at offset %d", off)
		}
		n := int(payload[off])
		if n < fieldHeader || off+n > len(payload) {
			return nil, fmt.Errorf("invalid field length %d at offset %d", n, off)
		}
		tag := payload[off+1]
		if _, dup := pkt.Payload[tag]; dup {
			return nil, fmt.Errorf("duplicate field tag 0x%02x", tag)
		}
		data := make(Field, n-fieldHeader)
		copy(data, payload[off+fieldHeader:off+n])
		pkt.Payload[tag] = data
		off += n
	}
	return pkt, nil
}

// Checksum computes the two-byte Fletcher checksum over a frame's header and
// payload.
func Checksum(b []byte) [2]byte {
	var sum1, sum2 byte
	for _, c := range b {
		sum1 += c
		sum2 += sum1
	}
	return [2]byte{sum1, sum2}
}

// Encode builds a complete frame for the given descriptor set and fields, in
// the order given.
func Encode(descriptor uint8, fields ...TaggedField) ([]byte, error) {
	payloadLen := 0
	for _, f := range fields {
		if len(f.Data) > MaxFieldData {
			return nil, fmt.Errorf("field 0x%02x data too long: %d bytes (max %d)", f.Tag, len(f.Data), MaxFieldData)
		}
		payloadLen += fieldHeader + len(f.Data)
	}
	if payloadLen > MaxPayload {
		return nil, fmt.Errorf("payload too long: %d bytes (max %d)", payloadLen, MaxPayload)
	}

	frame := make([]byte, 0, headerSize+payloadLen+checksumSize)
	frame = append(frame, syncByte1, syncByte2, descriptor, byte(payloadLen))
	for _, f := range fields {
		frame = append(frame, byte(fieldHeader+len(f.Data)), f.Tag)
		frame = append(frame, f.Data...)
	}
	sum := Checksum(frame)
	return append(frame, sum[0], sum[1]), nil
}

// PollReader adapts a reader whose Read returns (0, nil) on timeout so that
// the timeout surfaces as ErrNoData.
type PollReader struct {
	R io.Reader
}

func (p PollReader) Read(b []byte) (int, error) {
	n, err := p.R.Read(b)
	if n == 0 && err == nil {
		return 0, ErrNoData
	}
	return n, err
}
