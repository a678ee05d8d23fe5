package ingest

import (
	"context"
	"io"

	"github.com/banshee-data/navlog/internal/mip"
)

// PacketSource yields decoded packets. NextPacket returns (nil, nil) when no
// packet is available yet and the caller should poll again.
type PacketSource interface {
	NextPacket(ctx context.Context) (*mip.Packet, error)
}

// StreamSource reads framed packets from a byte stream such as a serial
// port or a recorded session. A read of zero bytes with no error is treated
// as a poll timeout.
type StreamSource struct {
	reader *mip.Reader
}

// NewStreamSource returns a source reading frames from r.
func NewStreamSource(r io.Reader) *StreamSource {
	return &StreamSource{reader: mip.NewReader(mip.PollReader{R: r})}
}

func (s *StreamSource) NextPacket(ctx context.Context) (*mip.Packet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.reader.ReadPacket()
}

// FrameStats reports framing counters for the underlying stream.
func (s *StreamSource) FrameStats() mip.FrameStats {
	return s.reader.Stats()
}

// Device returns a command channel that writes to w and reads replies from
// the same stream as the source, so no buffered bytes are lost between
// setup and ingestion.
func (s *StreamSource) Device(w io.Writer) *mip.Device {
	return mip.NewDevice(w, s.reader)
}
