package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/banshee-data/navlog/internal/mip"
	"github.com/banshee-data/navlog/internal/nav"
)

// Default decimations: the IMU stream at 1/50 and GNSS at 1/4 of the
// device base rates.
const (
	DefaultIMUDecimation  = 50
	DefaultGNSSDecimation = 4
)

func streamEntries(tags []uint8, decimation uint16) []mip.StreamEntry {
	entries := make([]mip.StreamEntry, len(tags))
	for i, tag := range tags {
		entries[i] = mip.StreamEntry{Tag: tag, Decimation: decimation}
	}
	return entries
}

// SetupCommands returns the command sequence that idles the device, selects
// every field the assemblers need, and resumes streaming.
func SetupCommands(imuDecimation, gnssDecimation uint16) []mip.Command {
	return []mip.Command{
		mip.SetIdle(),
		mip.IMUMessageFormat(streamEntries(nav.IMUTags, imuDecimation)),
		mip.GNSSMessageFormat(streamEntries(nav.GNSSTags, gnssDecimation)),
		mip.Resume(),
	}
}

// ConfigureDevice sends the setup sequence over w, reading acknowledgements
// from the source's stream.
func ConfigureDevice(ctx context.Context, src *StreamSource, w io.Writer, imuDecimation, gnssDecimation uint16) error {
	dev := src.Device(w)
	if err := dev.Configure(ctx, SetupCommands(imuDecimation, gnssDecimation)...); err != nil {
		return fmt.Errorf("device setup failed: %w", err)
	}
	if dev.Skipped > 0 {
		logf("skipped %d packets while configuring device", dev.Skipped)
	}
	return nil
}
