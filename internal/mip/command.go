package mip

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Command field tags.
const (
	cmdSetIdle           uint8 = 0x02
	cmdResume            uint8 = 0x06
	cmdIMUMessageFormat  uint8 = 0x08
	cmdGNSSMessageFormat uint8 = 0x09

	fieldACK uint8 = 0xF1

	functionApply uint8 = 0x01
)

// StreamEntry selects one data field for a message format command together
// with its rate decimation relative to the device base rate.
type StreamEntry struct {
	Tag        uint8
	Decimation uint16
}

// Command is one request to the device: the descriptor set and a single
// command field.
type Command struct {
	Name       string
	Descriptor uint8
	Field      TaggedField
}

// Frame encodes the command.
func (c Command) Frame() ([]byte, error) {
	return Encode(c.Descriptor, c.Field)
}

// SetIdle stops the data streams so the device accepts configuration.
func SetIdle() Command {
	return Command{Name: "set idle", Descriptor: DescriptorBaseCommand, Field: TaggedField{Tag: cmdSetIdle}}
}

// Resume restarts the data streams after configuration.
func Resume() Command {
	return Command{Name: "resume", Descriptor: DescriptorBaseCommand, Field: TaggedField{Tag: cmdResume}}
}

// IMUMessageFormat selects the fields carried by IMU data packets.
func IMUMessageFormat(entries []StreamEntry) Command {
	return messageFormat("imu message format", cmdIMUMessageFormat, entries)
}

// GNSSMessageFormat selects the fields carried by GNSS data packets.
func GNSSMessageFormat(entries []StreamEntry) Command {
	return messageFormat("gnss message format", cmdGNSSMessageFormat, entries)
}

func messageFormat(name string, tag uint8, entries []StreamEntry) Command {
	data := make([]byte, 2, 2+3*len(entries))
	data[0] = functionApply
	data[1] = byte(len(entries))
	for _, e := range entries {
		data = append(data, e.Tag)
		data = binary.LittleEndian.AppendUint16(data, e.Decimation)
	}
	return Command{Name: name, Descriptor: DescriptorConfigCommand, Field: TaggedField{Tag: tag, Data: data}}
}

// NACKError is returned when the device rejects a command.
type NACKError struct {
	Command string
	Code    uint8
}

func (e *NACKError) Error() string {
	return fmt.Sprintf("device rejected %s: error code 0x%02x", e.Command, e.Code)
}

// Device sends configuration commands and waits for their acknowledgement.
type Device struct {
	w io.Writer
	r *Reader

	// Timeout bounds the wait for each acknowledgement.
	Timeout time.Duration
	// Skipped counts data packets read while waiting for acknowledgements.
	Skipped int
}

// NewDevice returns a Device writing commands to w and reading replies from r.
func NewDevice(w io.Writer, r *Reader) *Device {
	return &Device{w: w, r: r, Timeout: 2 * time.Second}
}

// Send writes one command and blocks until it is acknowledged.
func (d *Device) Send(ctx context.Context, cmd Command) error {
	frame, err := cmd.Frame()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", cmd.Name, err)
	}
	if _, err := d.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write %s: %w", cmd.Name, err)
	}

	deadline := time.Now().Add(d.Timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s acknowledgement", cmd.Name)
		}

		pkt, err := d.r.ReadPacket()
		if err != nil {
			return fmt.Errorf("failed to read %s reply: %w", cmd.Name, err)
		}
		if pkt == nil {
			continue
		}
		if pkt.Descriptor != cmd.Descriptor {
			d.Skipped++
			continue
		}
		ack, ok := pkt.Payload.Field(fieldACK)
		if !ok || len(ack) < 2 || ack[0] != cmd.Field.Tag {
			d.Skipped++
			continue
		}
		if ack[1] != 0 {
			return &NACKError{Command: cmd.Name, Code: ack[1]}
		}
		return nil
	}
}

// Configure applies the commands in order, stopping at the first failure.
func (d *Device) Configure(ctx context.Context, cmds ...Command) error {
	for _, cmd := range cmds {
		if err := d.Send(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// ACK builds the reply frame the device sends for an accepted (code 0) or
// rejected command. Used by simulators and tests.
func ACK(cmd Command, code uint8) ([]byte, error) {
	return Encode(cmd.Descriptor, TaggedField{Tag: fieldACK, Data: Field{cmd.Field.Tag, code}})
}
