package nav_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/navlog/internal/mip"
	"github.com/banshee-data/navlog/internal/nav"
	"github.com/banshee-data/navlog/internal/testutil"
)

func TestAssembleGNSS(t *testing.T) {
	pkt := testutil.Packet(t, mip.DescriptorGNSSData, testutil.GNSSFields())
	got, err := nav.AssembleGNSS(pkt)
	if err != nil {
		t.Fatalf("AssembleGNSS() error = %v", err)
	}
	if diff := cmp.Diff(testutil.WantGNSS(), got); diff != "" {
		t.Errorf("AssembleGNSS() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleGNSS_FieldLengths(t *testing.T) {
	// Each block must be exactly as long as the widest read it needs.
	want := map[uint8]int{
		nav.TagGNSSPosition:     42,
		nav.TagGNSSECEFPosition: 30,
		nav.TagGNSSNEDVelocity:  34,
		nav.TagGNSSECEFVelocity: 18,
		nav.TagGNSSDOP:          30,
		nav.TagGNSSTime:         12,
		nav.TagGNSSFixInfo:      6,
	}
	for _, f := range testutil.GNSSFields() {
		if len(f.Data) != want[f.Tag] {
			t.Errorf("field 0x%02x length = %d, want %d", f.Tag, len(f.Data), want[f.Tag])
		}
		short := testutil.Truncated(testutil.GNSSFields(), f.Tag, len(f.Data)-1)
		_, err := nav.AssembleGNSS(testutil.Packet(t, mip.DescriptorGNSSData, short))
		var fde *nav.FieldDecodeError
		if !errors.As(err, &fde) || fde.Tag != f.Tag {
			t.Errorf("field 0x%02x one byte short: error = %v", f.Tag, err)
		}
	}
}

func TestAssembleGNSS_SignExtendsFixInfo(t *testing.T) {
	fixInfo := testutil.LE(nil).I8(-1).I8(-128).I16(-1).I16(1).Field()
	fields := testutil.Replaced(testutil.GNSSFields(), nav.TagGNSSFixInfo, fixInfo)
	got, err := nav.AssembleGNSS(testutil.Packet(t, mip.DescriptorGNSSData, fields))
	if err != nil {
		t.Fatalf("AssembleGNSS() error = %v", err)
	}
	want := nav.FixInfo{FixType: -1, SVs: -128, FixFlags: -1, Valid: 1}
	if got.FixInfo != want {
		t.Errorf("FixInfo = %+v, want %+v", got.FixInfo, want)
	}
}

func TestAssembleGNSS_MissingField(t *testing.T) {
	for _, tag := range nav.GNSSTags {
		pkt := testutil.Packet(t, mip.DescriptorGNSSData, testutil.Without(testutil.GNSSFields(), tag))
		got, err := nav.AssembleGNSS(pkt)

		var missing *nav.MissingFieldError
		if !errors.As(err, &missing) || missing.Tag != tag {
			t.Errorf("tag 0x%02x: error = %v, want MissingFieldError", tag, err)
		}
		if got != (nav.GnssFix{}) {
			t.Errorf("tag 0x%02x: partial fix returned", tag)
		}
	}
}

func TestAssembleGNSS_IMUPacketRejected(t *testing.T) {
	// IMU tags overlap GNSS tags 0x04..0x07 but not 0x03.
	_, err := nav.AssembleGNSS(testutil.Packet(t, mip.DescriptorIMUData, testutil.IMUFields()))
	var missing *nav.MissingFieldError
	if !errors.As(err, &missing) || missing.Tag != nav.TagGNSSPosition {
		t.Errorf("error = %v, want missing position field", err)
	}
}
