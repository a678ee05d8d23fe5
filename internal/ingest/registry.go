package ingest

import (
	"fmt"
	"sort"

	"github.com/banshee-data/navlog/internal/mip"
	"github.com/banshee-data/navlog/internal/nav"
	"github.com/banshee-data/navlog/internal/store"
)

// handler turns one packet into one row. Assembly errors are returned
// unchanged; a handler never writes.
type handler struct {
	name   string
	handle func(*mip.Packet) (store.Row, error)
}

// Registry maps descriptor sets to the assembler and mapper pair that
// handle them. It is not safe for concurrent registration; build it before
// starting a Loop.
type Registry struct {
	handlers map[uint8]handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[uint8]handler)}
}

// Register routes packets with the given descriptor through assemble and
// then toRow. It panics if the descriptor is already registered.
func Register[R any](reg *Registry, descriptor uint8, name string, assemble func(*mip.Packet) (R, error), toRow func(R) store.Row) {
	if _, dup := reg.handlers[descriptor]; dup {
		panic(fmt.Sprintf("ingest: descriptor 0x%02x registered twice", descriptor))
	}
	reg.handlers[descriptor] = handler{
		name: name,
		handle: func(pkt *mip.Packet) (store.Row, error) {
			rec, err := assemble(pkt)
			if err != nil {
				return store.Row{}, err
			}
			return toRow(rec), nil
		},
	}
}

func (r *Registry) lookup(descriptor uint8) (handler, bool) {
	h, ok := r.handlers[descriptor]
	return h, ok
}

// Descriptors returns the registered descriptor sets in ascending order.
func (r *Registry) Descriptors() []uint8 {
	out := make([]uint8, 0, len(r.handlers))
	for d := range r.handlers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultRegistry handles IMU and GNSS data packets.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	Register(reg, mip.DescriptorIMUData, "imu", nav.AssembleIMU, store.IMURow)
	Register(reg, mip.DescriptorGNSSData, "gnss", nav.AssembleGNSS, store.GNSSRow)
	return reg
}
