package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
)

type HardwareRepository struct {
	mu      sync.RWMutex
	entries map[string]hardware.Hardware
}

func NewHardwareRepository(seed []hardware.Hardware) *HardwareRepository {
	entries := make(map[string]hardware.Hardware, len(seed))
	for _, item := range seed {
		entries[item.ID] = item
	}
	return &HardwareRepository{entries: entries}
}

func (r *HardwareRepository) List(_ context.Context) ([]hardware.Hardware, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]hardware.Hardware, 0, len(r.entries))
	for _, item := range r.entries {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *HardwareRepository) GetByID(_ context.Context, hardwareID string) (hardware.Hardware, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.entries[hardwareID]
	return item, ok, nil
}

func (r *HardwareRepository) Upsert(_ context.Context, item hardware.Hardware) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[item.ID] = item
	return nil
}

func (r *HardwareRepository) Delete(_ context.Context, hardwareID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, hardwareID)
	return nil
}
