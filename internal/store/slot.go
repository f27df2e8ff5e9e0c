// Package store owns the persisted record collection: storage slots,
// legacy record repair and whole-document persistence.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

// DefaultSlotName is the key the collection document is stored under.
const DefaultSlotName = "squishy_log_data"

// Slot is a single on-device key-value slot holding one document.
type Slot interface {
	// Read returns the stored document and whether one exists.
	Read(ctx context.Context) ([]byte, bool, error)

	// Write replaces the stored document. A write the slot cannot hold
	// fails with STORE_CAPACITY.
	Write(ctx context.Context, data []byte) error

	// Close releases the slot.
	Close() error
}

// checkQuota rejects documents larger than quota. A quota <= 0 is unlimited.
func checkQuota(size int, quota int64) error {
	if quota > 0 && int64(size) > quota {
		return apperrors.Newf(apperrors.ErrStoreCapacity,
			"document of %d bytes exceeds the %d byte storage quota", size, quota)
	}
	return nil
}

// isDiskFull reports whether err means the device has no room left.
func isDiskFull(err error) bool {
	return errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT)
}

// MemorySlot is an in-process slot, used by tests and dry runs.
type MemorySlot struct {
	mu     sync.Mutex
	data   []byte
	exists bool
	quota  int64
	writes int
}

// NewMemorySlot creates an empty in-memory slot with an optional quota.
func NewMemorySlot(quota int64) *MemorySlot {
	return &MemorySlot{quota: quota}
}

// NewMemorySlotWith creates an in-memory slot pre-filled with data.
func NewMemorySlotWith(data string) *MemorySlot {
	return &MemorySlot{data: []byte(data), exists: true}
}

// Read implements Slot.
func (m *MemorySlot) Read(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists {
		return nil, false, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, true, nil
}

// Write implements Slot.
func (m *MemorySlot) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkQuota(len(data), m.quota); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data[:0:0], data...)
	m.exists = true
	m.writes++
	return nil
}

// Close implements Slot.
func (m *MemorySlot) Close() error { return nil }

// Contents returns the raw stored document.
func (m *MemorySlot) Contents() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data)
}

// Writes returns how many successful writes the slot has accepted.
func (m *MemorySlot) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// SetQuota changes the slot's quota.
func (m *MemorySlot) SetQuota(quota int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quota = quota
}

func (m *MemorySlot) String() string {
	return fmt.Sprintf("memory slot (%d bytes)", len(m.Contents()))
}
