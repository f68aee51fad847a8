package state

import "context"

// Handle owns the record for one command invocation. Every change is
// written through to the store before it becomes visible in memory.
type Handle struct {
	store  Store
	record Record
}

func NewHandle(store Store, record Record) *Handle {
	return &Handle{store: store, record: record.Clone()}
}

// Load reads the saved record into a new Handle.
func Load(ctx context.Context, store Store) (*Handle, error) {
	record, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NewHandle(store, record), nil
}

// Record returns a copy of the current record.
func (h *Handle) Record() Record {
	return h.record.Clone()
}

// Update applies mutate to a copy of the record and saves it, the
// in-memory record only changes if saving succeeds.
func (h *Handle) Update(ctx context.Context, mutate func(r *Record)) error {
	next := h.record.Clone()
	mutate(&next)
	err := h.store.Save(ctx, next)
	if err != nil {
		return err
	}
	h.record = next
	return nil
}
