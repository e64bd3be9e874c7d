package media

import (
	"context"
	"fmt"

	"mediakit/record"
)

// Registry groups the attachments of one model and fans model lifecycle
// events out to them. Registration order is preserved so flushes and
// destroys run deterministically.
type Registry struct {
	order    []string
	managers map[string]*Manager
}

func NewRegistry() *Registry {
	return &Registry{managers: map[string]*Manager{}}
}

// Register adds an attachment under its name. Re-registering a name
// replaces the previous manager but keeps its position.
func (r *Registry) Register(m *Manager) *Registry {
	if _, ok := r.managers[m.Name]; !ok {
		r.order = append(r.order, m.Name)
	}
	r.managers[m.Name] = m
	return r
}

// Get returns the attachment registered under name.
func (r *Registry) Get(name string) (*Manager, error) {
	m, ok := r.managers[name]
	if !ok {
		return nil, fmt.Errorf("no attachment named %q is registered", name)
	}
	return m, nil
}

// Names lists the registered attachment names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Bind points every registered attachment at the given record.
func (r *Registry) Bind(rec record.Record) *Registry {
	for _, name := range r.order {
		r.managers[name].SetRecord(rec)
	}
	return r
}

// CommitSave flushes every attachment's staged work. The first failure
// stops the pass so a broken disk does not burn through every slot.
func (r *Registry) CommitSave(ctx context.Context) error {
	for _, name := range r.order {
		if err := r.managers[name].CommitSave(ctx); err != nil {
			return fmt.Errorf("attachment %q: %w", name, err)
		}
	}
	return nil
}

// Destroy clears and flushes every attachment, for model deletion hooks.
func (r *Registry) Destroy(ctx context.Context) error {
	for _, name := range r.order {
		if err := r.managers[name].Destroy(ctx); err != nil {
			return fmt.Errorf("attachment %q: %w", name, err)
		}
	}
	return nil
}

// AfterSave is the model save hook: it flushes the staged work of every
// attachment once the record itself is persisted, so interpolated paths
// see the final primary key.
func (r *Registry) AfterSave(ctx context.Context) error {
	return r.CommitSave(ctx)
}

// BeforeDelete stages the removal of every attachment's variants while the
// record still exists to interpolate paths from.
func (r *Registry) BeforeDelete() {
	for _, name := range r.order {
		r.managers[name].Clear()
	}
}

// AfterDelete flushes the removals staged by BeforeDelete. Deletion flushes
// unconditionally here: KeepOldFiles only guards overwrite-time deletion,
// and a deleted record leaves no way to find the variants later.
func (r *Registry) AfterDelete(ctx context.Context) error {
	for _, name := range r.order {
		m := r.managers[name]
		m.flushDeletes(ctx)

		if err := m.flushWrites(ctx); err != nil {
			return fmt.Errorf("attachment %q: %w", name, err)
		}
	}
	return nil
}

// QueuedAttachments returns the attachments with an in-flight upload.
func (r *Registry) QueuedAttachments() []*Manager {
	var queued []*Manager
	for _, name := range r.order {
		if m := r.managers[name]; m.IsQueued() {
			queued = append(queued, m)
		}
	}
	return queued
}

// URLs collects the style URLs of every attachment that has media.
func (r *Registry) URLs(includeOriginal bool) map[string]map[string]string {
	out := map[string]map[string]string{}
	for _, name := range r.order {
		if urls := r.managers[name].URLs(true, includeOriginal); urls != nil {
			out[name] = urls
		}
	}
	return out
}
