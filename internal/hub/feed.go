// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package hub

// Feed is the type-erased view of a hub used by the fan-out transports,
// which serve every topic through the same handlers.
type Feed interface {
	Name() string
	State() State
	SubscriberCount() int

	// Latest returns the current snapshot as an untyped value, or a nil
	// interface when there is none.
	Latest() any

	// Watch subscribes fn; a nil interface signals absence.
	Watch(fn func(any)) (cancel func())
}

var _ Feed = (*Hub[struct{}])(nil)

// Latest implements Feed.
func (h *Hub[T]) Latest() any {
	if v := h.Snapshot(); v != nil {
		return v
	}
	return nil
}

// Watch implements Feed.
func (h *Hub[T]) Watch(fn func(any)) func() {
	return h.Subscribe(func(v *T) {
		if v == nil {
			fn(nil)
			return
		}
		fn(v)
	})
}
