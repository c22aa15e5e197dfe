package telemetry

import (
	"context"
	"time"

	"github.com/Sternrassler/error-telemetry/pkg/store"
)

// storeTimeout bounds a single store write.
const storeTimeout = 10 * time.Second

// mirror writes log snapshots to the store from a single goroutine.
// Notifications coalesce: however many changes arrive while a write is in
// flight, the next write carries the latest snapshot, so writes land in order.
type mirror struct {
	store    store.Store
	snapshot func() store.Record
	onError  func(error)

	pending chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

func newMirror(s store.Store, snapshot func() store.Record, onError func(error)) *mirror {
	m := &mirror{
		store:    s,
		snapshot: snapshot,
		onError:  onError,
		pending:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.run()
	return m
}

// notify schedules a write. It never blocks.
func (m *mirror) notify() {
	select {
	case m.pending <- struct{}{}:
	default:
	}
}

func (m *mirror) run() {
	defer close(m.done)
	for {
		select {
		case <-m.pending:
			m.save()
		case <-m.stop:
			// Final flush of anything queued before close.
			select {
			case <-m.pending:
				m.save()
			default:
			}
			return
		}
	}
}

func (m *mirror) save() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Save(ctx, m.snapshot()); err != nil {
		m.onError(err)
	}
}

// close stops the worker after a final flush and waits for it, or for ctx.
func (m *mirror) close(ctx context.Context) error {
	close(m.stop)
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
