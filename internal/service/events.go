package service

import (
	"sync"

	"github.com/MKhiriev/go-chat-sync/internal/logger"
	"github.com/MKhiriev/go-chat-sync/models"
)

// eventBus is the engine's subscription registry. Handlers are keyed by a
// monotonically increasing id so that unsubscribe closures stay valid no
// matter how many other handlers come and go.
type eventBus struct {
	mu     sync.RWMutex
	nextID int

	completed map[int]SyncCompletedHandler
	detected  map[int]ConflictDetectedHandler
	resolved  map[int]ConflictResolvedHandler

	logger *logger.Logger
}

func newEventBus(log *logger.Logger) *eventBus {
	return &eventBus{
		completed: make(map[int]SyncCompletedHandler),
		detected:  make(map[int]ConflictDetectedHandler),
		resolved:  make(map[int]ConflictResolvedHandler),
		logger:    log,
	}
}

func (b *eventBus) subscribeCompleted(h SyncCompletedHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.completed[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.completed, id)
	}
}

func (b *eventBus) subscribeDetected(h ConflictDetectedHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.detected[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.detected, id)
	}
}

func (b *eventBus) subscribeResolved(h ConflictResolvedHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.resolved[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.resolved, id)
	}
}

func (b *eventBus) emitCompleted(event SyncCompletedEvent) {
	for _, h := range b.completedSnapshot() {
		b.safeCall(func() { h(event) })
	}
}

func (b *eventBus) emitDetected(conflict models.SyncConflict) {
	for _, h := range b.detectedSnapshot() {
		b.safeCall(func() { h(conflict) })
	}
}

func (b *eventBus) emitResolved(conflict models.SyncConflict, resolution models.ConflictResolution) {
	for _, h := range b.resolvedSnapshot() {
		b.safeCall(func() { h(conflict, resolution) })
	}
}

// safeCall isolates handler panics so a broken subscriber cannot abort the
// sync operation that emitted the event.
func (b *eventBus) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("func", "eventBus.safeCall").
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	fn()
}

func (b *eventBus) completedSnapshot() []SyncCompletedHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := make([]SyncCompletedHandler, 0, len(b.completed))
	for _, h := range b.completed {
		handlers = append(handlers, h)
	}
	return handlers
}

func (b *eventBus) detectedSnapshot() []ConflictDetectedHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := make([]ConflictDetectedHandler, 0, len(b.detected))
	for _, h := range b.detected {
		handlers = append(handlers, h)
	}
	return handlers
}

func (b *eventBus) resolvedSnapshot() []ConflictResolvedHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := make([]ConflictResolvedHandler, 0, len(b.resolved))
	for _, h := range b.resolved {
		handlers = append(handlers, h)
	}
	return handlers
}
