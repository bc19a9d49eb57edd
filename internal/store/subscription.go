package store

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription is the token returned by [Handle.Subscribe]. Cancel detaches
// the handler; it is safe to call on a nil token and more than once.
type Subscription struct {
	id   uuid.UUID
	obs  *Observers
	once sync.Once
}

func (s *Subscription) ID() string {
	if s == nil {
		return ""
	}

	return s.id.String()
}

func (s *Subscription) Cancel() {
	if s == nil {
		return
	}

	s.once.Do(func() {
		s.obs.remove(s.id)
	})
}

// Observers is the error handler list drivers embed in their handles.
type Observers struct {
	mu       sync.Mutex
	handlers map[uuid.UUID]ErrorHandler
}

func (o *Observers) Subscribe(h ErrorHandler) *Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.handlers == nil {
		o.handlers = make(map[uuid.UUID]ErrorHandler)
	}

	sub := &Subscription{id: uuid.New(), obs: o}
	o.handlers[sub.id] = h

	return sub
}

func (o *Observers) remove(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.handlers, id)
}

// Len returns the number of attached handlers.
func (o *Observers) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.handlers)
}

// Notify delivers err to every attached handler and returns err unchanged.
func (o *Observers) Notify(err error) error {
	if err == nil {
		return nil
	}

	o.mu.Lock()
	handlers := make([]ErrorHandler, 0, len(o.handlers))

	for _, h := range o.handlers {
		handlers = append(handlers, h)
	}
	o.mu.Unlock()

	for _, h := range handlers {
		h(err)
	}

	return err
}
