package dashboard

import (
	"sync"
	"time"
)

// ToastTTL is how long a notification stays visible.
const ToastTTL = 4 * time.Second

// ToastKind selects the colour of a notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Toast is one ephemeral notification.
type Toast struct {
	ID        int
	Kind      ToastKind
	Message   string
	ExpiresAt time.Time
}

// Toaster keeps notifications until they expire. Several may be visible at once.
type Toaster struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	seq   int
	items []Toast
}

// NewToaster creates a toaster with the default TTL.
func NewToaster() *Toaster {
	return &Toaster{ttl: ToastTTL, now: time.Now}
}

// Show adds a notification and returns it.
func (t *Toaster) Show(kind ToastKind, message string) Toast {
	if t == nil {
		return Toast{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	toast := Toast{ID: t.seq, Kind: kind, Message: message, ExpiresAt: t.now().Add(t.ttl)}
	t.items = append(t.items, toast)
	return toast
}

func (t *Toaster) Success(message string) Toast { return t.Show(ToastSuccess, message) }

func (t *Toaster) Error(message string) Toast { return t.Show(ToastError, message) }

func (t *Toaster) Info(message string) Toast { return t.Show(ToastInfo, message) }

// Active drops expired toasts and returns the rest, oldest first.
func (t *Toaster) Active() []Toast {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	kept := t.items[:0]
	for _, item := range t.items {
		if now.Before(item.ExpiresAt) {
			kept = append(kept, item)
		}
	}
	t.items = kept
	out := make([]Toast, len(kept))
	copy(out, kept)
	return out
}
