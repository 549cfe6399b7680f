package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/slipangle/rallyarcade/log"
)

//nolint:lll // by design
// see https://betterprogramming.pub/how-to-broadcast-messages-in-go-using-channels-b68f42bdf32e

// BroadcastServer fans one source channel out to any number of listeners.
// Used to distribute session snapshots to connected spectator clients.
type BroadcastServer[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
}

type broadcastServer[T any] struct {
	name           string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	numRcv         int
	numSnd         int
	numSkip        int
	sendTimeout    time.Duration
}

type Option[T any] func(*broadcastServer[T])

// WithSendTimeout bounds how long a slow listener may block a broadcast.
func WithSendTimeout[T any](d time.Duration) Option[T] {
	return func(b *broadcastServer[T]) {
		b.sendTimeout = d
	}
}

// Subscribe returns a closed channel once the server has shut down.
func (b *broadcastServer[T]) Subscribe() <-chan T {
	ch := make(chan T)
	select {
	case b.addListener <- ch:
	case <-b.ctx.Done():
		close(ch)
	}
	return ch
}

func (b *broadcastServer[T]) CancelSubscription(ch <-chan T) {
	// after Close nobody serves removeListener anymore
	select {
	case b.removeListener <- ch:
	case <-b.ctx.Done():
	}
}

func (b *broadcastServer[T]) Close() {
	log.Info("Closing broadcast server",
		log.String("name", b.name),
		log.Int("rcv", b.numRcv), log.Int("snd", b.numSnd), log.Int("skip", b.numSkip))
	b.cancel()
}

//nolint:whitespace // false positive
func NewBroadcastServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) BroadcastServer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcastServer[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		sendTimeout:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.serve()
	return b
}

//nolint:cyclop // by design
func (b *broadcastServer[T]) serve() {
	defer func() {
		log.Info("Closing listeners", log.String("name", b.name))
		for _, listener := range b.listeners {
			if listener != nil {
				close(listener)
			}
		}
	}()
	m := sync.Mutex{}
	for {
		select {
		case <-b.ctx.Done():
			log.Info("broadcast server about to be closed", log.String("name", b.name))
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
		case ch := <-b.removeListener:
			m.Lock()
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
				}
			}
			m.Unlock()
		case msg := <-b.source:
			m.Lock()
			b.numRcv++
			for _, listener := range b.listeners {
				select {
				case listener <- msg:
					b.numSnd++
				// a stalled listener must not hold up the whole fan-out
				case <-time.After(b.sendTimeout):
					b.numSkip++
				}
			}
			m.Unlock()
		}
	}
}
