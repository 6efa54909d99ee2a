// Package stream exposes the engine's mixed monitor output to listeners:
// chunked MP3 over HTTP, Opus over WebRTC, and trigger events over SSE.
package stream

import (
	"context"
	"sync"
)

// defaultListenerBuffer is ~3 seconds of 20ms frames.
const defaultListenerBuffer = 150

// Broadcaster fans out interleaved PCM monitor frames from one source to N
// listeners.
type Broadcaster struct {
	buffer    int
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	C    chan []int16
	done chan struct{}
}

// NewBroadcaster creates a broadcaster whose listeners buffer up to
// bufferFrames frames each. Non-positive values select the default.
func NewBroadcaster(bufferFrames int) *Broadcaster {
	if bufferFrames <= 0 {
		bufferFrames = defaultListenerBuffer
	}
	return &Broadcaster{
		buffer:    bufferFrames,
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []int16, b.buffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	close(l.done)
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Run reads frames from source and fans out to all listeners. Slow
// listeners get frames dropped rather than blocking the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					// listener too slow, drop frame to keep broadcast moving
				}
			}
			b.mu.RUnlock()
		}
	}
}
