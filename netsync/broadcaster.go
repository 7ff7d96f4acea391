package netsync

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Broadcaster fans sync messages out to every connected session.
type Broadcaster struct {
	mu     sync.RWMutex
	peers  map[*Session]struct{}
	closed bool

	locks   atomic.Int32
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewBroadcaster returns an unlocked broadcaster with no peers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{peers: make(map[*Session]struct{})}
}

// Add registers a peer and returns a function that removes and closes it.
func (b *Broadcaster) Add(s *Session) (remove func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.Close()
		return func() {}
	}
	b.peers[s] = struct{}{}
	return func() { b.drop(s) }
}

func (b *Broadcaster) drop(s *Session) {
	b.mu.Lock()
	delete(b.peers, s)
	b.mu.Unlock()
	s.Close()
}

// Peers returns the number of connected sessions.
func (b *Broadcaster) Peers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.peers)
}

// Lock suppresses broadcasts until the matching Unlock. Locks nest.
func (b *Broadcaster) Lock() { b.locks.Add(1) }

// Unlock releases one Lock.
func (b *Broadcaster) Unlock() {
	if b.locks.Add(-1) < 0 {
		b.locks.Store(0)
	}
}

// Locked reports whether broadcasts are suppressed.
func (b *Broadcaster) Locked() bool { return b.locks.Load() > 0 }

// Publish sends msg to every peer. While locked the message is dropped.
// Peers whose send fails are disconnected.
func (b *Broadcaster) Publish(msg Message) {
	if b.Locked() {
		b.dropped.Add(1)
		return
	}

	b.mu.RLock()
	var failed []*Session
	for s := range b.peers {
		if err := s.Send(msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Broadcaster.Publish",
				"peer":     s.RemoteAddr().String(),
				"command":  msg.Command,
				"error":    err.Error(),
			}).Warn("Dropping sync peer")
			failed = append(failed, s)
			continue
		}
		b.sent.Add(1)
	}
	b.mu.RUnlock()

	for _, s := range failed {
		b.drop(s)
	}
}

// Counters returns the number of messages sent to peers and the number of
// broadcasts dropped while locked.
func (b *Broadcaster) Counters() (sent, dropped uint64) {
	return b.sent.Load(), b.dropped.Load()
}

// Serve accepts connections from ln, completes the handshake as responder
// and adds each peer until ctx is done or ln fails.
func (b *Broadcaster) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return err
		}
		go func() {
			s, err := NewSession(conn, false)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Broadcaster.Serve",
					"peer":     conn.RemoteAddr().String(),
					"error":    err.Error(),
				}).Warn("Rejected sync peer")
				conn.Close()
				return
			}
			logrus.WithFields(logrus.Fields{
				"function": "Broadcaster.Serve",
				"peer":     conn.RemoteAddr().String(),
			}).Info("Sync peer connected")
			b.Add(s)
		}()
	}
}

// Close disconnects every peer. Later Adds close their session at once.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	peers := b.peers
	b.peers = make(map[*Session]struct{})
	b.closed = true
	b.mu.Unlock()
	for s := range peers {
		s.Close()
	}
}

// Dial connects to a broadcaster at addr as initiator.
func Dial(ctx context.Context, addr string) (*Session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(conn, true)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}
