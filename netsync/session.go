// Package netsync broadcasts viewer sync messages (seek, playback state,
// export notifications) to connected peers over Noise-encrypted streams.
//
// A Broadcaster can be locked. While locked, Publish drops messages instead
// of sending them, which keeps peers from following the playhead while an
// export steps through the timeline.
package netsync

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/flynn/noise"
)

var (
	// ErrHandshake indicates the Noise handshake with a peer failed.
	ErrHandshake = errors.New("sync handshake failed")
	// ErrMessageTooLarge indicates a message that does not fit one frame.
	ErrMessageTooLarge = errors.New("sync message too large")
	// ErrClosed indicates use of a closed session or broadcaster.
	ErrClosed = errors.New("sync session closed")
)

// maxFrame is the largest Noise transport message.
const maxFrame = 65535

// Message is one sync command, such as {"command":"seek","value":...}.
type Message struct {
	Command string          `json:"command"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// NewMessage encodes value as the message payload.
func NewMessage(command string, value any) (Message, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Message{}, err
	}
	return Message{Command: command, Value: raw}, nil
}

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2b)

// Session is an encrypted, length-framed message stream with one peer.
// Send is safe for concurrent use; Receive must be called from one
// goroutine.
type Session struct {
	conn net.Conn
	send *noise.CipherState
	recv *noise.CipherState

	mu     sync.Mutex
	closed bool
}

// NewSession runs the Noise NN handshake over conn. Exactly one side must
// be the initiator.
func NewSession(conn net.Conn, initiator bool) (*Session, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite: cipherSuite,
		Random:      rand.Reader,
		Pattern:     noise.HandshakeNN,
		Initiator:   initiator,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	s := &Session{conn: conn}
	if initiator {
		// -> e
		msg, _, _, err := hs.WriteMessage(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
		}
		if err := writeFrame(conn, msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
		}
		// <- e, ee
		reply, err := readFrame(conn)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
		}
		_, cs1, cs2, err := hs.ReadMessage(nil, reply)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
		}
		s.send, s.recv = cs1, cs2
		return s, nil
	}

	first, err := readFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if _, _, _, err := hs.ReadMessage(nil, first); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	reply, cs1, cs2, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if err := writeFrame(conn, reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	s.send, s.recv = cs2, cs1
	return s, nil
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// Send encrypts and writes msg.
func (s *Session) Send(msg Message) error {
	plain, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if len(plain)+16 > maxFrame {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(plain))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	sealed, err := s.send.Encrypt(nil, nil, plain)
	if err != nil {
		return err
	}
	return writeFrame(s.conn, sealed)
}

// Receive reads and decrypts the next message.
func (s *Session) Receive() (Message, error) {
	sealed, err := readFrame(s.conn)
	if err != nil {
		return Message{}, err
	}
	plain, err := s.recv.Decrypt(nil, nil, sealed)
	if err != nil {
		return Message{}, fmt.Errorf("decrypt sync message: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(plain, &msg); err != nil {
		return Message{}, fmt.Errorf("decode sync message: %w", err)
	}
	return msg, nil
}

// Close closes the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrame {
		return ErrMessageTooLarge
	}
	buf := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(buf, uint16(len(payload)))
	copy(buf[2:], payload)
	_, err := w.Write(buf)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var n [2]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, err
	}
	payload := make([]byte, binary.BigEndian.Uint16(n[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
