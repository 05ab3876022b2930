package transport

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// maxDatagram is the read buffer size; larger frames are truncated by the OS.
const maxDatagram = 64 * 1024

// UDP is a Transport over a bound UDP socket.
type UDP struct {
	conn        *net.UDPConn
	mu          sync.RWMutex
	next        *net.UDPAddr
	incoming    chan []byte
	readStopped chan struct{}
	closeOnce   sync.Once
}

// NewUDP binds listenAddr and starts the read loop.
func NewUDP(listenAddr string) (*UDP, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", listenAddr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}
	u := &UDP{
		conn:        conn,
		incoming:    make(chan []byte, inboxSize),
		readStopped: make(chan struct{}),
	}
	go u.readLoop()
	return u, nil
}

// Connect sets the ring link. It may be called again to relink.
func (u *UDP) Connect(nextAddr string) error {
	addr, err := net.ResolveUDPAddr("udp", nextAddr)
	if err != nil {
		return fmt.Errorf("failed to resolve ring link %s: %w", nextAddr, err)
	}
	u.mu.Lock()
	u.next = addr
	u.mu.Unlock()
	return nil
}

// LocalAddr returns the bound address, useful when listening on port 0.
func (u *UDP) LocalAddr() string {
	return u.conn.LocalAddr().String()
}

// Send implements Transport.
func (u *UDP) Send(frame []byte) error {
	u.mu.RLock()
	next := u.next
	u.mu.RUnlock()
	if next == nil {
		return ErrNoLink
	}
	if _, err := u.conn.WriteToUDP(frame, next); err != nil {
		return fmt.Errorf("send to %s: %w", next, err)
	}
	return nil
}

// Incoming implements Transport.
func (u *UDP) Incoming() <-chan []byte {
	return u.incoming
}

// Close implements Transport.
func (u *UDP) Close() error {
	var err error
	u.closeOnce.Do(func() {
		err = u.conn.Close()
		select {
		case <-u.readStopped:
		case <-time.After(200 * time.Millisecond):
		}
	})
	return err
}

func (u *UDP) readLoop() {
	defer close(u.readStopped)
	defer close(u.incoming)

	buf := make([]byte, maxDatagram)
	for {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		frame := append([]byte(nil), buf[:n]...)
		select {
		case u.incoming <- frame:
		default:
			log.Printf("[%s] inbox full, dropping %d byte frame", u.LocalAddr(), n)
		}
	}
}
