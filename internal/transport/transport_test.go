package transport

import (
	"errors"
	"testing"
	"time"
)

func receive(t *testing.T, tr Transport) []byte {
	t.Helper()
	select {
	case b, ok := <-tr.Incoming():
		if !ok {
			t.Fatal("Incoming closed unexpectedly")
		}
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for frame")
	}
	return nil
}

func TestUDP_SendToRingLink(t *testing.T) {
	a, err := NewUDP("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewUDP: %v", err)
	}
	defer a.Close()
	b, err := NewUDP("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewUDP: %v", err)
	}
	defer b.Close()

	if err := a.Send([]byte("9000")); !errors.Is(err, ErrNoLink) {
		t.Errorf("Expected ErrNoLink before Connect, got %v", err)
	}

	if err := a.Connect(b.LocalAddr()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := a.Send([]byte("9000")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got := receive(t, b); string(got) != "9000" {
		t.Errorf("Expected token frame, got %q", got)
	}
}

func TestUDP_CloseClosesIncoming(t *testing.T) {
	a, err := NewUDP("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewUDP: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	a.Close()

	select {
	case _, ok := <-a.Incoming():
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("Incoming not closed after Close")
	}
}

func TestMemory_RingDelivery(t *testing.T) {
	net := NewNetwork()
	a, b, c := net.Join("A"), net.Join("B"), net.Join("C")
	a.Link("B")
	b.Link("C")
	c.Link("A")

	a.Send([]byte("one"))
	if got := receive(t, b); string(got) != "one" {
		t.Errorf("B got %q", got)
	}
	b.Send([]byte("two"))
	if got := receive(t, c); string(got) != "two" {
		t.Errorf("C got %q", got)
	}
	c.Send([]byte("three"))
	if got := receive(t, a); string(got) != "three" {
		t.Errorf("A got %q", got)
	}
}

func TestMemory_Filter(t *testing.T) {
	net := NewNetwork()
	a, b := net.Join("A"), net.Join("B")
	a.Link("B")

	net.SetFilter(func(from, to string, frame []byte) bool {
		return string(frame) != "9000"
	})

	a.Send([]byte("9000"))
	a.Send([]byte("data"))

	if got := receive(t, b); string(got) != "data" {
		t.Errorf("Expected filtered token to be dropped, got %q", got)
	}
}

func TestMemory_Errors(t *testing.T) {
	net := NewNetwork()
	a := net.Join("A")

	if err := a.Send([]byte("x")); !errors.Is(err, ErrNoLink) {
		t.Errorf("Expected ErrNoLink, got %v", err)
	}

	a.Link("ghost")
	if err := a.Send([]byte("x")); err == nil {
		t.Error("Expected error for unknown node")
	}

	a.Close()
	if err := a.Send([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, ok := <-a.Incoming(); ok {
		t.Error("Expected inbox to be closed")
	}
}
