package echo_test

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/torosent/udprtt/internal/echo"
)

func startServer(t *testing.T, drop func([]byte) bool) (*echo.Server, net.Addr, <-chan error) {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := &echo.Server{Conn: conn, Drop: drop}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		conn.Close()
	})
	return srv, conn.LocalAddr(), done
}

func TestServerEchoesPayload(t *testing.T) {
	srv, addr, _ := startServer(t, nil)

	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer client.Close()

	payload := []byte{0, 0, 0, 42}
	if _, err := client.WriteTo(payload, addr); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, from, err := client.ReadFrom(buf)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Fatalf("echo = %v, want %v", buf[:n], payload)
	}
	if from.String() != addr.String() {
		t.Errorf("reply from %s, want %s", from, addr)
	}
	if srv.Echoed() != 1 {
		t.Errorf("Echoed() = %d, want 1", srv.Echoed())
	}
}

func TestServerDrop(t *testing.T) {
	srv, addr, _ := startServer(t, func([]byte) bool { return true })

	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer client.Close()

	if _, err := client.WriteTo([]byte{1, 2, 3, 4}, addr); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	_ = client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := make([]byte, 16)
	if _, _, err := client.ReadFrom(buf); err == nil {
		t.Fatal("expected no reply when every datagram is dropped")
	}
	deadline := time.Now().Add(time.Second)
	for srv.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", srv.Dropped())
	}
}

func TestServeReturnsNilOnCancel(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	srv := &echo.Server{Conn: conn}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
