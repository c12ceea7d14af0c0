package pipe_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sorales/go-httpipe/pkg/pipe"
	"github.com/sorales/go-httpipe/pkg/transport"
)

// serveCanned answers every request on the accepted connection with the
// same canned response, keeping the connection open for reuse.
func serveCanned(t *testing.T, ln net.Listener, response string, requests chan<- string) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		var req strings.Builder
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			req.WriteString(line)
			if line == "\r\n" {
				break
			}
		}
		if requests != nil {
			requests <- req.String()
		}
		if _, err := conn.Write([]byte(response)); err != nil {
			return
		}
	}
}

func TestRequestOverTCPWithKeepaliveReuse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	requests := make(chan string, 4)
	go serveCanned(t, ln, "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\ntest", requests)

	addr := ln.Addr().(*net.TCPAddr)
	target := transport.Target{Host: "127.0.0.1", Port: addr.Port}

	p := pipe.New(0)
	p.SetTimeout(2 * time.Second)

	resp, err := p.Request(context.Background(), target, &pipe.Options{Path: "/first"})
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if resp.Status != 200 || resp.Body.String() != "test" {
		t.Fatalf("first response = %d %q", resp.Status, resp.Body.String())
	}
	if n, _ := p.ReusedTimes(); n != 0 {
		t.Errorf("first cycle ReusedTimes = %d, want 0", n)
	}

	// The finalized connection went back to the pool; the next request on
	// the same pipe must reuse it.
	resp, err = p.Request(context.Background(), target, &pipe.Options{Path: "/second"})
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if resp.Status != 200 || resp.Body.String() != "test" {
		t.Fatalf("second response = %d %q", resp.Status, resp.Body.String())
	}
	if n, _ := p.ReusedTimes(); n != 1 {
		t.Errorf("second cycle ReusedTimes = %d, want 1", n)
	}

	first := <-requests
	if !strings.HasPrefix(first, "GET /first HTTP/1.1\r\n") {
		t.Errorf("first request line = %q", strings.SplitN(first, "\r\n", 2)[0])
	}
	second := <-requests
	if !strings.HasPrefix(second, "GET /second HTTP/1.1\r\n") {
		t.Errorf("second request line = %q", strings.SplitN(second, "\r\n", 2)[0])
	}
}

func TestRequestOverTCPConnectionClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if line == "\r\n" {
				break
			}
		}
		conn.Write([]byte("HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: 2\r\n\r\nok"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	target := transport.Target{Host: "127.0.0.1", Port: addr.Port}

	p := pipe.New(0)
	p.SetTimeout(2 * time.Second)
	resp, err := p.Request(context.Background(), target, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.Body.String() != "ok" || !resp.EOF {
		t.Fatalf("response = %q eof=%v", resp.Body.String(), resp.EOF)
	}
}
