package probe

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"
)

// fakeTFTPServer answers exactly one RRQ with a single DATA block, then exits.
func fakeTFTPServer(t *testing.T, body []byte) (host string, port int, done chan struct{}) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	done = make(chan struct{})
	go func() {
		defer conn.Close()
		defer close(done)

		buf := make([]byte, 2048)
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if binary.BigEndian.Uint16(buf[:n]) != tftpOpRRQ {
			return
		}

		data := make([]byte, 0, 4+len(body))
		data = binary.BigEndian.AppendUint16(data, tftpOpDATA)
		data = binary.BigEndian.AppendUint16(data, 1)
		data = append(data, body...)
		conn.WriteToUDP(data, raddr)
	}()

	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP.String(), addr.Port, done
}

func TestTFTPProberReceivesDataBlock(t *testing.T) {
	host, port, done := fakeTFTPServer(t, []byte("root:x:0:0:root:/root:/bin/bash"))
	defer func() { <-done }()

	prober := NewTFTPProber(TFTPConfig{Host: host, Port: port, Timeout: 3 * time.Second})
	outcome := prober.Probe(context.Background(), "/etc/passwd")

	if outcome.Err != nil {
		t.Fatalf("unexpected error: %v", outcome.Err)
	}
	if outcome.TFTPOpcode != tftpOpDATA {
		t.Errorf("expected DATA opcode, got %d", outcome.TFTPOpcode)
	}
	if string(outcome.Body) != "root:x:0:0:root:/root:/bin/bash" {
		t.Errorf("unexpected body: %q", outcome.Body)
	}
}

func TestTFTPProberTimeoutIsError(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)

	prober := NewTFTPProber(TFTPConfig{Host: addr.IP.String(), Port: addr.Port, Timeout: 200 * time.Millisecond})
	outcome := prober.Probe(context.Background(), "/etc/passwd")
	if outcome.Err == nil {
		t.Fatal("expected a timeout error when the server never replies")
	}
}

func TestBuildRRQLayout(t *testing.T) {
	pkt := buildRRQ("/etc/passwd")
	if binary.BigEndian.Uint16(pkt[0:2]) != tftpOpRRQ {
		t.Fatal("expected RRQ opcode")
	}
	if pkt[len(pkt)-1] != 0 {
		t.Error("expected trailing null terminator after mode string")
	}
}
