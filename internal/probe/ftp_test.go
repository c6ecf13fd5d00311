package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeFTPServer implements just enough of the control/data handshake for
// one RETR: banner, USER/PASS/TYPE acks, PASV with a throwaway data
// listener, and RETR serving retrieveBody (or a 550 when denyRetr is set).
func fakeFTPServer(t *testing.T, retrieveBody string, denyRetr bool) (host string, port int) {
	t.Helper()
	ctrlLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	dataLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	go func() {
		defer ctrlLn.Close()
		conn, err := ctrlLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		fmt.Fprintf(conn, "220 fake ftp ready\r\n")
		r := bufio.NewReader(conn)

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			switch {
			case strings.HasPrefix(line, "USER"):
				fmt.Fprintf(conn, "331 need password\r\n")
			case strings.HasPrefix(line, "PASS"):
				fmt.Fprintf(conn, "230 logged in\r\n")
			case strings.HasPrefix(line, "TYPE"):
				fmt.Fprintf(conn, "200 type set\r\n")
			case strings.HasPrefix(line, "PASV"):
				addr := dataLn.Addr().(*net.TCPAddr)
				ipParts := strings.ReplaceAll(addr.IP.String(), ".", ",")
				p1, p2 := addr.Port/256, addr.Port%256
				fmt.Fprintf(conn, "227 Entering Passive Mode (%s,%d,%d)\r\n", ipParts, p1, p2)
			case strings.HasPrefix(line, "RETR"):
				if denyRetr {
					fmt.Fprintf(conn, "550 Permission denied\r\n")
					continue
				}
				fmt.Fprintf(conn, "150 opening data connection\r\n")
				dconn, err := dataLn.Accept()
				if err == nil {
					dconn.Write([]byte(retrieveBody))
					dconn.Close()
				}
				fmt.Fprintf(conn, "226 transfer complete\r\n")
			default:
				fmt.Fprintf(conn, "500 unknown command\r\n")
			}
		}
	}()

	addr := ctrlLn.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestFTPProberRetrievesBody(t *testing.T) {
	host, port := fakeFTPServer(t, "root:x:0:0:root:/root:/bin/bash", false)

	prober := NewFTPProber(FTPConfig{Host: host, Port: port, Timeout: 5 * time.Second})
	outcome := prober.Probe(context.Background(), "../../../etc/passwd")

	if outcome.Err != nil {
		t.Fatalf("unexpected error: %v", outcome.Err)
	}
	if outcome.FTPPermErr {
		t.Fatal("did not expect a permission error")
	}
	if !strings.Contains(string(outcome.Body), "root:") {
		t.Errorf("expected retrieved body to contain root:, got %q", outcome.Body)
	}
}

func TestFTPProberPermissionDeniedIsNotATransportError(t *testing.T) {
	host, port := fakeFTPServer(t, "", true)

	prober := NewFTPProber(FTPConfig{Host: host, Port: port, Timeout: 5 * time.Second})
	outcome := prober.Probe(context.Background(), "../../../etc/shadow")

	if !outcome.FTPPermErr {
		t.Fatal("expected a permission-denied outcome")
	}
}

func TestFTPProberDefaultsToAnonymous(t *testing.T) {
	p := NewFTPProber(FTPConfig{Host: "127.0.0.1", Port: 21})
	if p.cfg.Credentials.Username != "anonymous" {
		t.Errorf("expected default username anonymous, got %q", p.cfg.Credentials.Username)
	}
}
