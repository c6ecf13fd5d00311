package probe

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nanragav/pathbreach/internal/netguard"
	"github.com/nanragav/pathbreach/internal/oracle"
	"github.com/nanragav/pathbreach/internal/perrors"
)

// FTPCredentials are the login details sent on the control connection.
// Defaults to anonymous / dot@dot.pwn when unset.
type FTPCredentials struct {
	Username string
	Password string
}

// FTPConfig configures the FTP prober. FTP probes run with parallelism 1:
// control-connection reuse is not safe across payloads.
type FTPConfig struct {
	Host        string
	Port        int
	Credentials FTPCredentials
	Timeout     time.Duration
	BodyCap     int
	Guard       netguard.Guard
}

// FTPProber opens one control connection per Probe call, logs in, issues
// RETR, and retrieves the file over a PASV data connection. Permission
// errors are not vulnerabilities; file-not-found is the negative signal.
type FTPProber struct {
	cfg FTPConfig
}

// NewFTPProber builds an FTPProber, defaulting credentials to anonymous.
func NewFTPProber(cfg FTPConfig) *FTPProber {
	if cfg.Credentials.Username == "" {
		cfg.Credentials = FTPCredentials{Username: "anonymous", Password: "dot@dot.pwn"}
	}
	return &FTPProber{cfg: cfg}
}

func (f *FTPProber) Probe(ctx context.Context, payload string) Outcome {
	start := time.Now()
	hostport := net.JoinHostPort(f.cfg.Host, strconv.Itoa(f.cfg.Port))
	endpoint := fmt.Sprintf("ftp://%s/%s", hostport, payload)

	dial := guardedDialer(f.cfg.Guard, f.cfg.Timeout)
	conn, err := dial(ctx, "tcp", hostport)
	if err != nil {
		return Outcome{Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolFTP,
			Elapsed: time.Since(start), Err: classifyTransportError(err)}
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else if f.cfg.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(f.cfg.Timeout))
	}

	r := bufio.NewReader(conn)

	if _, _, err := readFTPReply(r); err != nil { // banner
		return ftpError(payload, endpoint, start, err)
	}
	if err := ftpCommand(conn, r, "USER "+f.cfg.Credentials.Username, 2, 3); err != nil {
		return ftpError(payload, endpoint, start, err)
	}
	if err := ftpCommand(conn, r, "PASS "+f.cfg.Credentials.Password, 2); err != nil {
		return ftpError(payload, endpoint, start, err)
	}
	if err := ftpCommand(conn, r, "TYPE I", 2); err != nil {
		return ftpError(payload, endpoint, start, err)
	}

	dataAddr, err := ftpPassive(conn, r)
	if err != nil {
		return ftpError(payload, endpoint, start, err)
	}

	dataConn, err := dial(ctx, "tcp", dataAddr)
	if err != nil {
		return ftpError(payload, endpoint, start, err)
	}
	defer dataConn.Close()

	if _, err := fmt.Fprintf(conn, "RETR %s\r\n", payload); err != nil {
		return ftpError(payload, endpoint, start, err)
	}
	code, msg, err := readFTPReply(r)
	if err != nil {
		return ftpError(payload, endpoint, start, err)
	}
	if code >= 500 || code == 550 {
		return Outcome{
			Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolFTP,
			FTPPermErr: true, Elapsed: time.Since(start),
			Err: perrors.Newf(perrors.CodeProtocolError, "RETR rejected: %d %s", code, msg),
		}
	}

	body, _ := io.ReadAll(io.LimitReader(dataConn, int64(capReader(f.cfg.BodyCap))))

	finalCode, finalMsg, err := readFTPReply(r)
	if err != nil {
		return ftpError(payload, endpoint, start, err)
	}
	if finalCode >= 500 {
		return Outcome{
			Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolFTP,
			FTPPermErr: true, Elapsed: time.Since(start),
			Err: perrors.Newf(perrors.CodeProtocolError, "transfer failed: %d %s", finalCode, finalMsg),
		}
	}

	return Outcome{
		Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolFTP,
		Body: body, Elapsed: time.Since(start),
	}
}

func ftpError(payload, endpoint string, start time.Time, err error) Outcome {
	return Outcome{Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolFTP,
		Elapsed: time.Since(start), Err: classifyTransportError(err)}
}

// readFTPReply reads one (possibly multi-line) FTP reply and returns its
// code and final line.
func readFTPReply(r *bufio.Reader) (int, string, error) {
	var code int
	var line string
	for {
		raw, err := r.ReadString('\n')
		if err != nil {
			return 0, "", err
		}
		line = strings.TrimRight(raw, "\r\n")
		if len(line) < 4 {
			continue
		}
		parsed, perr := strconv.Atoi(line[:3])
		if perr != nil {
			continue
		}
		code = parsed
		if line[3] == ' ' {
			return code, line, nil
		}
		// line[3] == '-' marks a continuation line; keep reading until the
		// matching "code " final line arrives.
	}
}

func ftpCommand(conn net.Conn, r *bufio.Reader, cmd string, okPrefixes ...int) error {
	if _, err := fmt.Fprintf(conn, "%s\r\n", cmd); err != nil {
		return err
	}
	code, msg, err := readFTPReply(r)
	if err != nil {
		return err
	}
	for _, prefix := range okPrefixes {
		if code/100 == prefix {
			return nil
		}
	}
	return perrors.Newf(perrors.CodeProtocolError, "unexpected reply to %q: %s", cmd, msg)
}

// ftpPassive issues PASV and parses the h1,h2,h3,h4,p1,p2 tuple from the
// 227 reply into a dialable host:port.
func ftpPassive(conn net.Conn, r *bufio.Reader) (string, error) {
	if _, err := fmt.Fprintf(conn, "PASV\r\n"); err != nil {
		return "", err
	}
	code, msg, err := readFTPReply(r)
	if err != nil {
		return "", err
	}
	if code != 227 {
		return "", perrors.Newf(perrors.CodeProtocolError, "PASV failed: %s", msg)
	}

	open := strings.Index(msg, "(")
	closeIdx := strings.Index(msg, ")")
	if open < 0 || closeIdx < 0 || closeIdx <= open {
		return "", perrors.Newf(perrors.CodeProtocolError, "malformed PASV reply: %s", msg)
	}
	parts := strings.Split(msg[open+1:closeIdx], ",")
	if len(parts) != 6 {
		return "", perrors.Newf(perrors.CodeProtocolError, "malformed PASV tuple: %s", msg)
	}
	ip := strings.Join(parts[:4], ".")
	p1, err1 := strconv.Atoi(parts[4])
	p2, err2 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil {
		return "", perrors.Newf(perrors.CodeProtocolError, "malformed PASV port: %s", msg)
	}
	port := p1*256 + p2
	return net.JoinHostPort(ip, strconv.Itoa(port)), nil
}
