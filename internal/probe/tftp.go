package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/nanragav/pathbreach/internal/netguard"
	"github.com/nanragav/pathbreach/internal/oracle"
	"github.com/nanragav/pathbreach/internal/perrors"
)

// TFTP opcodes (RFC 1350).
const (
	tftpOpRRQ   = 1
	tftpOpDATA  = 3
	tftpOpACK   = 4
	tftpOpERROR = 5
)

// tftpReadAheadBlocks bounds how many additional DATA blocks the prober
// ACKs and reads after the first, to build a larger body preview.
const tftpReadAheadBlocks = 4

const tftpDatagramCap = 65507

// TFTPConfig configures the TFTP prober. TFTP probes run with parallelism 1
// to preserve UDP port reuse across the control exchange.
type TFTPConfig struct {
	Host    string
	Port    int
	Timeout time.Duration
	BodyCap int
	Guard   netguard.Guard
}

// TFTPProber builds an RRQ packet per payload, reads the first DATA block,
// ACKs, and reads a small bounded number of additional blocks. A single
// receive timeout is fatal to that probe but not to the driver.
type TFTPProber struct {
	cfg TFTPConfig
}

// NewTFTPProber builds a TFTPProber.
func NewTFTPProber(cfg TFTPConfig) *TFTPProber {
	return &TFTPProber{cfg: cfg}
}

func (t *TFTPProber) Probe(ctx context.Context, payload string) Outcome {
	start := time.Now()
	hostport := net.JoinHostPort(t.cfg.Host, fmt.Sprintf("%d", t.cfg.Port))
	endpoint := fmt.Sprintf("tftp://%s/%s", hostport, payload)

	raddr, err := net.ResolveUDPAddr("udp", hostport)
	if err != nil {
		return tftpError(payload, endpoint, start, err)
	}
	if raddr.IP != nil && !t.cfg.Guard.Allow(raddr.IP) {
		return tftpError(payload, endpoint, start,
			perrors.Newf(perrors.CodeTransportRefused, "netguard: refusing to dial blocked address %s", hostport))
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return tftpError(payload, endpoint, start, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(t.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	rrq := buildRRQ(payload)
	if _, err := conn.Write(rrq); err != nil {
		return tftpError(payload, endpoint, start, err)
	}

	buf := make([]byte, tftpDatagramCap)
	n, err := conn.Read(buf)
	if err != nil {
		return tftpError(payload, endpoint, start, err)
	}
	opcode, rest, perr := parseTFTPPacket(buf[:n])
	if perr != nil {
		return tftpError(payload, endpoint, start, perr)
	}

	if opcode == tftpOpERROR {
		errCode, errMsg := parseTFTPError(rest)
		return Outcome{
			Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolTFTP,
			TFTPOpcode: tftpOpERROR, TFTPErrCode: errCode, Elapsed: time.Since(start),
			Err: perrors.Newf(perrors.CodeProtocolError, "TFTP error %d: %s", errCode, errMsg),
		}
	}
	if opcode != tftpOpDATA {
		return tftpError(payload, endpoint, start, perrors.Newf(perrors.CodeProtocolError, "unexpected TFTP opcode %d", opcode))
	}

	body := make([]byte, 0, capReader(t.cfg.BodyCap))
	blockNum, data := rest[0:2], rest[2:]
	body = append(body, data...)
	lastBlockFull := len(data) == 512

	for i := 0; i < tftpReadAheadBlocks && lastBlockFull && len(body) < capReader(t.cfg.BodyCap); i++ {
		ack := buildACK(blockNum)
		if _, err := conn.Write(ack); err != nil {
			break
		}
		n, err := conn.Read(buf)
		if err != nil {
			break
		}
		op, rest, perr := parseTFTPPacket(buf[:n])
		if perr != nil || op != tftpOpDATA {
			break
		}
		blockNum, data = rest[0:2], rest[2:]
		body = append(body, data...)
		lastBlockFull = len(data) == 512
	}

	// Final ACK for the last block we received, best effort.
	_, _ = conn.Write(buildACK(blockNum))

	if len(body) > capReader(t.cfg.BodyCap) {
		body = body[:capReader(t.cfg.BodyCap)]
	}

	return Outcome{
		Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolTFTP,
		TFTPOpcode: tftpOpDATA, Body: body, Elapsed: time.Since(start),
	}
}

func tftpError(payload, endpoint string, start time.Time, err error) Outcome {
	return Outcome{Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolTFTP,
		Elapsed: time.Since(start), Err: classifyTransportError(err)}
}

// buildRRQ lays out [opcode=1][filename\0]["octet"\0].
func buildRRQ(filename string) []byte {
	buf := make([]byte, 0, 4+len(filename)+6)
	buf = binary.BigEndian.AppendUint16(buf, tftpOpRRQ)
	buf = append(buf, filename...)
	buf = append(buf, 0)
	buf = append(buf, "octet"...)
	buf = append(buf, 0)
	return buf
}

func buildACK(blockNum []byte) []byte {
	buf := make([]byte, 0, 4)
	buf = binary.BigEndian.AppendUint16(buf, tftpOpACK)
	buf = append(buf, blockNum...)
	return buf
}

func parseTFTPPacket(pkt []byte) (opcode int, rest []byte, err error) {
	if len(pkt) < 4 {
		return 0, nil, perrors.New(perrors.CodeProtocolError, "TFTP packet too short")
	}
	return int(binary.BigEndian.Uint16(pkt[0:2])), pkt[2:], nil
}

func parseTFTPError(rest []byte) (code int, message string) {
	if len(rest) < 2 {
		return 0, ""
	}
	code = int(binary.BigEndian.Uint16(rest[0:2]))
	msg := rest[2:]
	if idx := bytes.IndexByte(msg, 0); idx >= 0 {
		msg = msg[:idx]
	}
	return code, string(msg)
}
