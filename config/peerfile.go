package config

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/hwhw/fastd/domain/peeraddr"
	"github.com/hwhw/fastd/peer"
)

// ParsePeerFile reads one peer-directory file (§6 "Peer file format":
// "key/value assignments... remote "host":port;, key "hex...";, float
// yes;. Blank lines and # comments tolerated"). name is used as the
// config's SourceKey for reload diffing.
func ParsePeerFile(r io.Reader, name string) (*peer.Config, error) {
	cfg := &peer.Config{Name: name, SourceKey: name}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := applyPeerFileLine(cfg, line); err != nil {
			return nil, fmt.Errorf("peer file %s:%d: %w", name, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("peer file %s: %w", name, err)
	}
	return cfg, nil
}

func applyPeerFileLine(cfg *peer.Config, line string) error {
	line = strings.TrimSuffix(strings.TrimSpace(line), ";")
	kw, rest, ok := strings.Cut(line, " ")
	if !ok {
		return fmt.Errorf("malformed statement %q", line)
	}
	rest = strings.TrimSpace(rest)

	switch kw {
	case "key":
		hexStr, err := unquote(rest)
		if err != nil {
			return fmt.Errorf("key: %w", err)
		}
		key, err := hex.DecodeString(hexStr)
		if err != nil {
			return fmt.Errorf("key: invalid hex: %w", err)
		}
		cfg.PublicKey = key

	case "float":
		val, err := unbareword(rest)
		if err != nil {
			return err
		}
		cfg.Floating = val == "yes"

	case "remote":
		r, err := parseRemote(rest)
		if err != nil {
			return fmt.Errorf("remote: %w", err)
		}
		cfg.Remotes = append(cfg.Remotes, r)

	default:
		return fmt.Errorf("unknown directive %q", kw)
	}
	return nil
}

// parseRemote handles `"host":port` and `"addr":port` forms (§6). A host
// part that parses as a literal IP address is stored as a concrete Addr
// rather than a Hostname, so a literal-address remote never has to round
// trip through the resolver collaborator just to learn what it already
// says in the config file.
func parseRemote(rest string) (peer.Remote, error) {
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return peer.Remote{}, fmt.Errorf(`expected "host":port, got %q`, rest)
	}
	hostPart, portPart := rest[:i], rest[i+1:]
	host, err := unquote(hostPart)
	if err != nil {
		return peer.Remote{}, err
	}
	port, err := strconv.ParseUint(strings.TrimSpace(portPart), 10, 16)
	if err != nil {
		return peer.Remote{}, fmt.Errorf("invalid port %q: %w", portPart, err)
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		addr := peeraddr.FromAddrPort(netip.AddrPortFrom(ip, uint16(port)))
		return peer.Remote{Addr: addr, Port: uint16(port)}, nil
	}
	return peer.Remote{Hostname: host, Port: uint16(port)}, nil
}

func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}
	return s[1 : len(s)-1], nil
}

func unbareword(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("expected a value")
	}
	return s, nil
}

// IsReloadIgnored reports whether a peer-dir filename should be skipped on
// reload scans (§6: "Trailing ~ filenames ignored on reload").
func IsReloadIgnored(filename string) bool {
	return strings.HasSuffix(filename, "~")
}
