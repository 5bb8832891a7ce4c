package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseMain reads the top-level configuration file into a Snapshot seeded
// with Default()'s values. It covers the subset of directives the core
// itself needs (§6 "Configuration... key knobs that affect the core");
// full grammar details (conditionals, nested blocks) belong to the
// external config parser this core is deliberately decoupled from (§1
// Non-goals).
func ParseMain(r io.Reader) (*Snapshot, error) {
	s := Default()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := applyMainFileLine(s, line); err != nil {
			return nil, fmt.Errorf("config %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

func applyMainFileLine(s *Snapshot, line string) error {
	line = strings.TrimSuffix(line, ";")
	kw, rest, ok := strings.Cut(line, " ")
	if !ok {
		kw, rest = line, ""
	}
	rest = strings.TrimSpace(rest)

	switch kw {
	case "interface":
		v, err := unquote(rest)
		if err != nil {
			return fmt.Errorf("interface: %w", err)
		}
		s.Interface = v

	case "mtu":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("mtu: %w", err)
		}
		s.MTU = n

	case "mode":
		switch rest {
		case "tap":
			s.Mode = ModeTAP
		case "tun":
			s.Mode = ModeTUN
		default:
			return fmt.Errorf("mode: unknown mode %q", rest)
		}

	case "key":
		v, err := unquote(rest)
		if err != nil {
			return fmt.Errorf("key: %w", err)
		}
		s.Key = v

	case "bind":
		addr, err := unquote(rest)
		if err != nil {
			return fmt.Errorf("bind: %w", err)
		}
		s.Binds = append(s.Binds, BindConfig{Addr: addr})

	case "method":
		v, err := unquote(rest)
		if err != nil {
			return fmt.Errorf("method: %w", err)
		}
		s.MethodList = append(s.MethodList, v)

	case "secure_handshakes":
		s.SecureHandshakes = rest == "yes"

	case "peer_dir":
		v, err := unquote(rest)
		if err != nil {
			return fmt.Errorf("peer_dir: %w", err)
		}
		s.RootGroup.PeerDirs = append(s.RootGroup.PeerDirs, v)

	case "key_valid":
		return applyDurationSeconds(rest, &s.KeyValid)
	case "key_valid_old":
		return applyDurationSeconds(rest, &s.KeyValidOld)
	case "key_refresh":
		return applyDurationSeconds(rest, &s.KeyRefresh)
	case "key_refresh_splay":
		return applyDurationSeconds(rest, &s.KeyRefreshSplay)
	case "keepalive_timeout":
		return applyDurationSeconds(rest, &s.KeepaliveTimeout)
	case "peer_stale_time":
		return applyDurationSeconds(rest, &s.PeerStaleTime)
	case "eth_addr_stale_time":
		return applyDurationSeconds(rest, &s.EthAddrStaleTime)
	case "min_handshake_interval":
		return applyDurationSeconds(rest, &s.MinHandshakeInterval)
	case "min_resolve_interval":
		return applyDurationSeconds(rest, &s.MinResolveInterval)
	case "reorder_time":
		return applyDurationSeconds(rest, &s.ReorderTime)

	case "on_pre_up", "on_up", "on_down", "on_post_down",
		"on_connect", "on_establish", "on_disestablish", "on_verify":
		v, err := unquote(rest)
		if err != nil {
			return fmt.Errorf("%s: %w", kw, err)
		}
		s.Hooks[kw] = v

	default:
		return fmt.Errorf("unknown directive %q", kw)
	}
	return nil
}

func applyDurationSeconds(rest string, dst *time.Duration) error {
	n, err := strconv.Atoi(rest)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", rest, err)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}
