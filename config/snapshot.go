// Package config builds immutable configuration snapshots from parsed
// settings (§9 design note: "Reimplementations should pass an immutable
// configuration snapshot into the scheduler at startup; reload builds a
// new snapshot and atomically replaces the reference at a quiescent
// point" — replacing fastd's process-wide mutable conf).
package config

import (
	"fmt"
	"time"

	"github.com/hwhw/fastd/peer"
)

// Mode selects Ethernet bridging (TAP) or IP routing (TUN), per §6.
type Mode int

const (
	ModeTAP Mode = iota
	ModeTUN
)

func (m Mode) String() string {
	if m == ModeTUN {
		return "tun"
	}
	return "tap"
}

// CipherMacImpl names one algorithm -> implementation mapping as accepted
// by the crypto primitive registry (§4.A: "impl selects implementation,
// e.g. hardware-accelerated vs portable").
type CipherMacImpl struct {
	Name string
	Impl string
}

// Snapshot is the immutable, fully-resolved configuration the scheduler
// runs with. It is built once at startup and rebuilt wholesale on reload;
// nothing in the core ever mutates a Snapshot in place.
type Snapshot struct {
	Interface string
	MTU       int
	Mode      Mode

	// Key is this node's own long-term private key, hex-encoded exactly
	// like a peer file's public key (§6 peer file format), read from the
	// main config's own `key` directive.
	Key string

	KeyValid          time.Duration
	KeyValidOld       time.Duration
	KeyRefresh        time.Duration
	KeyRefreshSplay   time.Duration
	KeepaliveTimeout  time.Duration
	PeerStaleTime     time.Duration
	EthAddrStaleTime  time.Duration
	MinHandshakeInterval time.Duration
	MinResolveInterval   time.Duration
	ReorderTime          time.Duration
	SecureHandshakes     bool
	MaintenanceInterval  time.Duration

	MethodList []string
	Ciphers    []CipherMacImpl
	MACs       []CipherMacImpl

	Binds []BindConfig

	RootGroup *peer.Group
	Peers     []*peer.Config

	Hooks map[string]string
}

// BindConfig is one configured UDP bind address (§6).
type BindConfig struct {
	Addr   string
	Device string
}

// Default returns a Snapshot populated with §6's documented defaults; the
// parser overlays config-file values onto a copy of this.
func Default() *Snapshot {
	return &Snapshot{
		MTU:                  1500,
		Mode:                 ModeTAP,
		KeyValid:             3600 * time.Second,
		KeyValidOld:          60 * time.Second,
		KeyRefresh:           3300 * time.Second,
		KeyRefreshSplay:      300 * time.Second,
		KeepaliveTimeout:     15 * time.Second,
		PeerStaleTime:        90 * time.Second,
		EthAddrStaleTime:     300 * time.Second,
		MinHandshakeInterval: 15 * time.Second,
		MinResolveInterval:   15 * time.Second,
		ReorderTime:          10 * time.Second,
		SecureHandshakes:     true,
		MaintenanceInterval:  10 * time.Second,
		RootGroup:            peer.NewRootGroup("default"),
		Hooks:                make(map[string]string),
	}
}

// Validate rejects a Snapshot that cannot safely start the event loop.
func (s *Snapshot) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("config: key is required")
	}
	if s.MTU <= 0 || s.MTU > 65535 {
		return fmt.Errorf("config: invalid mtu %d", s.MTU)
	}
	if len(s.MethodList) == 0 {
		return fmt.Errorf("config: method_list must not be empty")
	}
	if len(s.Binds) == 0 {
		return fmt.Errorf("config: at least one bind address is required")
	}
	if s.Mode == ModeTUN {
		floating := 0
		for _, p := range s.Peers {
			if p.Floating {
				floating++
			}
		}
		if len(s.Peers)-floating > 1 {
			return fmt.Errorf("config: tun mode supports at most one fixed peer")
		}
	}
	for _, p := range s.Peers {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
