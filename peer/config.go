// Package peer owns peer configuration, runtime peer records, and the
// lookup tables that demultiplex inbound UDP datagrams to them (§3 "Peer
// configuration"/"Peer", §4.E).
package peer

import (
	"fmt"

	"github.com/hwhw/fastd/domain/peeraddr"
)

// Remote is one resolvable or literal endpoint listed in a peer's config.
// Hostname resolution itself is an external collaborator (§6); Remote only
// carries what was written in the config/peer file.
type Remote struct {
	Hostname string // empty if Addr is a literal
	Addr     peeraddr.Address
	Port     uint16
}

// Group is a node in the peer-group tree (§3 "Peer group"): a root group
// owns children and peer-directory sources; each group caps concurrent
// connections.
type Group struct {
	Name           string
	Parent         *Group
	Children       []*Group
	PeerDirs       []string
	MaxConnections int // -1 = unlimited
}

// NewRootGroup creates an unlimited top-level group.
func NewRootGroup(name string) *Group {
	return &Group{Name: name, MaxConnections: -1}
}

// AddChild appends a child group under g.
func (g *Group) AddChild(child *Group) {
	child.Parent = g
	g.Children = append(g.Children, child)
}

// Config is the static, file-derived description of one peer (§3 "Peer
// configuration"). Config values never mutate in place; a reload produces
// new Config values and a diff decides what to create/destroy.
type Config struct {
	Name      string
	Remotes   []Remote
	PublicKey []byte // 32-byte Curve25519 point
	Group     *Group
	SourceDir string // peer-dir path, for reload diffing; empty for inline config peers
	SourceKey string // identifies this config across reloads (filename or inline name)
	Floating  bool
}

// Validate rejects configs that cannot possibly produce a usable peer.
func (c *Config) Validate() error {
	if len(c.PublicKey) != 32 {
		return fmt.Errorf("peer %q: public key must be 32 bytes, got %d", c.Name, len(c.PublicKey))
	}
	if !c.Floating && len(c.Remotes) == 0 {
		return fmt.Errorf("peer %q: non-floating peer needs at least one remote", c.Name)
	}
	return nil
}

// Key returns the config's stable identity across reload diffing: the
// peer-dir source path if set, otherwise the inline name.
func (c *Config) Key() string {
	if c.SourceKey != "" {
		return c.SourceKey
	}
	return c.Name
}
