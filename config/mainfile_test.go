package config

import (
	"strings"
	"testing"
)

func TestParseMainBasic(t *testing.T) {
	input := `# comment
interface "fastd0";
mtu 1400;
mode tun;
key "` + strings.Repeat("ab", 32) + `";
bind "0.0.0.0:10000";
method "salsa20-gmac";
secure_handshakes yes;
peer_dir "/etc/fastd/peers";
key_valid 7200;
`
	s, err := ParseMain(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseMain: %v", err)
	}
	if s.Interface != "fastd0" || s.MTU != 1400 || s.Mode != ModeTUN {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if len(s.Binds) != 1 || s.Binds[0].Addr != "0.0.0.0:10000" {
		t.Fatalf("unexpected binds: %+v", s.Binds)
	}
	if len(s.MethodList) != 1 || s.MethodList[0] != "salsa20-gmac" {
		t.Fatalf("unexpected method list: %+v", s.MethodList)
	}
	if !s.SecureHandshakes {
		t.Fatal("expected secure_handshakes=true")
	}
	if len(s.RootGroup.PeerDirs) != 1 {
		t.Fatalf("unexpected peer dirs: %+v", s.RootGroup.PeerDirs)
	}
	if s.KeyValid.Seconds() != 7200 {
		t.Fatalf("unexpected key_valid: %v", s.KeyValid)
	}
}

func TestParseMainRejectsUnknownDirective(t *testing.T) {
	if _, err := ParseMain(strings.NewReader(`bogus value;`)); err == nil {
		t.Fatal("expected error for unknown directive")
	}
}
