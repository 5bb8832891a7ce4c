package hooks

import (
	"testing"
	"time"

	"github.com/hwhw/fastd/logging"
)

func TestVerifySucceedsAndFails(t *testing.T) {
	r := NewRunner(map[Event]string{
		EventVerify: "/bin/true",
	}, time.Second, logging.Discard{})
	if !r.Verify(Env{"PEER": "alice"}) {
		t.Fatal("expected /bin/true to verify successfully")
	}

	r2 := NewRunner(map[Event]string{
		EventVerify: "/bin/false",
	}, time.Second, logging.Discard{})
	if r2.Verify(Env{"PEER": "alice"}) {
		t.Fatal("expected /bin/false to deny verification")
	}
}

func TestVerifyMissingScriptDenies(t *testing.T) {
	r := NewRunner(nil, time.Second, logging.Discard{})
	if r.Verify(Env{}) {
		t.Fatal("expected no configured on_verify to deny by default")
	}
}

func TestFireSkipsUnconfiguredEvent(t *testing.T) {
	r := NewRunner(nil, time.Second, logging.Discard{})
	r.Fire(EventUp, Env{}) // must not panic or block
}
