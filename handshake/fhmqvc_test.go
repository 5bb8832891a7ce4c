package handshake

import "testing"

func TestFHMQVCombinerAgrees(t *testing.T) {
	initiatorStatic, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	responderStatic, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	initiatorEphemeral, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	responderEphemeral, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	sigmaI, err := CombineInitiator(
		initiatorEphemeral.Private, initiatorStatic.Private,
		initiatorEphemeral.Public, initiatorStatic.Public,
		responderEphemeral.Public, responderStatic.Public,
	)
	if err != nil {
		t.Fatalf("CombineInitiator: %v", err)
	}

	sigmaR, err := CombineResponder(
		responderEphemeral.Private, responderStatic.Private,
		responderEphemeral.Public, responderStatic.Public,
		initiatorEphemeral.Public, initiatorStatic.Public,
	)
	if err != nil {
		t.Fatalf("CombineResponder: %v", err)
	}

	if sigmaI.Equal(sigmaR) != 1 {
		t.Fatalf("initiator and responder combiners disagree:\n I=%x\n R=%x", sigmaI.Bytes(), sigmaR.Bytes())
	}
}

func TestFHMQVDifferentEphemeralsDiffer(t *testing.T) {
	is, _ := GenerateKeyPair()
	rs, _ := GenerateKeyPair()
	ie1, _ := GenerateKeyPair()
	ie2, _ := GenerateKeyPair()
	re, _ := GenerateKeyPair()

	sigma1, err := CombineInitiator(ie1.Private, is.Private, ie1.Public, is.Public, re.Public, rs.Public)
	if err != nil {
		t.Fatalf("CombineInitiator: %v", err)
	}
	sigma2, err := CombineInitiator(ie2.Private, is.Private, ie2.Public, is.Public, re.Public, rs.Public)
	if err != nil {
		t.Fatalf("CombineInitiator: %v", err)
	}
	if sigma1.Equal(sigma2) == 1 {
		t.Fatal("different ephemerals must not produce the same shared secret")
	}
}
