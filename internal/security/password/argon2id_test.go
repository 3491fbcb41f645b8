package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	phc, err := Hash(Default, "s3cret-pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !Verify("s3cret-pass", phc) {
		t.Fatal("expected verify to succeed with correct password")
	}
	if Verify("wrong-pass", phc) {
		t.Fatal("expected verify to fail with wrong password")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$ZGs",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$ZGs",
		"$argon2id$v=19$m=65536,t=3,p=1$!!!$ZGs",
	} {
		if Verify("whatever", phc) {
			t.Fatalf("expected verify to fail for %q", phc)
		}
	}
}

func TestHashEmptyPassword(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}
