package hash

import "testing"

func TestPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	passwords := []string{
		"password123",
		"correct horse battery staple",
		"p@$$w0rd!ü",
		"a",
	}

	for _, p := range passwords {
		h, err := Password(p)
		if err != nil {
			t.Fatalf("Password(%q) error: %v", p, err)
		}

		if !Verify(p, h) {
			t.Fatalf("Verify(%q, hash) = false, want true", p)
		}
		if Verify(p+"x", h) {
			t.Fatalf("Verify with wrong password = true, want false")
		}
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	if Verify("password123", []byte("not-a-bcrypt-hash")) {
		t.Fatal("Verify with malformed hash = true, want false")
	}
	if Verify("password123", nil) {
		t.Fatal("Verify with nil hash = true, want false")
	}
}

func TestPassword_Salted(t *testing.T) {
	t.Parallel()

	h1, err := Password("password123")
	if err != nil {
		t.Fatalf("Password error: %v", err)
	}
	h2, err := Password("password123")
	if err != nil {
		t.Fatalf("Password error: %v", err)
	}

	if string(h1) == string(h2) {
		t.Fatal("two hashes of the same password are identical, salt missing")
	}
}
