package randx

import (
	"strings"
	"testing"
)

func TestVerificationCodeShape(t *testing.T) {
	seen := make(map[string]bool)

	for n := 0; n < 50; n++ {
		code, err := VerificationCode()
		if err != nil {
			t.Fatalf("VerificationCode failed: %v", err)
		}
		if len(code) != VerificationCodeLength {
			t.Fatalf("expected %d digits, got %q", VerificationCodeLength, code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
		seen[code] = true
	}

	// 50 identical codes would mean the generator is broken.
	if len(seen) < 2 {
		t.Fatal("verification codes show no variation")
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("chats/9", "Photo.PNG")

	if !strings.HasPrefix(key, "chats/9/") {
		t.Fatalf("expected prefix chats/9/, got %q", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("expected lowercased extension, got %q", key)
	}
	if key == ObjectKey("chats/9", "Photo.PNG") {
		t.Fatal("two keys for the same file must not collide")
	}
}

func TestObjectKeyNoExtension(t *testing.T) {
	key := ObjectKey("chats/9", "README")
	if strings.Contains(key[len("chats/9/"):], ".") {
		t.Fatalf("expected no extension, got %q", key)
	}
}
