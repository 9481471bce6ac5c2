package store

import (
	"strings"
	"testing"
)

// Telegram-only accounts fill the unique phone/email columns with synthetic
// values. They must be distinct per telegram identity, or the second telegram
// signup would trip the unique constraints.
func TestTelegramPlaceholdersDistinctPerIdentity(t *testing.T) {
	if telegramPlaceholderPhone(42) == telegramPlaceholderPhone(43) {
		t.Fatal("phone placeholders collide across telegram identities")
	}
	if telegramPlaceholderEmail(42) == telegramPlaceholderEmail(43) {
		t.Fatal("email placeholders collide across telegram identities")
	}

	if got := telegramPlaceholderPhone(99); got != "tg_99" {
		t.Fatalf("unexpected phone placeholder %q", got)
	}
	if got := telegramPlaceholderEmail(99); got != "99@telegram.local" {
		t.Fatalf("unexpected email placeholder %q", got)
	}
}

// Phone search filters out placeholder numbers with a NOT LIKE 'tg\_%' guard,
// so the placeholder format must keep that prefix.
func TestTelegramPhonePlaceholderCarriesSearchPrefix(t *testing.T) {
	if !strings.HasPrefix(telegramPlaceholderPhone(7), "tg_") {
		t.Fatalf("placeholder %q lost the tg_ prefix the search filter relies on", telegramPlaceholderPhone(7))
	}
}
