package tagger

import "testing"

func TestInferLanguageDetectsEnglish(t *testing.T) {
	body := "This invoice is due for payment within thirty days of the date shown above. " +
		"Please remit payment to the address on file and contact billing with any questions."
	lang, ok := inferLanguage(body)
	if !ok {
		t.Fatal("expected a language to be detected for a long English passage")
	}
	if lang != "en" {
		t.Fatalf("expected en, got %q", lang)
	}
}

func TestInferLanguageDetectsGerman(t *testing.T) {
	body := "Diese Rechnung ist innerhalb von dreissig Tagen nach dem oben angegebenen Datum " +
		"zur Zahlung faellig. Bitte ueberweisen Sie den Betrag auf das angegebene Konto."
	lang, ok := inferLanguage(body)
	if !ok {
		t.Fatal("expected a language to be detected for a long German passage")
	}
	if lang != "de" {
		t.Fatalf("expected de, got %q", lang)
	}
}

func TestInferLanguageReturnsFalseOnEmptyBody(t *testing.T) {
	if _, ok := inferLanguage(""); ok {
		t.Fatal("expected no language detection on an empty body")
	}
}
