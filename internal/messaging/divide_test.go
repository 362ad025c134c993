package messaging

import (
	"strings"
	"testing"
	"unicode/utf16"
)

func TestDivide(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantParts []string
		wantEnc   Encoding
	}{
		{name: "empty", body: "", wantParts: nil, wantEnc: EncodingGSM7},
		{name: "short", body: "hello", wantParts: []string{"hello"}, wantEnc: EncodingGSM7},
		{name: "gsm single limit", body: strings.Repeat("a", 160), wantParts: []string{strings.Repeat("a", 160)}, wantEnc: EncodingGSM7},
		{
			name:      "gsm overflow",
			body:      strings.Repeat("a", 161),
			wantParts: []string{strings.Repeat("a", 153), strings.Repeat("a", 8)},
			wantEnc:   EncodingGSM7,
		},
		{
			name:      "gsm exact two parts",
			body:      strings.Repeat("a", 306),
			wantParts: []string{strings.Repeat("a", 153), strings.Repeat("a", 153)},
			wantEnc:   EncodingGSM7,
		},
		{
			name:      "extension character counts double",
			body:      strings.Repeat("a", 80) + strings.Repeat("{", 41),
			wantParts: []string{strings.Repeat("a", 80) + strings.Repeat("{", 36), strings.Repeat("{", 5)},
			wantEnc:   EncodingGSM7,
		},
		{
			name:      "extension character never split",
			body:      strings.Repeat("a", 152) + "€" + strings.Repeat("b", 10),
			wantParts: []string{strings.Repeat("a", 152), "€" + strings.Repeat("b", 10)},
			wantEnc:   EncodingGSM7,
		},
		{name: "ucs2 single limit", body: strings.Repeat("ж", 70), wantParts: []string{strings.Repeat("ж", 70)}, wantEnc: EncodingUCS2},
		{
			name:      "ucs2 overflow",
			body:      strings.Repeat("ж", 71),
			wantParts: []string{strings.Repeat("ж", 67), strings.Repeat("ж", 4)},
			wantEnc:   EncodingUCS2,
		},
		{
			name:      "surrogate pair never split",
			body:      strings.Repeat("ж", 66) + "😀" + strings.Repeat("ж", 5),
			wantParts: []string{strings.Repeat("ж", 66), "😀" + strings.Repeat("ж", 5)},
			wantEnc:   EncodingUCS2,
		},
		{
			name:      "single non gsm rune switches alphabet",
			body:      strings.Repeat("a", 100) + "ж",
			wantParts: []string{strings.Repeat("a", 67), strings.Repeat("a", 33) + "ж"},
			wantEnc:   EncodingUCS2,
		},
		{
			name:      "combining marks are composed first",
			body:      strings.Repeat("e\u0301", 160),
			wantParts: []string{strings.Repeat("\u00e9", 160)},
			wantEnc:   EncodingGSM7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Divide(tt.body)
			if len(got) != len(tt.wantParts) {
				t.Fatalf("got %d parts, want %d", len(got), len(tt.wantParts))
			}
			for i := range got {
				if got[i] != tt.wantParts[i] {
					t.Fatalf("part %d = %q, want %q", i, got[i], tt.wantParts[i])
				}
			}
			if enc := DetectEncoding(tt.body); enc != tt.wantEnc {
				t.Fatalf("encoding = %s, want %s", enc, tt.wantEnc)
			}
		})
	}
}

func TestDividePartsRespectLimits(t *testing.T) {
	bodies := []string{
		strings.Repeat("The quick brown fox [jumps] over the lazy dog. ", 20),
		strings.Repeat("Привет, мир! 🌍 ", 30),
	}
	for _, body := range bodies {
		parts := Divide(body)
		if len(parts) < 2 {
			t.Fatalf("expected a multipart body, got %d parts", len(parts))
		}
		enc := DetectEncoding(body)
		for i, part := range parts {
			var size, limit int
			if enc == EncodingGSM7 {
				for _, r := range part {
					size += septets(r)
				}
				limit = gsmPartLimit
			} else {
				size = len(utf16.Encode([]rune(part)))
				limit = ucsPartLimit
			}
			if size > limit {
				t.Fatalf("part %d has size %d over limit %d", i, size, limit)
			}
		}
		if strings.Join(parts, "") != body {
			t.Fatal("parts do not reassemble the body")
		}
	}
}
