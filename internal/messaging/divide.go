package messaging

import (
	"golang.org/x/text/unicode/norm"
)

// Encoding is the alphabet a body is transmitted in.
type Encoding int

const (
	EncodingGSM7 Encoding = iota + 1
	EncodingUCS2
)

func (e Encoding) String() string {
	switch e {
	case EncodingGSM7:
		return "gsm7"
	case EncodingUCS2:
		return "ucs2"
	default:
		return "unknown"
	}
}

// DetectEncoding reports the encoding the NFC form of body requires.
func DetectEncoding(body string) Encoding {
	return detect([]rune(norm.NFC.String(body)))
}

func detect(runes []rune) Encoding {
	for _, r := range runes {
		if septets(r) == 0 {
			return EncodingUCS2
		}
	}
	return EncodingGSM7
}

// Divide splits body into the parts a multipart message is sent as. A body
// that fits a single message is returned as one part. Parts never split an
// escaped GSM character or a UTF-16 surrogate pair. Empty bodies yield no
// parts.
func Divide(body string) []string {
	if body == "" {
		return nil
	}
	runes := []rune(norm.NFC.String(body))

	cost := codeUnits
	single, limit := ucsSingleLimit, ucsPartLimit
	if detect(runes) == EncodingGSM7 {
		cost = septets
		single, limit = gsmSingleLimit, gsmPartLimit
	}

	total := 0
	for _, r := range runes {
		total += cost(r)
	}
	if total <= single {
		return []string{string(runes)}
	}

	var (
		parts []string
		start int
		used  int
	)
	for i, r := range runes {
		c := cost(r)
		if used+c > limit {
			parts = append(parts, string(runes[start:i]))
			start, used = i, 0
		}
		used += c
	}
	parts = append(parts, string(runes[start:]))
	return parts
}
