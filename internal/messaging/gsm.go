package messaging

const (
	gsmSingleLimit = 160
	gsmPartLimit   = 153
	ucsSingleLimit = 70
	ucsPartLimit   = 67
)

// gsmBasic is the GSM 03.38 default alphabet without the escape code.
const gsmBasic = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"

// gsmExtension characters are sent as escape + code and cost two septets.
const gsmExtension = "\f^{}\\[~]|€"

var (
	gsmBasicSet     = runeSet(gsmBasic)
	gsmExtensionSet = runeSet(gsmExtension)
)

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// septets reports the GSM 7-bit cost of r, or 0 when r is not encodable.
func septets(r rune) int {
	if _, ok := gsmBasicSet[r]; ok {
		return 1
	}
	if _, ok := gsmExtensionSet[r]; ok {
		return 2
	}
	return 0
}

// codeUnits reports the UTF-16 length of r.
func codeUnits(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}
