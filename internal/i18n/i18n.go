package i18n

import "strings"

type Lang string

const (
	UZ Lang = "uz"
	RU Lang = "ru"
	EN Lang = "en"
)

// Default is used when nothing is known about the user.
const Default = UZ

func All() []Lang {
	return []Lang{UZ, RU, EN}
}

// FromLanguageCode maps a Telegram language_code such as "ru-RU".
func FromLanguageCode(code string) Lang {
	code = strings.ToLower(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(code, "ru"):
		return RU
	case strings.HasPrefix(code, "en"):
		return EN
	default:
		return Default
	}
}

func Parse(s string) Lang {
	l, ok := Lookup(s)
	if !ok {
		return Default
	}
	return l
}

// Lookup reports whether s names a supported language.
func Lookup(s string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case UZ:
		return UZ, true
	case RU:
		return RU, true
	case EN:
		return EN, true
	default:
		return "", false
	}
}
