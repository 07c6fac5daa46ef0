package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromLanguageCode(t *testing.T) {
	cases := map[string]Lang{
		"ru":    RU,
		"ru-RU": RU,
		"EN-us": EN,
		"uz":    UZ,
		"de":    UZ,
		"":      UZ,
	}
	for code, want := range cases {
		assert.Equal(t, want, FromLanguageCode(code), code)
	}
}

func TestParseAndLookup(t *testing.T) {
	assert.Equal(t, RU, Parse(" RU "))
	assert.Equal(t, UZ, Parse("fr"))

	l, ok := Lookup("en")
	assert.True(t, ok)
	assert.Equal(t, EN, l)

	_, ok = Lookup("english")
	assert.False(t, ok)
}
