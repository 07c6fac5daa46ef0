package messages

import (
	"strings"
	"testing"

	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1 000",
		125000:   "125 000",
		1234567:  "1 234 567",
		-5000:    "-5 000",
		10000000: "10 000 000",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(in))
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; &quot;c&quot;", Escape(` a <b> & "c" `))
}

func TestTextsFollowLanguage(t *testing.T) {
	assert.Contains(t, Sum(i18n.UZ, 5000), "so'm")
	assert.Contains(t, Sum(i18n.RU, 5000), "сум")
	assert.Equal(t, "5 000 UZS", Sum(i18n.EN, 5000))

	for _, lang := range i18n.All() {
		assert.NotEmpty(t, ErrorSessionExpired(lang))
		assert.NotEqual(t, ErrorSessionExpired(lang), ErrorAlreadyProcessed(lang))
	}
	assert.Contains(t, ErrorSessionExpired(i18n.EN), "expired")
	assert.Contains(t, ErrorSessionExpired(i18n.Lang("xx")), "Sessiya")
}

func TestBalanceText(t *testing.T) {
	got := BalanceText(i18n.EN, 12000, 5000)
	assert.Contains(t, got, "12 000 UZS")
	assert.True(t, strings.HasSuffix(got, " 2"))

	assert.True(t, strings.HasSuffix(BalanceText(i18n.EN, 12000, 0), " 0"))
}

func TestBatchDone(t *testing.T) {
	assert.Contains(t, BatchDone(i18n.EN, 3, 3), "Done")
	assert.Contains(t, BatchDone(i18n.EN, 2, 3), "2 / 3")
}

func TestInvoiceDescriptionMentionsCapturedBalance(t *testing.T) {
	assert.NotContains(t, InvoiceDescription(i18n.EN, 2, 0), "balance")
	assert.Contains(t, InvoiceDescription(i18n.EN, 2, 3000), "From balance: 3 000 UZS")
}

func TestFileFailedEscapesName(t *testing.T) {
	assert.Contains(t, FileFailed(i18n.EN, "<x>.docx"), "&lt;x&gt;.docx")
}
