// Package codes generates and parses referral and promo codes.
package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	alphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ReferralPrefix = "OXUDOCX_"
)

func random(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand: %v", err))
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}

func Referral() string {
	return ReferralPrefix + random(6)
}

func Promo() string {
	return random(8)
}

// FromStart returns the referral code passed as "/start CODE", if any.
func FromStart(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "/start") {
		return ""
	}
	code := strings.ToUpper(fields[1])
	if !strings.HasPrefix(code, ReferralPrefix) {
		return ""
	}
	return code
}

// NormalizePromo upper-cases a user-typed promo code and rejects obvious junk.
func NormalizePromo(text string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(text))
	if code == "" || len(code) > 32 || strings.ContainsAny(code, " \t\n") {
		return "", false
	}
	return code, true
}

func Link(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", strings.TrimPrefix(botUsername, "@"), code)
}
