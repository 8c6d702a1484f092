package buybot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmojiLine(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		want  string
	}{
		{"below one emoji still shows one", 3, buyEmoji},
		{"exact multiples", 30, strings.Repeat(buyEmoji, 3)},
		{"rounds down", 39, strings.Repeat(buyEmoji, 3)},
		{"at the cap", 200, strings.Repeat(buyEmoji, 20)},
		{"over the cap gets a suffix", 275, strings.Repeat(buyEmoji, 20) + " +7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, emojiLine(tt.total, 10))
		})
	}
}

func TestEmojiLineZeroDollarsPerEmoji(t *testing.T) {
	// Misconfigured divisor falls back instead of dividing by zero.
	assert.Equal(t, strings.Repeat(buyEmoji, 5), emojiLine(50, 0))
}

func TestCaption(t *testing.T) {
	p := Purchase{
		PurchaseTotal: 123.456,
		CoinAmount:    0.5,
		TokenAmount:   100000,
		PricePerCoin:  0.001234,
		WalletAddress: "WaLLet123",
		NativeTxHash:  "TxHash456",
	}
	br := Branding{
		TokenSymbol:   "JOGE",
		WebsiteURL:    "https://example.org/",
		CommunityURL:  "https://t.me/example",
		TwitterURL:    "https://x.com/example",
		WhitepaperURL: "https://example.org/wp.pdf",
	}

	caption := Caption(p, br, 10)

	assert.Contains(t, caption, `<a href="https://t.me/example">$JOGE Buy!</a>`)
	assert.Contains(t, caption, "$123.46 (0.5 SOL)")
	assert.Contains(t, caption, "100000 JOGE")
	assert.Contains(t, caption, "https://solscan.io/account/WaLLet123")
	assert.Contains(t, caption, "https://solscan.io/tx/TxHash456")
	assert.Contains(t, caption, "Price $0.001234")
	assert.Contains(t, caption, `<a href="https://example.org/">Website</a>`)
	assert.Contains(t, caption, strings.Repeat(buyEmoji, 12))
}
