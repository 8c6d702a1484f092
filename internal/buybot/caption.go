package buybot

import (
	"fmt"
	"strings"
)

const (
	buyEmoji      = "🐶"
	maxEmojiCount = 20
)

// Branding is the static text and links woven into every buy announcement.
type Branding struct {
	TokenSymbol   string
	WebsiteURL    string
	CommunityURL  string
	TwitterURL    string
	WhitepaperURL string
}

// Caption renders the HTML caption for one purchase announcement.
// emojiDollars is how many dollars one emoji represents.
func Caption(p Purchase, br Branding, emojiDollars float64) string {
	return fmt.Sprintf(
		"<b><a href=\"%s\">$%s Buy!</a></b>\n"+
			"%s\n\n"+
			"💵  $%.2f (%v SOL)\n"+
			"%s  %v %s\n"+
			"🧾  <b><a href=\"https://solscan.io/account/%s\">Buyer</a></b> | "+
			"<b><a href=\"https://solscan.io/tx/%s\">Tx</a></b>\n"+
			"📈  Price $%.6f\n\n"+
			"<b><a href=\"%s\">Website</a></b> - "+
			"<b><a href=\"%s\">X(Twitter)</a></b> - "+
			"<b><a href=\"%s\">Whitepaper</a></b>",
		br.CommunityURL, br.TokenSymbol,
		emojiLine(p.PurchaseTotal, emojiDollars),
		p.PurchaseTotal, p.CoinAmount,
		buyEmoji, p.TokenAmount, br.TokenSymbol,
		p.WalletAddress,
		p.NativeTxHash,
		p.PricePerCoin,
		br.WebsiteURL,
		br.TwitterURL,
		br.WhitepaperURL,
	)
}

// emojiLine scales the buy size into a row of emoji: one per emojiDollars of
// purchase value, minimum one, capped at maxEmojiCount with a numeric
// overflow suffix.
func emojiLine(purchaseTotal, emojiDollars float64) string {
	if emojiDollars <= 0 {
		emojiDollars = 10
	}
	count := int(purchaseTotal / emojiDollars)
	if count < 1 {
		count = 1
	}
	if count <= maxEmojiCount {
		return strings.Repeat(buyEmoji, count)
	}
	return strings.Repeat(buyEmoji, maxEmojiCount) + fmt.Sprintf(" +%d", count-maxEmojiCount)
}
