// Package textutil provides small pure text helpers for the chat view.
package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/graphemes"
)

// emojiRanges covers the blocks a single-grapheme reaction can start in.
// ZWJ sequences, skin tone modifiers and variation selectors still form one
// grapheme cluster, so checking the leading rune is enough.
var emojiRanges = [][2]rune{
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F680, 0x1F6FF}, // transport & map
	{0x1F900, 0x1F9FF}, // supplemental symbols
	{0x1FA70, 0x1FAFF}, // symbols & pictographs extended-A
	{0x1F1E6, 0x1F1FF}, // regional indicators (flags)
	{0x2600, 0x26FF},   // miscellaneous symbols
	{0x2700, 0x27BF},   // dingbats
	{0x2B00, 0x2BFF},   // arrows & stars (⭐, ⬆)
	{0x2190, 0x21FF},   // arrows
	{0x2764, 0x2764},   // heavy black heart
	{0xFE0F, 0xFE0F},   // variation selector
}

func isEmojiRune(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// IsSingleEmoji reports whether s, once trimmed, is exactly one emoji
// grapheme cluster. A delta like "😀 hi" is not; "👍🏽" (emoji + modifier,
// one cluster) is. Operates on decoded runes, never raw bytes.
func IsSingleEmoji(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	tokens := graphemes.FromString(s)
	count := 0
	var first string
	for tokens.Next() {
		count++
		if count == 1 {
			first = tokens.Value()
		}
		if count > 1 {
			return false
		}
	}
	if count != 1 {
		return false
	}

	r, _ := utf8.DecodeRuneInString(first)
	return isEmojiRune(r)
}
