package content

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// minLineWords is the shortest line kept; captions, bylines and menu
// fragments rarely exceed it.
const minLineWords = 5

// boilerplatePhrases mark promotional, subscription and share-widget lines.
var boilerplatePhrases = []string{
	"subscribe now",
	"sign up",
	"newsletter",
	"exclusive offer",
	"limited time offer",
	"free trial",
	"download now",
	"join now",
	"register today",
	"special promotion",
	"promotional offer",
	"discount code",
	"early access",
	"sneak peek",
	"save now",
	"don't miss out",
	"act now",
	"last chance",
	"expires soon",
	"giveaway",
	"free access",
	"premium access",
	"unlock full access",
	"buy now",
	"learn more",
	"click here",
	"follow us on",
	"share this article",
	"connect with us",
	"advertisement",
	"sponsored content",
	"partner content",
	"affiliate links",
	"for more information",
	"you may also like",
	"we think you'll like",
	"from our network",
}

// BoilerplatePhrases returns a copy of the built-in blocklist.
func BoilerplatePhrases() []string {
	return append([]string(nil), boilerplatePhrases...)
}

// Cleaner removes short and boilerplate lines from extracted text.
type Cleaner struct {
	phrases []string
	matcher *ahocorasick.Matcher
}

// NewCleaner builds a Cleaner matching the built-in blocklist plus extra,
// case-insensitively.
func NewCleaner(extra ...string) *Cleaner {
	seen := make(map[string]struct{}, len(boilerplatePhrases)+len(extra))
	phrases := make([]string, 0, len(boilerplatePhrases)+len(extra))
	for _, p := range append(BoilerplatePhrases(), extra...) {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}

	return &Cleaner{
		phrases: phrases,
		matcher: ahocorasick.NewStringMatcher(phrases),
	}
}

// Blocked reports whether line contains a blocked phrase.
func (c *Cleaner) Blocked(line string) bool {
	return len(c.matcher.Match([]byte(strings.ToLower(line)))) > 0
}

// Clean keeps trimmed lines with at least minLineWords words and no blocked
// phrase, joined by newlines.
func (c *Cleaner) Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(strings.Fields(line)) < minLineWords || c.Blocked(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
