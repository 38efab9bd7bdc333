// Package parser extracts structured tokens from raw game result messages:
// game number, total points, the two parenthesized card groups and the
// pending/finalized status glyphs. All functions are pure; missing fields
// are reported as zero values, never as errors.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// HighRanks are the figure ranks that count as strong signals.
var HighRanks = []string{"A", "K", "Q", "J"}

// QueenRank is the rank whose appearance in the primary group is the
// predicted outcome.
const QueenRank = "Q"

var (
	gameNumberRe    = regexp.MustCompile(`(?i)#N(\d+)\.`)
	gameNumberAltRe = regexp.MustCompile(`🔵(\d+)🔵`)
	totalPointsRe   = regexp.MustCompile(`#T(\d+)`)
	groupRe         = regexp.MustCompile(`\(([^)]*)\)`)
	cardRe          = regexp.MustCompile(`(?i)(\d+|[AKQJ])(♠️|♥️|♦️|♣️)`)
	rankRe          = regexp.MustCompile(`(?i)^(\d+|[AKQJ])`)
	tagRe           = regexp.MustCompile(`\b[OR]\b`)
)

var (
	pendingGlyphs   = []string{"🕐", "⏰"}
	completedGlyphs = []string{"✅", "🔰"}
)

// Card is a single rank+suit token extracted from a group.
type Card struct {
	Rank string
	Suit string
}

func (c Card) String() string { return c.Rank + c.Suit }

// Message is the parsed view of one raw text message.
type Message struct {
	GameNumber     int
	HasGameNumber  bool
	TotalPoints    int
	HasTotalPoints bool
	Primary        []Card // first parenthesized group
	Secondary      []Card // second parenthesized group
	Pending        bool
	Finalized      bool
}

// Actionable reports whether the message can drive prediction or
// verification: it must carry a game number and be finalized, not pending.
func (m Message) Actionable() bool {
	return m.HasGameNumber && m.Finalized && !m.Pending
}

// Parse extracts every token group from text in one pass.
func Parse(text string) Message {
	m := Message{}
	m.GameNumber, m.HasGameNumber = GameNumber(text)
	m.TotalPoints, m.HasTotalPoints = TotalPoints(text)
	m.Primary, m.Secondary = Groups(text)
	m.Pending = containsAny(text, pendingGlyphs)
	m.Finalized = containsAny(text, completedGlyphs)
	return m
}

// GameNumber returns the game sequence number, matching either the
// "#N744." token or the bracketed "🔵744🔵" form.
func GameNumber(text string) (int, bool) {
	match := gameNumberRe.FindStringSubmatch(text)
	if match == nil {
		match = gameNumberAltRe.FindStringSubmatch(text)
	}
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// TotalPoints returns the "#T<digits>" point total. Absent totals are
// reported as (0, false); callers treat that as zero for thresholds.
func TotalPoints(text string) (int, bool) {
	match := totalPointsRe.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Groups returns the card tokens of the first two parenthesized groups,
// left to right. Missing groups yield empty slices.
func Groups(text string) (primary, secondary []Card) {
	matches := groupRe.FindAllStringSubmatch(text, 2)
	if len(matches) > 0 {
		primary = Cards(matches[0][1])
	}
	if len(matches) > 1 {
		secondary = Cards(matches[1][1])
	}
	return primary, secondary
}

// Cards extracts the non-overlapping rank+suit tokens from a group's
// content. The ❤️ heart variant is normalized to ♥️ before matching and
// letter ranks are uppercased.
func Cards(content string) []Card {
	normalized := strings.ReplaceAll(content, "❤️", "♥️")
	matches := cardRe.FindAllStringSubmatch(normalized, -1)
	cards := make([]Card, 0, len(matches))
	for _, m := range matches {
		cards = append(cards, Card{Rank: strings.ToUpper(m[1]), Suit: m[2]})
	}
	return cards
}

// Ranks returns the rank of every card, in order.
func Ranks(cards []Card) []string {
	ranks := make([]string, len(cards))
	for i, c := range cards {
		ranks[i] = c.Rank
	}
	return ranks
}

// FirstTwo returns the first two cards rendered as rank+suit strings, or
// nil when fewer than two cards are present. This is the trigger
// signature recorded in the sequential history.
func FirstTwo(cards []Card) []string {
	if len(cards) < 2 {
		return nil
	}
	return []string{cards[0].String(), cards[1].String()}
}

// RankOf extracts the leading rank from a rank+suit token string such as
// "Q♥️". Returns "" when the token does not start with a rank.
func RankOf(token string) string {
	match := rankRe.FindString(token)
	return strings.ToUpper(match)
}

// HasRank reports whether any card carries the given rank.
func HasRank(cards []Card, rank string) bool {
	for _, c := range cards {
		if c.Rank == rank {
			return true
		}
	}
	return false
}

// CountRank counts the cards carrying the given rank.
func CountRank(cards []Card, rank string) int {
	n := 0
	for _, c := range cards {
		if c.Rank == rank {
			n++
		}
	}
	return n
}

// HasStandaloneTag reports whether the text contains an "O" or "R" tag as
// a standalone word.
func HasStandaloneTag(text string) bool {
	return tagRe.MatchString(text)
}

func containsAny(text string, glyphs []string) bool {
	for _, g := range glyphs {
		if strings.Contains(text, g) {
			return true
		}
	}
	return false
}
