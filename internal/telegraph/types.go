package telegraph

import "strings"

// RawItem is one telegraph item as delivered by the upstream source.
// The producer owns it for the duration of a single pipeline invocation.
type RawItem struct {
	Timestamp int64  `json:"ctime"`
	Level     string `json:"level"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// Tier is the importance classification of an item. It selects which
// ledger the item lands in.
type Tier int

const (
	TierGeneral Tier = iota
	TierMajor
)

// Label is the tier name used in ledger file names.
func (t Tier) Label() string {
	if t == TierMajor {
		return "Major"
	}
	return "General"
}

// Headline is the tier name used inside the ledger header.
func (t Tier) Headline() string {
	if t == TierMajor {
		return "重磅"
	}
	return "普通"
}

// TierOf maps an upstream importance level code to a tier plus the
// top-priority flag. The code is matched case-insensitively; anything
// other than "A" or "B" (including an absent level) is General.
func TierOf(level string) (tier Tier, topPriority bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "A":
		return TierMajor, true
	case "B":
		return TierMajor, false
	default:
		return TierGeneral, false
	}
}

// LedgerKey identifies exactly one persisted ledger.
type LedgerKey struct {
	Day  Day
	Tier Tier
}

// Entry is the unit appended to a ledger: a clock-face time, the cleaned
// item text, and whether the item is top priority.
type Entry struct {
	Time        string
	Text        string
	TopPriority bool
}

// Line renders the entry as a single ledger line. Top-priority entries
// carry the red marker and bold emphasis; everything else is plain.
func (e Entry) Line() string {
	if e.TopPriority {
		return "**[" + e.Time + "]** 🔴 **" + e.Text + "**"
	}
	return "**[" + e.Time + "]** " + e.Text
}
