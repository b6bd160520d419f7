// Package classifier turns raw telegraph items into ledger-ready entries.
package classifier

import (
	"regexp"
	"strings"
	"time"

	"github.com/taylorhuo194-ai/Newspaper/internal/telegraph"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Classify maps one raw item to the ledger it belongs in and the entry to
// append there. The item is bucketed by its own timestamp, not by when
// the batch is processed, so late-arriving pre-boundary items still land
// in the file of the day they occurred in. A zero timestamp resolves to
// the epoch's business day rather than failing.
func Classify(item telegraph.RawItem) (telegraph.LedgerKey, telegraph.Entry) {
	at := time.Unix(item.Timestamp, 0).In(telegraph.Beijing)
	tier, top := telegraph.TierOf(item.Level)

	key := telegraph.LedgerKey{Day: telegraph.DayOf(at), Tier: tier}
	entry := telegraph.Entry{
		Time:        at.Format("15:04"),
		Text:        CleanText(mergeTitle(item.Title, item.Content)),
		TopPriority: top,
	}
	return key, entry
}

// mergeTitle prefixes the content with a bracketed title. Upstream
// sometimes embeds the bracketed title in the content already; only that
// form suppresses the prefix, so a short title that merely appears
// somewhere in the text does not.
func mergeTitle(title, content string) string {
	if title == "" {
		return content
	}
	tagged := "【" + title + "】"
	if strings.Contains(content, tagged) {
		return content
	}
	return tagged + content
}

// CleanText normalizes upstream text for storage and dedup: markup tags
// are stripped, the common HTML entities decoded, and all whitespace runs
// (including embedded line breaks) collapsed to single spaces.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = tagRe.ReplaceAllString(text, "")
	text = strings.NewReplacer("&nbsp;", " ", "&gt;", ">", "&lt;", "<").Replace(text)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
