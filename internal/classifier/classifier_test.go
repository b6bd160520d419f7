package classifier

import (
	"testing"
	"time"

	"github.com/taylorhuo194-ai/Newspaper/internal/telegraph"
)

func TestClassify(t *testing.T) {
	// 2023-10-02 04:00 Beijing: before the 05:30 boundary, so the item
	// belongs to the 2023-10-01 business day.
	nightTS := time.Date(2023, time.October, 2, 4, 0, 0, 0, telegraph.Beijing).Unix()

	tests := []struct {
		name     string
		item     telegraph.RawItem
		wantDay  string
		wantTier telegraph.Tier
		wantLine string
	}{
		{
			name:     "top priority routed to previous business day",
			item:     telegraph.RawItem{Timestamp: nightTS, Level: "A", Title: "T", Content: "T body"},
			wantDay:  "2023-10-01",
			wantTier: telegraph.TierMajor,
			wantLine: "**[04:00]** 🔴 **【T】T body**",
		},
		{
			name:     "level B is major without emphasis",
			item:     telegraph.RawItem{Timestamp: nightTS, Level: "B", Content: "markets moved"},
			wantDay:  "2023-10-01",
			wantTier: telegraph.TierMajor,
			wantLine: "**[04:00]** markets moved",
		},
		{
			name:     "unknown level falls back to general",
			item:     telegraph.RawItem{Timestamp: nightTS, Level: "Z", Content: "minor note"},
			wantDay:  "2023-10-01",
			wantTier: telegraph.TierGeneral,
			wantLine: "**[04:00]** minor note",
		},
		{
			name:     "absent level falls back to general",
			item:     telegraph.RawItem{Timestamp: nightTS, Content: "minor note"},
			wantDay:  "2023-10-01",
			wantTier: telegraph.TierGeneral,
			wantLine: "**[04:00]** minor note",
		},
		{
			name:     "bracketed title already in content is not repeated",
			item:     telegraph.RawItem{Timestamp: nightTS, Level: "B", Title: "Oil", Content: "【Oil】Oil prices rise"},
			wantDay:  "2023-10-01",
			wantTier: telegraph.TierMajor,
			wantLine: "**[04:00]** 【Oil】Oil prices rise",
		},
		{
			name:     "title as plain substring still gets prefixed",
			item:     telegraph.RawItem{Timestamp: nightTS, Level: "B", Title: "Oil", Content: "Oil prices rise"},
			wantDay:  "2023-10-01",
			wantTier: telegraph.TierMajor,
			wantLine: "**[04:00]** 【Oil】Oil prices rise",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, entry := Classify(tt.item)
			if got := key.Day.String(); got != tt.wantDay {
				t.Errorf("day = %s, want %s", got, tt.wantDay)
			}
			if key.Tier != tt.wantTier {
				t.Errorf("tier = %v, want %v", key.Tier, tt.wantTier)
			}
			if got := entry.Line(); got != tt.wantLine {
				t.Errorf("line = %q, want %q", got, tt.wantLine)
			}
		})
	}
}

func TestClassify_ZeroTimestamp(t *testing.T) {
	key, _ := Classify(telegraph.RawItem{Content: "no time"})
	// The epoch is 1970-01-01 08:00 Beijing, past the 05:30 boundary.
	if got := key.Day.String(); got != "1970-01-01" {
		t.Errorf("day = %s, want 1970-01-01", got)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"strips tags", "<b>bold</b> move", "bold move"},
		{"decodes entities", "a&nbsp;&gt;&nbsp;b&nbsp;&lt;&nbsp;c", "a > b < c"},
		{"collapses whitespace", "one\n two\r\n\tthree   four", "one two three four"},
		{"trims", "  padded  ", "padded"},
		{"mixed", " <p>line one</p>\n<p>line&nbsp;two</p> ", "line one line two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
