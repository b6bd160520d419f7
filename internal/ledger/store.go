// Package ledger persists append-only per-(day, tier) markdown ledgers.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taylorhuo194-ai/Newspaper/internal/telegraph"
)

// FileStore keeps one markdown file per ledger key under a single
// directory. Files are created lazily with a header and only ever grow;
// committed lines are never rewritten, so a crash between header and
// first append leaves a valid header-only ledger.
type FileStore struct {
	dir    string
	prefix string
}

// NewFileStore creates a store rooted at dir. prefix names the source in
// the ledger file names ("CLS" for the telegraph feed).
func NewFileStore(dir, prefix string) *FileStore {
	if prefix == "" {
		prefix = "CLS"
	}
	return &FileStore{dir: dir, prefix: prefix}
}

// Path returns the ledger file path for key.
func (s *FileStore) Path(key telegraph.LedgerKey) string {
	name := fmt.Sprintf("%s_%s_%s.md", s.prefix, key.Day, key.Tier.Label())
	return filepath.Join(s.dir, name)
}

// Exists reports whether the ledger for key has been created.
func (s *FileStore) Exists(key telegraph.LedgerKey) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// ReadLines returns the set of non-blank lines currently committed to the
// ledger, trimmed. A missing ledger yields an empty set, not an error.
// Every entry's cleaned text is a substring of its own committed line, so
// this set is the comparison base for containment dedup.
func (s *FileStore) ReadLines(key telegraph.LedgerKey) (map[string]struct{}, error) {
	f, err := os.Open(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	lines := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return lines, nil
}

// EnsureHeader creates the ledger file with its header block if it does
// not exist yet. It is a no-op for an existing ledger and must be called
// before the first Append for a key.
func (s *FileStore) EnsureHeader(key telegraph.LedgerKey) error {
	if s.Exists(key) {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	boundary := telegraph.BoundaryClock()
	header := fmt.Sprintf(
		"# 财联社【%s】电报 - %s\n> 统计周期：%s %s 至次日 %s\n\n---\n\n",
		key.Tier.Headline(), key.Day, key.Day, boundary, boundary,
	)

	f, err := os.OpenFile(s.Path(key), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("create ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	return nil
}

// Append commits one entry line followed by a blank separator line. The
// ledger must already have its header.
func (s *FileStore) Append(key telegraph.LedgerKey, line string) error {
	f, err := os.OpenFile(s.Path(key), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n\n"); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}
