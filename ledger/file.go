package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
)

// FileLedgerName is the file name used for each pipeline's ledger.
const FileLedgerName = "processed_log.txt"

// FileLedger keeps one id per line in an append only file.
// Older ledgers recorded object names, so a trailing .json is ignored on read.
//
// Ids are indexed in memory. Each call reads only what was appended since the previous
// call, so other processes appending to the same file are still picked up.
type FileLedger struct {
	path string
	mu   sync.Mutex
	ids  map[string]struct{}
	// bytes of the file already indexed
	offset int64
	// unterminated last line, indexed provisionally until its newline arrives
	partial string
	// the provisional id was not already indexed from an earlier line
	partialNew bool
}

func NewFileLedger(path string) (*FileLedger, error) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, err
	}
	return &FileLedger{path: path, ids: map[string]struct{}{}}, nil
}

func (l *FileLedger) reset() {
	l.ids = map[string]struct{}{}
	l.offset = 0
	l.partial = ""
	l.partialNew = false
}

// refresh indexes lines appended since the last refresh. Must hold mu.
func (l *FileLedger) refresh() error {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.reset()
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.offset {
		// replaced or truncated underneath us
		l.reset()
	}
	if info.Size() == l.offset {
		return nil
	}
	if l.partial != "" && l.partialNew {
		// re-read below, possibly now longer
		delete(l.ids, l.partial)
	}
	l.partial, l.partialNew = "", false
	_, err = f.Seek(l.offset, io.SeekStart)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		id := events.EventID(strings.TrimSpace(line))
		_, known := l.ids[id]
		if id != "" {
			l.ids[id] = struct{}{}
		}
		if errors.Is(err, io.EOF) {
			if line != "" {
				l.partial, l.partialNew = id, !known && id != ""
			}
			return nil
		} else if err != nil {
			return err
		}
		l.offset += int64(len(line))
	}
}

func (l *FileLedger) Append(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.refresh()
	if err != nil {
		return fmt.Errorf("failed to read ledger %s: %w", l.path, err)
	}
	var b strings.Builder
	if l.partial != "" {
		b.WriteByte('\n')
	}
	added := []string{}
	for _, id := range ids {
		if _, ok := l.ids[id]; ok {
			continue
		}
		l.ids[id] = struct{}{}
		added = append(added, id)
		b.WriteString(id)
		b.WriteByte('\n')
	}
	if len(added) == 0 {
		return nil
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		_, err = f.WriteString(b.String())
		if err == nil {
			err = f.Sync()
		}
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
	}
	if err != nil {
		// the write may be partial, rebuild the index from disk next call
		l.reset()
		return fmt.Errorf("failed to append ledger %s: %w", l.path, err)
	}
	return nil
}

func (l *FileLedger) Contains(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.refresh()
	if err != nil {
		return false, err
	}
	_, ok := l.ids[id]
	return ok, nil
}

func (l *FileLedger) AllIDs(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.refresh()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
