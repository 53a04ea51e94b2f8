package diskcheck

import (
	"errors"
	"io/fs"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const maxWarnings = 500

type inode struct {
	dev uint64
	ino uint64
}

// Scanner sums the allocated size of everything below a directory, the way
// du -s does. A symlinked root is resolved; symlinks inside the tree are
// never followed. Each inode is counted once so hard links do not inflate
// the total. Unreadable entries are skipped and recorded as warnings.
type Scanner struct {
	warnings []string
	skipped  int
	scanned  int64
	seen     map[inode]struct{}
}

// NewScanner returns an empty scanner.
func NewScanner() *Scanner {
	return &Scanner{seen: make(map[inode]struct{})}
}

// Warnings returns the first warnings accumulated during scanning.
func (s *Scanner) Warnings() []string {
	return append([]string(nil), s.warnings...)
}

// Skipped returns how many entries could not be read.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// ScannedCount returns the number of entries visited so far.
func (s *Scanner) ScannedCount() int64 {
	return s.scanned
}

func (s *Scanner) addWarning(msg string) {
	s.skipped++
	if len(s.warnings) < maxWarnings {
		s.warnings = append(s.warnings, msg)
	}
}

// allocated returns the on-disk bytes of path, or 0 when its inode was
// already counted.
func (s *Scanner) allocated(path string) (int64, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, err
	}
	key := inode{dev: uint64(st.Dev), ino: uint64(st.Ino)}
	if _, ok := s.seen[key]; ok {
		return 0, nil
	}
	s.seen[key] = struct{}{}
	return int64(st.Blocks) * 512, nil
}

// DirSize returns the bytes allocated below root. A missing root, or a
// symlink pointing nowhere, counts as zero.
func (s *Scanner) DirSize(root string) (int64, error) {
	resolved, err := filepath.EvalSymlinks(filepath.Clean(root))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var total int64
	walkErr := filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission denied or vanished mid-walk: skip, don't fail.
			s.addWarning("cannot read " + path + ": " + err.Error())
			if d != nil && d.IsDir() && path != resolved {
				return fs.SkipDir
			}
			return nil
		}

		s.scanned++
		size, err := s.allocated(path)
		if err != nil {
			s.addWarning("cannot stat " + path + ": " + err.Error())
			return nil
		}
		total += size
		return nil
	})
	return total, walkErr
}
