package fs

import (
	"os"
	"path/filepath"

	"github.com/fwojciec/readable"
)

// Ensure Store implements readable.ArticleWriter at compile time.
var _ readable.ArticleWriter = (*Store)(nil)

// Store is a Writer with atomic update semantics. Articles are written to
// baseDir/name.tmp and moved to baseDir/name on Commit, replacing any
// previous output.
type Store struct {
	*Writer
	baseDir string
	name    string
}

// NewStore creates a new Store.
func NewStore(baseDir, name string, converter readable.Converter) *Store {
	s := &Store{baseDir: baseDir, name: name}
	s.Writer = NewWriter(s.tempDir(), converter)
	return s
}

func (s *Store) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *Store) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Commit replaces the final directory with the written articles.
func (s *Store) Commit() error {
	if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
		return err
	}
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}
	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards the written articles.
func (s *Store) Abort() error {
	return os.RemoveAll(s.tempDir())
}
