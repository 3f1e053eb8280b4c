package realfolio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Store persists the ledger of each portfolio.
type Store interface {
	// Load returns the ledger of the portfolio, empty if it does not exist yet.
	Load(ctx context.Context, portfolio string) (*Ledger, error)
	// Append adds a single transaction to the portfolio's ledger.
	Append(ctx context.Context, portfolio string, tx Transaction) error
	// Save replaces the portfolio's ledger.
	Save(ctx context.Context, portfolio string, ledger *Ledger) error
	// Portfolios lists the known portfolios.
	Portfolios(ctx context.Context) ([]string, error)
}

// MemoryStore is a Store kept in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	ledgers map[string]*Ledger
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: make(map[string]*Ledger)}
}

func (s *MemoryStore) Load(_ context.Context, portfolio string) (*Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.ledgers[portfolio]; ok {
		return l.Clone(), nil
	}
	return NewLedger(), nil
}

func (s *MemoryStore) Append(_ context.Context, portfolio string, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[portfolio]
	if !ok {
		l = NewLedger()
		s.ledgers[portfolio] = l
	}
	l.Append(tx)
	return nil
}

func (s *MemoryStore) Save(_ context.Context, portfolio string, ledger *Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[portfolio] = ledger.Clone()
	return nil
}

func (s *MemoryStore) Portfolios(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.ledgers))
	for name := range s.ledgers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// ledgerExt is the extension of ledger files.
const ledgerExt = ".jsonl"

// FileStore is a Store of JSONL files, one per portfolio, in a directory.
// A portfolio named "john/bnp" is stored in "<dir>/john/bnp.jsonl".
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

// Path returns the file of the portfolio.
func (s *FileStore) Path(portfolio string) (string, error) {
	if portfolio == "" {
		return "", fmt.Errorf("portfolio name is empty: %w", ErrNotFound)
	}
	p := filepath.Join(s.dir, filepath.FromSlash(portfolio)+ledgerExt)
	if rel, err := filepath.Rel(s.dir, p); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("portfolio %q is outside of %s", portfolio, s.dir)
	}
	return p, nil
}

func (s *FileStore) Load(_ context.Context, portfolio string) (*Ledger, error) {
	path, err := s.Path(portfolio)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open ledger file %q: %w", path, err)
	}
	defer f.Close()

	ledger, err := DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger file %q: %w", path, err)
	}
	return ledger, nil
}

func (s *FileStore) Append(_ context.Context, portfolio string, tx Transaction) error {
	path, err := s.Path(portfolio)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create directory for ledger %q: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening ledger file %q for writing: %w", path, err)
	}
	if err := EncodeTransaction(f, tx); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Save rewrites the ledger file in replay order. The file is replaced atomically.
func (s *FileStore) Save(_ context.Context, portfolio string, ledger *Ledger) error {
	path, err := s.Path(portfolio)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create directory for ledger %q: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := EncodeLedger(tmp, ledger); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing ledger file %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing ledger file %q: %w", path, err)
	}
	return nil
}

// Portfolios lists every ledger file under the store directory.
func (s *FileStore) Portfolios(context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ledgerExt) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, ledgerExt)))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return names, err
}
