package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultStorageFileName = ".xchain-dex-history.json"
)

// Store persists transfer records to a JSON file
type Store struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*Record
}

// storeFile represents the JSON structure for storage
type storeFile struct {
	Transfers map[string]*Record `json:"transfers"`
}

// NewStore opens the store at filePath, defaulting to a file in the home directory
func NewStore(filePath string) (*Store, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	s := &Store{
		filePath: filePath,
		records:  make(map[string]*Record),
	}

	// The file is created on first save
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	if file.Transfers != nil {
		s.records = file.Transfers
	}

	return nil
}

// saveLocked writes all records to disk; callers hold s.mu
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(storeFile{Transfers: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Add stores a new record, assigning its ID and timestamps
func (s *Store) Add(record Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	record.ID = uuid.New().String()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = StatusPending
	}

	s.records[record.ID] = &record
	if err := s.saveLocked(); err != nil {
		delete(s.records, record.ID)
		return nil, err
	}

	out := record
	return &out, nil
}

// Get retrieves a record by ID
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("transfer '%s' not found", id)
	}

	out := *record
	return &out, nil
}

// Resolve returns the record whose ID is id or starts with it, as long as the prefix is unambiguous
func (s *Store) Resolve(id string) (*Record, error) {
	if record, err := s.Get(id); err == nil {
		return record, nil
	}

	var match *Record
	for _, record := range s.List() {
		if !strings.HasPrefix(record.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("transfer ID '%s' is ambiguous", id)
		}
		match = record
	}
	if id == "" || match == nil {
		return nil, fmt.Errorf("transfer '%s' not found", id)
	}
	return match, nil
}

// FindByDepositAddress returns the most recent record for a deposit address
func (s *Store) FindByDepositAddress(address string) (*Record, error) {
	for _, record := range s.List() {
		if record.DepositAddress == address {
			return record, nil
		}
	}
	return nil, fmt.Errorf("no transfer with deposit address '%s'", address)
}

// Update applies fn to the stored record with the given ID and persists the result
func (s *Store) Update(id string, fn func(*Record)) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("transfer '%s' not found", id)
	}

	updated := *current
	fn(&updated)
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	s.records[id] = &updated
	if err := s.saveLocked(); err != nil {
		s.records[id] = current
		return nil, err
	}

	out := updated
	return &out, nil
}

// Delete removes a record
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return fmt.Errorf("transfer '%s' not found", id)
	}

	delete(s.records, id)
	if err := s.saveLocked(); err != nil {
		s.records[id] = record
		return err
	}

	return nil
}

// List returns copies of all records, newest first
func (s *Store) List() []*Record {
	return s.filter(func(*Record) bool { return true })
}

// ListByStatus returns records with the given status, newest first
func (s *Store) ListByStatus(status Status) []*Record {
	return s.filter(func(r *Record) bool { return r.Status == status })
}

// Open returns records that may still change state, newest first
func (s *Store) Open() []*Record {
	return s.filter(func(r *Record) bool { return r.IsOpen() })
}

func (s *Store) filter(keep func(*Record) bool) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		if keep(record) {
			r := *record
			out = append(out, &r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

// Count returns the total number of records
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Path returns the storage file path
func (s *Store) Path() string {
	return s.filePath
}
