package session

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SecretKey is an opaque handle around the session private key. It marshals
// for persistence but stringifies redacted, so the key never reaches a log
// line even through a careless zap.Any or %v.
type SecretKey struct {
	hexKey string
}

// NewSecretKey wraps an ECDSA private key.
func NewSecretKey(key *ecdsa.PrivateKey) SecretKey {
	return SecretKey{hexKey: common.Bytes2Hex(crypto.FromECDSA(key))}
}

// ECDSA recovers the wrapped private key.
func (k SecretKey) ECDSA() (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(k.hexKey)
}

// String implements fmt.Stringer and always redacts.
func (k SecretKey) String() string {
	return "[redacted]"
}

// MarshalJSON emits the raw key for the persistence layer only.
func (k SecretKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.hexKey)
}

// UnmarshalJSON restores a persisted key.
func (k *SecretKey) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &k.hexKey)
}

// Record is the persisted SessionInfo: one per user address, per device.
// The delegation nonce is captured at creation time for audit and is never
// reused for orders.
type Record struct {
	User                string    `json:"user"`
	SessionKeyAddress   string    `json:"session_key_address"`
	SessionPrivateKey   SecretKey `json:"session_private_key"`
	Expiry              int64     `json:"expiry"`
	DelegationNonce     string    `json:"delegation_nonce"`
	DelegationSignature string    `json:"delegation_signature"`
}

// Store persists session records keyed by user address. Load returns
// (nil, nil) when no record exists. Expiry checking is the manager's job;
// stores return whatever they hold.
type Store interface {
	Load(user common.Address) (*Record, error)
	Save(record Record) error
	Delete(user common.Address) error
}

// FileStore keeps one JSON record per user under a directory. Files carry the
// session private key, so they are written 0600.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(user common.Address) string {
	return filepath.Join(s.dir, strings.ToLower(user.Hex())+".json")
}

// Load reads the user's record, or (nil, nil) if none exists.
func (s *FileStore) Load(user common.Address) (*Record, error) {
	data, err := os.ReadFile(s.path(user))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &record, nil
}

// Save writes the user's record with owner-only permissions.
func (s *FileStore) Save(record Record) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	user := common.HexToAddress(record.User)
	if err := os.WriteFile(s.path(user), data, 0o600); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return nil
}

// Delete removes the user's record. Deleting an absent record is not an error.
func (s *FileStore) Delete(user common.Address) error {
	err := os.Remove(s.path(user))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store used by tests and short-lived tooling.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Load returns the user's record, or (nil, nil) if none exists.
func (s *MemoryStore) Load(user common.Address) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.ToLower(user.Hex())]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Save stores the record keyed by the user address.
func (s *MemoryStore) Save(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[strings.ToLower(common.HexToAddress(record.User).Hex())] = record
	return nil
}

// Delete removes the user's record.
func (s *MemoryStore) Delete(user common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, strings.ToLower(user.Hex()))
	return nil
}

var _ Store = (*FileStore)(nil)
var _ Store = (*MemoryStore)(nil)
