package store

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"baasbox-client/internal/model"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

type Store struct {
	mu sync.RWMutex

	usersStateFile string
	persistMu      sync.Mutex

	accountsByName map[string]model.Account
	sessionUser    map[string]string // token id -> username
}

func New() *Store {
	return NewWithOptions(Options{})
}

type Options struct {
	UsersStateFile string
}

func NewWithOptions(opts Options) *Store {
	s := &Store{
		accountsByName: make(map[string]model.Account),
		sessionUser:    make(map[string]string),
		usersStateFile: opts.UsersStateFile,
	}

	if s.usersStateFile != "" {
		if err := s.loadAccountsFromFile(s.usersStateFile); err != nil {
			log.Printf("users persistence: load failed (%s): %v", s.usersStateFile, err)
		}
	}

	return s
}

type persistedUsersFile struct {
	Version  int             `json:"version"`
	Accounts []model.Account `json:"accounts"`
	SavedAt  int64           `json:"savedAt"`
}

func (s *Store) loadAccountsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var file persistedUsersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Version != 1 {
		return errors.New("unsupported users state version")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range file.Accounts {
		if a.Name == "" || a.PasswordHash == "" {
			continue
		}
		s.accountsByName[a.Name] = a
	}
	return nil
}

func (s *Store) snapshotAccountsLocked() []model.Account {
	result := make([]model.Account, 0, len(s.accountsByName))
	for _, a := range s.accountsByName {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (s *Store) persistAccountsSnapshot(accounts []model.Account) {
	path := s.usersStateFile
	if path == "" {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Printf("users persistence: mkdir failed (%s): %v", dir, err)
		return
	}

	file := persistedUsersFile{Version: 1, Accounts: accounts, SavedAt: time.Now().UnixMilli()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		log.Printf("users persistence: marshal failed: %v", err)
		return
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		log.Printf("users persistence: create temp failed: %v", err)
		return
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		log.Printf("users persistence: chmod temp failed: %v", err)
		return
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		log.Printf("users persistence: write temp failed: %v", err)
		return
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		log.Printf("users persistence: sync temp failed: %v", err)
		return
	}
	if err := tmp.Close(); err != nil {
		log.Printf("users persistence: close temp failed: %v", err)
		return
	}
	if err := os.Rename(tmpName, path); err != nil {
		log.Printf("users persistence: rename failed: %v", err)
		return
	}
}

func (s *Store) CreateAccount(name, passwordHash string, roles []string, nowMillis int64) (model.Account, error) {
	s.mu.Lock()
	if _, ok := s.accountsByName[name]; ok {
		s.mu.Unlock()
		return model.Account{}, ErrUserExists
	}

	acc := model.Account{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: passwordHash,
		Status:       model.UserStatusActive,
		Roles:        append([]string(nil), roles...),
		SignUpAt:     nowMillis,
		UpdatedAt:    nowMillis,
	}
	s.accountsByName[name] = acc
	snapshot := s.snapshotAccountsLocked()
	s.mu.Unlock()

	s.persistAccountsSnapshot(snapshot)
	return acc, nil
}

func (s *Store) GetAccount(name string) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accountsByName[name]
	return acc, ok
}

func (s *Store) ListAccounts() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotAccountsLocked()
}

// SetStatus changes an account's status. Moving away from ACTIVE revokes
// every live session of the account.
func (s *Store) SetStatus(name, status string, nowMillis int64) (model.Account, error) {
	s.mu.Lock()
	acc, ok := s.accountsByName[name]
	if !ok {
		s.mu.Unlock()
		return model.Account{}, ErrUserNotFound
	}
	acc.Status = status
	acc.UpdatedAt = nowMillis
	s.accountsByName[name] = acc
	if status != model.UserStatusActive {
		s.revokeUserSessionsLocked(name)
	}
	snapshot := s.snapshotAccountsLocked()
	s.mu.Unlock()

	s.persistAccountsSnapshot(snapshot)
	return acc, nil
}

func (s *Store) AddSession(tokenID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionUser[tokenID] = username
}

func (s *Store) SessionUser(tokenID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.sessionUser[tokenID]
	return name, ok
}

func (s *Store) RevokeSession(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessionUser[tokenID]; !ok {
		return false
	}
	delete(s.sessionUser, tokenID)
	return true
}

func (s *Store) RevokeUserSessions(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokeUserSessionsLocked(username)
}

func (s *Store) revokeUserSessionsLocked(username string) int {
	n := 0
	for id, name := range s.sessionUser {
		if name == username {
			delete(s.sessionUser, id)
			n++
		}
	}
	return n
}
