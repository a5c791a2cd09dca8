package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// UserStore looks up CMS users. Both lookups return nil, nil when the user does not exist.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type usersFile struct {
	Users []domain.User `yaml:"users"`
}

// FileUserStore serves users loaded from a YAML file:
//
//	users:
//	  - id: 7f9c...
//	    username: editor
//	    password_hash: $2a$10$...
type FileUserStore struct {
	mu         sync.RWMutex
	byUsername map[string]domain.User
	byID       map[uuid.UUID]domain.User
}

func NewFileUserStore(path string) (*FileUserStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	return LoadUsers(f)
}

func LoadUsers(r io.Reader) (*FileUserStore, error) {
	var file usersFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	s := &FileUserStore{
		byUsername: make(map[string]domain.User, len(file.Users)),
		byID:       make(map[uuid.UUID]domain.User, len(file.Users)),
	}
	for i, u := range file.Users {
		u.Username = strings.TrimSpace(u.Username)
		if u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("user %d: username and password_hash are required", i)
		}
		if _, dup := s.byUsername[u.Username]; dup {
			return nil, fmt.Errorf("user %d: duplicate username %s", i, u.Username)
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(u.Username))
		}
		s.byUsername[u.Username] = u
		s.byID[u.ID] = u
	}
	return s, nil
}

func (s *FileUserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *FileUserStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

var _ UserStore = (*FileUserStore)(nil)
