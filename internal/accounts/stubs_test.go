package accounts

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"userhub-backend/internal/users"
	"userhub-backend/pkg/config"
	"userhub-backend/pkg/db/models"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/pagination"
)

// stubRepo is an in-memory accountRepository. Duplicate name/email/phone
// inserts fail with the sqlite unique-violation message so the service
// classifies them the same way it would a real driver error.
type stubRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*models.User
	order []uuid.UUID

	failNextCreate error
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: map[uuid.UUID]*models.User{}}
}

func (r *stubRepo) uniqueTaken(candidate *models.User) bool {
	for _, row := range r.rows {
		if row.ID == candidate.ID {
			continue
		}
		if row.Name == candidate.Name {
			return true
		}
		if row.Email != nil && candidate.Email != nil && *row.Email == *candidate.Email {
			return true
		}
		if row.Phone != nil && candidate.Phone != nil && *row.Phone == *candidate.Phone {
			return true
		}
	}
	return false
}

func (r *stubRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNextCreate != nil {
		err := r.failNextCreate
		r.failNextCreate = nil
		return nil, err
	}

	user := dto.ToModel()
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if r.uniqueTaken(user) {
		return nil, fmt.Errorf("UNIQUE constraint failed: users.name")
	}

	r.rows[user.ID] = user
	r.order = append(r.order, user.ID)
	return cloneUser(user), nil
}

func (r *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.rows[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *stubRepo) FindByContact(ctx context.Context, email, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		row := r.rows[id]
		if email != "" && row.Email != nil && *row.Email == email {
			return cloneUser(row), nil
		}
		if phone != "" && row.Phone != nil && *row.Phone == phone {
			return cloneUser(row), nil
		}
	}
	return nil, users.ErrNotFound
}

func (r *stubRepo) Update(ctx context.Context, id uuid.UUID, fields users.UpdateFields) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.rows[id]
	if !ok {
		return nil, users.ErrNotFound
	}

	candidate := cloneUser(user)
	if fields.Name != nil {
		candidate.Name = *fields.Name
	}
	if fields.Email != nil {
		candidate.Email = fields.Email
	}
	if fields.Phone != nil {
		candidate.Phone = fields.Phone
	}
	if fields.Avatar != nil {
		candidate.Avatar = fields.Avatar
	}
	if fields.Role != nil {
		candidate.Role = *fields.Role
	}

	if r.uniqueTaken(candidate) {
		return nil, fmt.Errorf("UNIQUE constraint failed: users.email")
	}

	candidate.UpdatedAt = time.Now()
	r.rows[id] = candidate
	return cloneUser(candidate), nil
}

func (r *stubRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.rows[id]
	if !ok {
		return users.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (r *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return users.ErrNotFound
	}
	delete(r.rows, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *stubRepo) List(ctx context.Context, params pagination.Params) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	params = params.Normalize()

	ids := append([]uuid.UUID(nil), r.order...)
	sort.SliceStable(ids, func(i, j int) bool {
		return r.rows[ids[i]].CreatedAt.Before(r.rows[ids[j]].CreatedAt)
	})

	offset := params.Offset()
	if offset >= len(ids) {
		return nil, int64(len(ids)), nil
	}
	end := offset + params.Limit
	if end > len(ids) {
		end = len(ids)
	}

	page := make([]models.User, 0, end-offset)
	for _, id := range ids[offset:end] {
		page = append(page, *cloneUser(r.rows[id]))
	}
	return page, int64(len(r.rows)), nil
}

func cloneUser(u *models.User) *models.User {
	clone := *u
	return &clone
}

// stubStore records avatar deletions and can be made to fail.
type stubStore struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	failDel bool
}

func (s *stubStore) Save(ctx context.Context, filename string, contents io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := "stub/" + filename
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *stubStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDel {
		return fmt.Errorf("stub delete failure")
	}
	s.deleted = append(s.deleted, path)
	return nil
}

func (s *stubStore) deletedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func newTestService(repo accountRepository, store *stubStore) Service {
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		AvatarStore: store,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		JWTConfig: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "userhub-test",
			ExpirationMinutes: 30,
		},
		PasswordConfig: config.PasswordConfig{BcryptCost: 4},
	})
	if err != nil {
		panic(err)
	}
	return svc
}
