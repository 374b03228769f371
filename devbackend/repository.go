package devbackend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/princinho/sahoadmin/dto"
	"github.com/princinho/sahoadmin/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidPositions = errors.New("invalid positions")
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	// Insert stores u unless a user with the same email exists and reports
	// whether it was created.
	Insert(ctx context.Context, u models.User) (bool, error)
}

type CategoryRepository interface {
	// List returns categories by sort order.
	List(ctx context.Context) ([]models.Category, error)
	Reorder(ctx context.Context, positions []dto.CategoryPosition) error
	// Seed inserts cats when the repository is empty.
	Seed(ctx context.Context, cats []models.Category) error
}

type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]models.User)}
}

func (r *MemoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *MemoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryUsers) Insert(_ context.Context, u models.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return false, nil
		}
	}
	r.users[u.ID] = u
	return true, nil
}

type MemoryCategories struct {
	mu   sync.RWMutex
	cats map[int64]models.Category
}

func NewMemoryCategories() *MemoryCategories {
	return &MemoryCategories{cats: make(map[int64]models.Category)}
}

func (r *MemoryCategories) List(context.Context) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Category, 0, len(r.cats))
	for _, c := range r.cats {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Category) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r *MemoryCategories) Reorder(_ context.Context, positions []dto.CategoryPosition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := validatePositions(positions, func(id int64) bool {
		_, ok := r.cats[id]
		return ok
	}); err != nil {
		return err
	}
	for _, p := range positions {
		c := r.cats[p.CategoryID]
		c.SortOrder = p.NewPosition
		r.cats[p.CategoryID] = c
	}
	return nil
}

func (r *MemoryCategories) Seed(_ context.Context, cats []models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cats) > 0 {
		return nil
	}
	for _, c := range cats {
		r.cats[c.ID] = c
	}
	return nil
}

// validatePositions rejects empty lists, repeated ids and negative
// positions, and ids for which known reports false.
func validatePositions(positions []dto.CategoryPosition, known func(int64) bool) error {
	if len(positions) == 0 {
		return fmt.Errorf("%w: empty list", ErrInvalidPositions)
	}
	seen := make(map[int64]struct{}, len(positions))
	for _, p := range positions {
		if p.NewPosition < 0 {
			return fmt.Errorf("%w: negative position for %d", ErrInvalidPositions, p.CategoryID)
		}
		if _, dup := seen[p.CategoryID]; dup {
			return fmt.Errorf("%w: category %d listed twice", ErrInvalidPositions, p.CategoryID)
		}
		seen[p.CategoryID] = struct{}{}
		if known != nil && !known(p.CategoryID) {
			return fmt.Errorf("%w: %d", ErrUnknownCategory, p.CategoryID)
		}
	}
	return nil
}
