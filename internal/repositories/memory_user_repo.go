package repositories

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/query"
	"github.com/google/uuid"
)

// MemoryUserRepository is an in-process user store with the same semantics
// as UserRepository. It backs STORAGE_DRIVER=memory and service tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users []*models.User // insertion order
	now   func() time.Time

	lastCreated time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{now: time.Now}
}

// fieldValue resolves a client field name the same way the SQL store does.
func fieldValue(u *models.User, field string) (string, bool) {
	col, ok := columnFor(field)
	if !ok {
		return "", false
	}

	switch col {
	case "id":
		return u.ID, true
	case "username":
		return u.Username, true
	case "email":
		return u.Email, true
	case "name":
		return u.Name, true
	case "wallet_address":
		return u.WalletAddress, true
	case "role":
		return u.Role, true
	case "verified":
		return strconv.FormatBool(u.Verified), true
	case "created_at":
		return u.CreatedAt.Format(time.RFC3339Nano), true
	case "updated_at":
		return u.UpdatedAt.Format(time.RFC3339Nano), true
	}
	return "", false
}

// compareField orders two users on a column. Empty wallet addresses sort
// last, as NULLs do in PostgreSQL.
func compareField(a, b *models.User, col string) int {
	switch col {
	case "verified":
		switch {
		case a.Verified == b.Verified:
			return 0
		case !a.Verified:
			return -1
		default:
			return 1
		}
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "wallet_address":
		switch {
		case a.WalletAddress == b.WalletAddress:
			return 0
		case a.WalletAddress == "":
			return 1
		case b.WalletAddress == "":
			return -1
		}
		return strings.Compare(a.WalletAddress, b.WalletAddress)
	}

	av, _ := fieldValue(a, col)
	bv, _ := fieldValue(b, col)
	return strings.Compare(av, bv)
}

type orderKey struct {
	col  string
	desc bool
}

// orderKeys mirrors buildOrderBy.
func orderKeys(spec query.SortSpec) []orderKey {
	seen := make(map[string]bool, len(spec)+1)
	keys := make([]orderKey, 0, len(spec)+2)

	for _, s := range spec {
		col, ok := columnFor(s.Field)
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		keys = append(keys, orderKey{col: col, desc: s.Descending})
	}

	if len(keys) == 0 {
		seen[defaultOrderColumn] = true
		keys = append(keys, orderKey{col: defaultOrderColumn})
	}
	if !seen[tieBreakColumn] {
		keys = append(keys, orderKey{col: tieBreakColumn})
	}
	return keys
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}

func contactProjection(u *models.User) *models.User {
	return &models.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Verified:      u.Verified,
		Verification:  u.Verification,
		WalletAddress: u.WalletAddress,
	}
}

func (r *MemoryUserRepository) Find(ctx context.Context, pred query.Predicate, spec query.SortSpec, skip, limit int) ([]*models.User, int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}

	matcher, err := pred.Compile()
	if err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	matched := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		if matcher.Matches(func(field string) (string, bool) { return fieldValue(u, field) }) {
			matched = append(matched, clone(u))
		}
	}
	r.mu.RUnlock()

	keys := orderKeys(spec)
	sort.SliceStable(matched, func(i, j int) bool {
		for _, k := range keys {
			c := compareField(matched[i], matched[j], k.col)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	total := len(matched)
	if skip < 0 || skip >= total || limit < 1 {
		return []*models.User{}, total, nil
	}

	end := min(skip+limit, total)
	return matched[skip:end], total, nil
}

func (r *MemoryUserRepository) findOne(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := r.findOne(ctx, func(u *models.User) bool { return u.ID == id })
	if err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := r.findOne(ctx, func(u *models.User) bool { return u.Username == username })
	if err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := r.findOne(ctx, func(u *models.User) bool { return u.Email == email })
	if err != nil {
		return nil, err
	}
	return contactProjection(u), nil
}

func (r *MemoryUserRepository) GetByWalletAddress(ctx context.Context, walletAddress string) (*models.User, error) {
	if walletAddress == "" {
		return nil, models.ErrNotFound
	}
	u, err := r.findOne(ctx, func(u *models.User) bool { return u.WalletAddress == walletAddress })
	if err != nil {
		return nil, err
	}
	return contactProjection(u), nil
}

// collides reports whether candidate shares a unique field with any stored
// user other than itself.
func (r *MemoryUserRepository) collides(candidate *models.User) bool {
	for _, u := range r.users {
		if u.ID == candidate.ID {
			continue
		}
		if u.Username == candidate.Username || u.Email == candidate.Email {
			return true
		}
		if candidate.WalletAddress != "" && u.WalletAddress == candidate.WalletAddress {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := clone(user)
	stored.ID = uuid.New().String()
	stored.CreatedAt = r.nextCreatedAt()
	stored.UpdatedAt = stored.CreatedAt
	if stored.Role == "" {
		stored.Role = models.RoleUser
	}

	if r.collides(stored) {
		return nil, models.ErrConflict
	}

	r.users = append(r.users, stored)
	return clone(stored), nil
}

// nextCreatedAt keeps creation timestamps strictly increasing at microsecond
// resolution so default order is insertion order. Caller holds mu.
func (r *MemoryUserRepository) nextCreatedAt() time.Time {
	ts := r.now().UTC().Truncate(time.Microsecond)
	if !ts.After(r.lastCreated) {
		ts = r.lastCreated.Add(time.Microsecond)
	}
	r.lastCreated = ts
	return ts
}

func (r *MemoryUserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID != id {
			continue
		}

		updated := clone(u)
		patch.Apply(updated)
		updated.UpdatedAt = r.now().UTC()

		if r.collides(updated) {
			return nil, models.ErrConflict
		}

		r.users[i] = updated
		return clone(updated), nil
	}

	return nil, models.ErrNotFound
}

func (r *MemoryUserRepository) MarkVerified(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			u.Verified = true
			u.Verification = ""
			u.UpdatedAt = r.now().UTC()
			return nil
		}
	}

	return models.ErrNotFound
}
