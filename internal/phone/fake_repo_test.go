package phone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/repository"
)

// memPhoneRepo はPhoneRepositoryのインメモリ実装。
// PostgreSQL実装と同じくプライマリの再調整をmodel.PrimaryChangesで行う。
type memPhoneRepo struct {
	mu     sync.Mutex
	seq    int
	phones map[string]*model.PhoneNumber
	users  map[string]bool

	// beforeUpdate はUpdateVerificationの条件判定前に呼ばれる。並行操作の割り込みを再現する。
	beforeUpdate func()
}

var _ repository.PhoneRepository = (*memPhoneRepo)(nil)

func newMemPhoneRepo(userIDs ...string) *memPhoneRepo {
	r := &memPhoneRepo{phones: map[string]*model.PhoneNumber{}, users: map[string]bool{}}
	for _, id := range userIDs {
		r.users[id] = true
	}
	return r
}

func clonePhone(p *model.PhoneNumber) *model.PhoneNumber {
	c := *p
	if p.VerificationCode != nil {
		code := *p.VerificationCode
		c.VerificationCode = &code
	}
	if p.CodeSentAt != nil {
		at := *p.CodeSentAt
		c.CodeSentAt = &at
	}
	return &c
}

func (r *memPhoneRepo) userPhones(userID string) []*model.PhoneNumber {
	var out []*model.PhoneNumber
	for _, p := range r.phones {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	model.SortPhones(out)
	return out
}

func (r *memPhoneRepo) reconcile(userID string) {
	promote, demote := model.PrimaryChanges(r.userPhones(userID))
	if promote != "" {
		r.phones[promote].IsPrimary = true
	}
	for _, id := range demote {
		r.phones[id].IsPrimary = false
	}
}

func (r *memPhoneRepo) FindByID(_ context.Context, id string) (*model.PhoneNumber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.phones[id]
	if !ok {
		return nil, nil
	}
	return clonePhone(p), nil
}

func (r *memPhoneRepo) ListByUserID(_ context.Context, userID string) ([]*model.PhoneNumber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PhoneNumber
	for _, p := range r.userPhones(userID) {
		out = append(out, clonePhone(p))
	}
	return out, nil
}

func (r *memPhoneRepo) Create(_ context.Context, phone *model.PhoneNumber, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.users[phone.UserID] {
		return repository.ErrUserNotFound
	}
	existing := r.userPhones(phone.UserID)
	for _, p := range existing {
		if p.PhoneNumber == phone.PhoneNumber {
			return repository.ErrDuplicatePhone
		}
	}
	if len(existing) >= limit {
		return repository.ErrPhoneLimitExceeded
	}

	r.seq++
	phone.ID = fmt.Sprintf("phone-%02d", r.seq)
	phone.IsPrimary = len(existing) == 0
	r.phones[phone.ID] = clonePhone(phone)
	r.reconcile(phone.UserID)
	return nil
}

func (r *memPhoneRepo) UpdateVerification(_ context.Context, phone *model.PhoneNumber, prevSentAt *time.Time) error {
	if hook := r.beforeUpdate; hook != nil {
		r.beforeUpdate = nil
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.phones[phone.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if p.IsVerified || !sameInstant(p.CodeSentAt, prevSentAt) {
		return repository.ErrVerificationConflict
	}
	updated := clonePhone(phone)
	p.IsVerified = updated.IsVerified
	p.VerificationCode = updated.VerificationCode
	p.CodeSentAt = updated.CodeSentAt
	return nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (r *memPhoneRepo) Delete(_ context.Context, userID, phoneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.phones[phoneID]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.phones, phoneID)
	r.reconcile(userID)
	return nil
}

func (r *memPhoneRepo) SetPrimary(_ context.Context, userID, phoneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.phones[phoneID]
	if !ok || target.UserID != userID {
		return repository.ErrNotFound
	}
	for _, p := range r.userPhones(userID) {
		p.IsPrimary = p.ID == phoneID
	}
	r.reconcile(userID)
	return nil
}

func (r *memPhoneRepo) ReconcilePrimary(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconcile(userID)
	return nil
}

// primaryCount はユーザーのプライマリ番号数を返す。
func (r *memPhoneRepo) primaryCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.userPhones(userID) {
		if p.IsPrimary {
			n++
		}
	}
	return n
}
