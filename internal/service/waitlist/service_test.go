package waitlist_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/waitlist"
)

type memRepo struct {
	mu      sync.Mutex
	records map[string]*domain.WaitlistRecord
	err     error
}

func newMemRepo(recs ...domain.WaitlistRecord) *memRepo {
	m := &memRepo{records: make(map[string]*domain.WaitlistRecord)}
	for i := range recs {
		r := recs[i]
		m.records[r.ID] = &r
	}
	return m
}

func (m *memRepo) List(_ context.Context) ([]domain.WaitlistRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.WaitlistRecord
	for _, r := range m.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) SetBetaUser(_ context.Context, id string, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return waitlist.ErrNotFound
	}
	r.IsBetaUser = approved
	return nil
}

func TestList(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	src := "Twitter"
	repo := newMemRepo(
		domain.WaitlistRecord{ID: "old", Email: "old@x.io", CreatedAt: base},
		domain.WaitlistRecord{ID: "new", Email: "new@x.io", CreatedAt: base.Add(time.Hour), IsBetaUser: true, Source: &src, ApprovalEmailStatus: domain.ApprovalOpened},
	)
	users, err := waitlist.NewService(repo).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 || users[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", users)
	}
	if users[0].Status != domain.BetaStatusApproved || users[0].Source != "Twitter" || users[0].ApprovalEmailStatus != domain.ApprovalOpened {
		t.Fatalf("unexpected view: %+v", users[0])
	}
	if users[1].Status != domain.BetaStatusPending || users[1].Source != "Website" || users[1].ApprovalEmailStatus != domain.ApprovalNotSent {
		t.Fatalf("defaults not applied: %+v", users[1])
	}
}

func TestListError(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("db down")
	if _, err := waitlist.NewService(repo).List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetBetaAccess(t *testing.T) {
	repo := newMemRepo(domain.WaitlistRecord{ID: "w1", Email: "a@x.io"})
	svc := waitlist.NewService(repo)
	ctx := context.Background()

	if err := svc.SetBetaAccess(ctx, "w1", waitlist.ActionApprove); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !repo.records["w1"].IsBetaUser {
		t.Fatal("expected beta user after approve")
	}
	if err := svc.SetBetaAccess(ctx, "w1", waitlist.ActionReject); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if repo.records["w1"].IsBetaUser {
		t.Fatal("expected non-beta user after reject")
	}
}

func TestSetBetaAccessErrors(t *testing.T) {
	svc := waitlist.NewService(newMemRepo(domain.WaitlistRecord{ID: "w1"}))
	ctx := context.Background()

	cases := []struct {
		id, action string
		want       error
	}{
		{"", waitlist.ActionApprove, waitlist.ErrInvalidRequest},
		{"w1", "promote", waitlist.ErrInvalidAction},
		{"w1", "", waitlist.ErrInvalidAction},
		{"nope", waitlist.ActionApprove, waitlist.ErrNotFound},
	}
	for _, tc := range cases {
		if err := svc.SetBetaAccess(ctx, tc.id, tc.action); !errors.Is(err, tc.want) {
			t.Errorf("SetBetaAccess(%q, %q) = %v, want %v", tc.id, tc.action, err, tc.want)
		}
	}
}
