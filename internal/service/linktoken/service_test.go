package linktoken_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/service/linktoken"
)

// memRepo is an in-memory link token repository for unit testing.
type memRepo struct {
	mu       sync.Mutex
	tokens   map[string]*domain.LinkToken
	owned    map[string]string // campaignID -> organizerID
	contacts map[string]string // contactID -> organizerID
}

func newMemRepo() *memRepo {
	return &memRepo{
		tokens:   make(map[string]*domain.LinkToken),
		owned:    map[string]string{"camp-1": "org-1"},
		contacts: map[string]string{"con-1": "org-1"},
	}
}

func (m *memRepo) Create(_ context.Context, t *domain.LinkToken, organizerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owned[t.CampaignID] != organizerID {
		return apperr.NotFound("campaign not found")
	}
	if t.ContactID != nil && m.contacts[*t.ContactID] != organizerID {
		return apperr.NotFound("contact not found")
	}
	t.CreatedAt = time.Now()
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memRepo) CreatePublic(_ context.Context, t *domain.LinkToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owned[t.CampaignID]; !ok {
		return apperr.NotFound("campaign not found")
	}
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.LinkToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, apperr.NotFound("link token not found")
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) GetForOrganizer(_ context.Context, id, organizerID string) (*domain.LinkToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok || m.owned[t.CampaignID] != organizerID {
		return nil, apperr.NotFound("link token not found")
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) IncrementClicks(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return apperr.NotFound("link token not found")
	}
	t.ClicksCount++
	now := time.Now()
	t.LastClickedAt = &now
	return nil
}

func (m *memRepo) DeleteUnsafe(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func strptr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	svc := linktoken.NewService(newMemRepo())
	tok, err := svc.Create(context.Background(), linktoken.CreateInput{
		CampaignID: "camp-1",
		ContactID:  strptr("con-1"),
		Type:       "invite",
	}, "org-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tok.ID == "" {
		t.Fatal("expected generated id")
	}
	if tok.Type != domain.TokenInvite {
		t.Fatalf("expected invite, got %s", tok.Type)
	}
}

func TestCreateRejectsBadType(t *testing.T) {
	svc := linktoken.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), linktoken.CreateInput{
		CampaignID: "camp-1",
		ContactID:  strptr("con-1"),
		Type:       "newsletter",
	}, "org-1")
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsBothContactAndSegment(t *testing.T) {
	svc := linktoken.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), linktoken.CreateInput{
		CampaignID: "camp-1",
		ContactID:  strptr("con-1"),
		SegmentID:  strptr("seg-1"),
		Type:       "invite",
	}, "org-1")
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRequiresRecipientForNonShare(t *testing.T) {
	svc := linktoken.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), linktoken.CreateInput{
		CampaignID: "camp-1",
		Type:       "invite",
	}, "org-1")
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateUnownedCampaign(t *testing.T) {
	svc := linktoken.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), linktoken.CreateInput{
		CampaignID: "camp-1",
		ContactID:  strptr("con-1"),
		Type:       "invite",
	}, "someone-else")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreatePublicShare(t *testing.T) {
	svc := linktoken.NewService(newMemRepo())
	tok, err := svc.CreatePublicShare(context.Background(), linktoken.CreateInput{
		CampaignID: "camp-1",
		// Type and recipient fields are forced for share tokens
		Type:      "invite",
		ContactID: strptr("con-1"),
	})
	if err != nil {
		t.Fatalf("create public share: %v", err)
	}
	if tok.Type != domain.TokenShare {
		t.Fatalf("expected share type, got %s", tok.Type)
	}
	if tok.ContactID != nil {
		t.Fatal("share tokens must not carry a contact")
	}
}

func TestGetByIDBypassesOwnershipWhenUnscoped(t *testing.T) {
	repo := newMemRepo()
	svc := linktoken.NewService(repo)
	tok, _ := svc.Create(context.Background(), linktoken.CreateInput{
		CampaignID: "camp-1", ContactID: strptr("con-1"), Type: "invite",
	}, "org-1")

	// Unscoped read (tracking endpoints) succeeds
	if _, err := svc.GetByID(context.Background(), tok.ID, ""); err != nil {
		t.Fatalf("unscoped get: %v", err)
	}
	// Scoped read by another organizer fails
	if _, err := svc.GetByID(context.Background(), tok.ID, "org-2"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for foreign organizer, got %v", err)
	}
}

func TestIncrementClickCount(t *testing.T) {
	repo := newMemRepo()
	svc := linktoken.NewService(repo)
	tok, _ := svc.Create(context.Background(), linktoken.CreateInput{
		CampaignID: "camp-1", ContactID: strptr("con-1"), Type: "invite",
	}, "org-1")

	for i := 0; i < 3; i++ {
		if err := svc.IncrementClickCount(context.Background(), tok.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	got, _ := svc.GetByID(context.Background(), tok.ID, "")
	if got.ClicksCount != 3 {
		t.Fatalf("expected 3 clicks, got %d", got.ClicksCount)
	}
	if got.LastClickedAt == nil {
		t.Fatal("expected last_clicked_at set")
	}

	if err := svc.IncrementClickCount(context.Background(), "missing"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
