package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"relationship-notes-service/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tracker.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestContact(t *testing.T, s *Store) models.Contact {
	t.Helper()
	c, err := s.CreateContact(context.Background(), models.Contact{
		FirstName: "Sarah",
		LastName:  "Nguyen",
		Company:   "Acme",
		Email:     "sarah@acme.test",
		Tags:      []string{"customer", "renewal"},
	})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	return c
}

func TestContact_CreateAndGet(t *testing.T) {
	s := openTestStore(t)
	c := createTestContact(t, s)

	got, err := s.GetContact(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get contact: %v", err)
	}
	if got.FirstName != "Sarah" || got.LastName != "Nguyen" {
		t.Errorf("unexpected contact: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "customer" {
		t.Errorf("tags not preserved: %v", got.Tags)
	}
}

func TestContact_ListOrderedByLastName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zimmer", "Abbott", "Miller"} {
		if _, err := s.CreateContact(ctx, models.Contact{FirstName: "A", LastName: name}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	contacts, err := s.ListContacts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(contacts) != 3 {
		t.Fatalf("expected 3 contacts, got %d", len(contacts))
	}
	if contacts[0].LastName != "Abbott" || contacts[2].LastName != "Zimmer" {
		t.Errorf("wrong order: %s, %s, %s",
			contacts[0].LastName, contacts[1].LastName, contacts[2].LastName)
	}
}

func TestContact_UpdateMissingNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.UpdateContact(context.Background(), models.Contact{ID: "nope", FirstName: "X", LastName: "Y"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContact_DeleteCascadesInteractions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := createTestContact(t, s)

	if _, err := s.CreateInteraction(ctx, models.Interaction{
		ContactID: c.ID, Date: "2025-03-01", Type: models.TypeCall,
	}); err != nil {
		t.Fatalf("create interaction: %v", err)
	}

	if err := s.DeleteContact(ctx, c.ID); err != nil {
		t.Fatalf("delete contact: %v", err)
	}

	ints, err := s.ListInteractions(ctx, c.ID)
	if err != nil {
		t.Fatalf("list interactions: %v", err)
	}
	if len(ints) != 0 {
		t.Errorf("expected cascade delete, got %d interactions", len(ints))
	}
}

func TestInteraction_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := createTestContact(t, s)

	followUp := "2025-03-08"
	created, err := s.CreateInteraction(ctx, models.Interaction{
		ContactID:        c.ID,
		Date:             "2025-03-01",
		Type:             models.TypeCall,
		Notes:            "hi",
		ReminderSet:      true,
		NextFollowUpDate: &followUp,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ints, err := s.ListInteractions(ctx, c.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ints) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(ints))
	}
	got := ints[0]
	if got.ID != created.ID || got.Date != "2025-03-01" || got.Type != models.TypeCall ||
		got.Notes != "hi" || !got.ReminderSet ||
		got.NextFollowUpDate == nil || *got.NextFollowUpDate != "2025-03-08" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestInteraction_ListDateDescending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := createTestContact(t, s)

	for _, date := range []string{"2025-01-15", "2025-03-01", "2025-02-10"} {
		if _, err := s.CreateInteraction(ctx, models.Interaction{
			ContactID: c.ID, Date: date, Type: models.TypeEmail,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	ints, err := s.ListInteractions(ctx, c.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2025-03-01", "2025-02-10", "2025-01-15"}
	for i, w := range want {
		if ints[i].Date != w {
			t.Errorf("position %d: expected %s, got %s", i, w, ints[i].Date)
		}
	}
}

func TestInteraction_CreateForMissingContact(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInteraction(context.Background(), models.Interaction{
		ContactID: "ghost", Date: "2025-03-01", Type: models.TypeCall,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInteraction_NullFollowUpPersisted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := createTestContact(t, s)

	if _, err := s.CreateInteraction(ctx, models.Interaction{
		ContactID: c.ID, Date: "2025-03-01", Type: models.TypeMeeting,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	ints, err := s.ListInteractions(ctx, c.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if ints[0].NextFollowUpDate != nil {
		t.Errorf("expected null follow-up, got %v", *ints[0].NextFollowUpDate)
	}
}

func TestInteraction_UpdateAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := createTestContact(t, s)

	created, err := s.CreateInteraction(ctx, models.Interaction{
		ContactID: c.ID, Date: "2025-03-01", Type: models.TypeCall, Notes: "short",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Notes = "longer notes"
	created.Type = models.TypeMeeting
	updated, err := s.UpdateInteraction(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Notes != "longer notes" || updated.Type != models.TypeMeeting {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := s.DeleteInteraction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteInteraction(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on repeated delete, got %v", err)
	}
}

func TestDashboardStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := createTestContact(t, s)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	dueSoon := "2025-03-05"
	farOut := "2025-06-01"
	for _, fu := range []*string{&dueSoon, &farOut, nil} {
		in := models.Interaction{ContactID: c.ID, Date: "2025-03-01", Type: models.TypeCall}
		if fu != nil {
			in.ReminderSet = true
			in.NextFollowUpDate = fu
		}
		if _, err := s.CreateInteraction(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	stats, err := s.DashboardStats(ctx, now)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Contacts != 1 || stats.Interactions != 3 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.RemindersDueSoon != 1 {
		t.Errorf("expected 1 reminder due soon, got %d", stats.RemindersDueSoon)
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected journal_mode wal, got %q", mode)
	}

	var timeout int
	if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("expected busy_timeout 5000, got %d", timeout)
	}
}
