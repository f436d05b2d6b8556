// Package store provides the SQLite persistence collaborator for contacts
// and interactions.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"relationship-notes-service/internal/models"
	"relationship-notes-service/internal/observability/metrics"
)

// ErrNotFound is returned when the target entity does not exist, e.g. an
// update or delete against an already-deleted record.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id          TEXT PRIMARY KEY,
	firstName   TEXT NOT NULL,
	lastName    TEXT NOT NULL,
	company     TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	linkedinUrl TEXT NOT NULL DEFAULT '',
	website     TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	timezone    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	createdAt   TEXT NOT NULL,
	updatedAt   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS interactions (
	id               TEXT PRIMARY KEY,
	contactId        TEXT NOT NULL REFERENCES contacts(id),
	date             TEXT NOT NULL,
	type             TEXT NOT NULL,
	notes            TEXT NOT NULL DEFAULT '',
	reminderSet      INTEGER NOT NULL DEFAULT 0,
	nextFollowUpDate TEXT,
	createdAt        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interactions_contact
	ON interactions(contactId, date DESC);
`

// Store wraps the SQLite database.
type Store struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

// Open opens (and if needed initializes) the database at path.
func Open(path string) (*Store, error) {
	// modernc's driver takes pragmas in _pragma=name(value) form.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, metrics: metrics.DefaultMetrics}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) record(op string, start time.Time, err error) {
	s.metrics.RecordStoreOp(op, err, time.Since(start).Seconds())
}

// --- contacts ---

// CreateContact inserts a new contact, assigning ID and timestamps.
func (s *Store) CreateContact(ctx context.Context, c models.Contact) (_ models.Contact, err error) {
	start := time.Now()
	defer func() { s.record("contact_create", start, err) }()

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return models.Contact{}, fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, firstName, lastName, company, title, email,
			phone, linkedinUrl, website, location, timezone, status, tags,
			createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.FirstName, c.LastName, c.Company, c.Title, c.Email,
		c.Phone, c.LinkedinURL, c.Website, c.Location, c.Timezone, c.Status,
		string(tags), c.CreatedAt.Format(time.RFC3339), c.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return models.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

// ListContacts returns all contacts ordered by last name.
func (s *Store) ListContacts(ctx context.Context) (_ []models.Contact, err error) {
	start := time.Now()
	defer func() { s.record("contact_list", start, err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, firstName, lastName, company, title, email, phone,
			linkedinUrl, website, location, timezone, status, tags,
			createdAt, updatedAt
		FROM contacts
		ORDER BY lastName ASC, firstName ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// GetContact returns one contact by ID.
func (s *Store) GetContact(ctx context.Context, id string) (_ models.Contact, err error) {
	start := time.Now()
	defer func() { s.record("contact_get", start, err) }()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, firstName, lastName, company, title, email, phone,
			linkedinUrl, website, location, timezone, status, tags,
			createdAt, updatedAt
		FROM contacts
		WHERE id = ?
	`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contact{}, ErrNotFound
	}
	return c, err
}

// UpdateContact replaces the mutable fields of a contact.
func (s *Store) UpdateContact(ctx context.Context, c models.Contact) (_ models.Contact, err error) {
	start := time.Now()
	defer func() { s.record("contact_update", start, err) }()

	c.UpdatedAt = time.Now().UTC()
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return models.Contact{}, fmt.Errorf("marshal tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE contacts
		SET firstName = ?, lastName = ?, company = ?, title = ?, email = ?,
			phone = ?, linkedinUrl = ?, website = ?, location = ?,
			timezone = ?, status = ?, tags = ?, updatedAt = ?
		WHERE id = ?
	`, c.FirstName, c.LastName, c.Company, c.Title, c.Email,
		c.Phone, c.LinkedinURL, c.Website, c.Location,
		c.Timezone, c.Status, string(tags), c.UpdatedAt.Format(time.RFC3339), c.ID)
	if err != nil {
		return models.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Contact{}, ErrNotFound
	}
	return s.GetContact(ctx, c.ID)
}

// DeleteContact removes a contact and all of its interactions.
func (s *Store) DeleteContact(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.record("contact_delete", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM interactions WHERE contactId = ?`, id); err != nil {
		return fmt.Errorf("delete interactions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// --- interactions ---

// CreateInteraction inserts a new interaction. The contact must exist.
func (s *Store) CreateInteraction(ctx context.Context, in models.Interaction) (_ models.Interaction, err error) {
	start := time.Now()
	defer func() { s.record("interaction_create", start, err) }()

	if _, err := s.GetContact(ctx, in.ContactID); err != nil {
		return models.Interaction{}, err
	}

	in.ID = uuid.NewString()
	in.CreatedAt = time.Now().UTC()

	var followUp sql.NullString
	if in.NextFollowUpDate != nil {
		followUp = sql.NullString{String: *in.NextFollowUpDate, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interactions (id, contactId, date, type, notes,
			reminderSet, nextFollowUpDate, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, in.ID, in.ContactID, in.Date, string(in.Type), in.Notes,
		boolToInt(in.ReminderSet), followUp, in.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return models.Interaction{}, fmt.Errorf("insert interaction: %w", err)
	}
	return in, nil
}

// ListInteractions returns a contact's interactions, newest date first.
func (s *Store) ListInteractions(ctx context.Context, contactID string) (_ []models.Interaction, err error) {
	start := time.Now()
	defer func() { s.record("interaction_list", start, err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contactId, date, type, notes, reminderSet,
			nextFollowUpDate, createdAt
		FROM interactions
		WHERE contactId = ?
		ORDER BY date DESC, createdAt DESC
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// UpdateInteraction replaces the mutable fields of an interaction. The
// contact binding never changes.
func (s *Store) UpdateInteraction(ctx context.Context, in models.Interaction) (_ models.Interaction, err error) {
	start := time.Now()
	defer func() { s.record("interaction_update", start, err) }()

	var followUp sql.NullString
	if in.NextFollowUpDate != nil {
		followUp = sql.NullString{String: *in.NextFollowUpDate, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE interactions
		SET date = ?, type = ?, notes = ?, reminderSet = ?, nextFollowUpDate = ?
		WHERE id = ?
	`, in.Date, string(in.Type), in.Notes, boolToInt(in.ReminderSet), followUp, in.ID)
	if err != nil {
		return models.Interaction{}, fmt.Errorf("update interaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Interaction{}, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, contactId, date, type, notes, reminderSet,
			nextFollowUpDate, createdAt
		FROM interactions
		WHERE id = ?
	`, in.ID)
	return scanInteraction(row)
}

// DeleteInteraction removes one interaction.
func (s *Store) DeleteInteraction(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.record("interaction_delete", start, err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM interactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats summarizes the tracker for the dashboard.
type Stats struct {
	Contacts         int `json:"contacts"`
	Interactions     int `json:"interactions"`
	RemindersDueSoon int `json:"remindersDueSoon"`
}

// DashboardStats counts contacts, interactions, and reminders with a
// follow-up date within the next seven days.
func (s *Store) DashboardStats(ctx context.Context, now time.Time) (_ Stats, err error) {
	start := time.Now()
	defer func() { s.record("dashboard_stats", start, err) }()

	var st Stats
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&st.Contacts); err != nil {
		return Stats{}, fmt.Errorf("count contacts: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&st.Interactions); err != nil {
		return Stats{}, fmt.Errorf("count interactions: %w", err)
	}

	from := now.Format(models.DateLayout)
	to := now.AddDate(0, 0, 7).Format(models.DateLayout)
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM interactions
		WHERE reminderSet = 1
		  AND nextFollowUpDate IS NOT NULL
		  AND nextFollowUpDate >= ?
		  AND nextFollowUpDate <= ?
	`, from, to).Scan(&st.RemindersDueSoon)
	if err != nil {
		return Stats{}, fmt.Errorf("count reminders: %w", err)
	}
	return st, nil
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (models.Contact, error) {
	var c models.Contact
	var tags, createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Company, &c.Title,
		&c.Email, &c.Phone, &c.LinkedinURL, &c.Website, &c.Location,
		&c.Timezone, &c.Status, &tags, &createdAt, &updatedAt)
	if err != nil {
		return models.Contact{}, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return models.Contact{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return c, nil
}

func scanInteraction(row rowScanner) (models.Interaction, error) {
	var in models.Interaction
	var typ, createdAt string
	var reminder int
	var followUp sql.NullString
	err := row.Scan(&in.ID, &in.ContactID, &in.Date, &typ, &in.Notes,
		&reminder, &followUp, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Interaction{}, ErrNotFound
	}
	if err != nil {
		return models.Interaction{}, fmt.Errorf("scan interaction: %w", err)
	}
	in.Type = models.InteractionType(typ)
	in.ReminderSet = reminder != 0
	if followUp.Valid {
		in.NextFollowUpDate = &followUp.String
	}
	in.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return in, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
