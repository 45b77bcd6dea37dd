package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. Use ":memory:" for an in-process database.
func Open(path string) (*sql.DB, error) {
	dsn := "file::memory:?_pragma=foreign_keys(ON)"
	if path != ":memory:" && path != "" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection sidesteps SQLITE_BUSY under concurrent writers and
	// keeps in-memory databases alive across statements.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id          TEXT PRIMARY KEY,
    email       TEXT NOT NULL UNIQUE,
    first_name  TEXT,
    last_name   TEXT,
    role        TEXT NOT NULL DEFAULT 'patient',
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_sessions (
    id           TEXT PRIMARY KEY,
    patient_id   TEXT NOT NULL REFERENCES profiles(id),
    title        TEXT,
    created_at   TIMESTAMP NOT NULL,
    last_updated TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES chat_sessions(id),
    seq        INTEGER NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (session_id, seq)
);

CREATE TABLE IF NOT EXISTS patient_mood_logs (
    id         TEXT PRIMARY KEY,
    patient_id TEXT NOT NULL REFERENCES profiles(id),
    mood_score INTEGER NOT NULL,
    note       TEXT,
    logged_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS patient_notes (
    id           TEXT PRIMARY KEY,
    patient_id   TEXT NOT NULL UNIQUE REFERENCES profiles(id),
    therapist_id TEXT,
    content      TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS therapist_patients (
    id           TEXT PRIMARY KEY,
    therapist_id TEXT NOT NULL REFERENCES profiles(id),
    patient_id   TEXT NOT NULL REFERENCES profiles(id),
    created_at   TIMESTAMP NOT NULL,
    UNIQUE (therapist_id, patient_id)
);

CREATE TABLE IF NOT EXISTS mood_data (
    patient_id TEXT NOT NULL REFERENCES profiles(id),
    date       TIMESTAMP NOT NULL,
    value      REAL NOT NULL,
    PRIMARY KEY (patient_id, date)
);
`

// New opens the database at path, ensures the schema exists, and returns the
// store. SQLite bootstraps its own schema; it is the dev/test driver.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

// NewWithDB wraps an existing connection whose schema is already in place.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Profiles() store.Profiles { return &profiles{db: s.db} }
func (s *sqliteStore) Sessions() store.Sessions { return &sessions{db: s.db} }
func (s *sqliteStore) Messages() store.Messages { return &messages{db: s.db} }
func (s *sqliteStore) Moods() store.Moods       { return &moods{db: s.db} }
func (s *sqliteStore) Notes() store.Notes       { return &notes{db: s.db} }
func (s *sqliteStore) Links() store.Links       { return &links{db: s.db} }
func (s *sqliteStore) MoodData() store.MoodData { return &moodData{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// --- Profiles ---
type profiles struct{ db *sql.DB }

func (p *profiles) Create(ctx context.Context, m *model.Profile) (*model.Profile, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := now()
	if _, err := p.db.ExecContext(ctx, `
        INSERT INTO profiles (id, email, first_name, last_name, role, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?)
    `, id, m.Email, m.FirstName, m.LastName, string(m.Role), ts, ts); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = ts
	out.UpdatedAt = ts
	return &out, nil
}

func (p *profiles) Get(ctx context.Context, id string) (*model.Profile, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, `
        SELECT id, email, first_name, last_name, role, created_at, updated_at
        FROM profiles WHERE id=?
    `, id))
}

func (p *profiles) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, `
        SELECT id, email, first_name, last_name, role, created_at, updated_at
        FROM profiles WHERE email=?
    `, email))
}

func (p *profiles) scanOne(row *sql.Row) (*model.Profile, error) {
	var out model.Profile
	var role string
	if err := row.Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &role, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	out.Role = model.Role(role)
	return &out, nil
}

func (p *profiles) List(ctx context.Context) ([]*model.Profile, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, email, first_name, last_name, role, created_at, updated_at
        FROM profiles ORDER BY created_at
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Profile
	for rows.Next() {
		var m model.Profile
		var role string
		if err := rows.Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		res = append(res, &m)
	}
	return res, rows.Err()
}

func (p *profiles) UpdateRole(ctx context.Context, id string, role model.Role) error {
	res, err := p.db.ExecContext(ctx, `UPDATE profiles SET role=?, updated_at=? WHERE id=?`, string(role), now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Sessions ---
type sessions struct{ db *sql.DB }

func (s *sessions) Create(ctx context.Context, m *model.ChatSession) (*model.ChatSession, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := now()
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO chat_sessions (id, patient_id, title, created_at, last_updated)
        VALUES (?,?,?,?,?)
    `, id, m.PatientID, m.Title, ts, ts); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = ts
	out.LastUpdated = ts
	return &out, nil
}

func (s *sessions) Get(ctx context.Context, id string) (*model.ChatSession, error) {
	var out model.ChatSession
	row := s.db.QueryRowContext(ctx, `
        SELECT id, patient_id, title, created_at, last_updated
        FROM chat_sessions WHERE id=?
    `, id)
	if err := row.Scan(&out.ID, &out.PatientID, &out.Title, &out.CreatedAt, &out.LastUpdated); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (s *sessions) ListByPatient(ctx context.Context, patientID string) ([]*model.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, patient_id, title, created_at, last_updated
        FROM chat_sessions WHERE patient_id=? ORDER BY last_updated DESC
    `, patientID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.ChatSession
	for rows.Next() {
		var m model.ChatSession
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Title, &m.CreatedAt, &m.LastUpdated); err != nil {
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}

// --- Messages ---
type messages struct{ db *sql.DB }

func (e *messages) Append(ctx context.Context, m *model.Message) (*model.Message, error) {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE id=?`, m.SessionID).Scan(&exists); err != nil {
		return nil, notFound(err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq),0)+1 FROM messages WHERE session_id=?`, m.SessionID).Scan(&seq); err != nil {
		return nil, err
	}

	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := now()
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO messages (id, session_id, seq, role, content, created_at)
        VALUES (?,?,?,?,?,?)
    `, id, m.SessionID, seq, string(m.Role), m.Content, ts); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET last_updated=? WHERE id=?`, ts, m.SessionID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	out := *m
	out.ID = id
	out.Seq = seq
	out.CreatedAt = ts
	return &out, nil
}

func (e *messages) List(ctx context.Context, req model.ListMessagesRequest) ([]*model.Message, error) {
	query := `SELECT id, session_id, seq, role, content, created_at
              FROM messages WHERE session_id=?`
	args := []interface{}{req.SessionID}
	if req.AfterSeq > 0 {
		query += " AND seq > ?"
		args = append(args, req.AfterSeq)
	}
	query += " ORDER BY seq ASC"
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", req.Limit)
	}
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Message
	for rows.Next() {
		var m model.Message
		var role string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = model.MessageRole(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- Moods ---
type moods struct{ db *sql.DB }

func (mo *moods) Create(ctx context.Context, m *model.MoodLog) (*model.MoodLog, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := now()
	if _, err := mo.db.ExecContext(ctx, `
        INSERT INTO patient_mood_logs (id, patient_id, mood_score, note, logged_at)
        VALUES (?,?,?,?,?)
    `, id, m.PatientID, m.Score, m.Note, ts); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.LoggedAt = ts
	return &out, nil
}

func (mo *moods) ListByPatient(ctx context.Context, patientID string, limit int) ([]*model.MoodLog, error) {
	query := `SELECT id, patient_id, mood_score, note, logged_at
              FROM patient_mood_logs WHERE patient_id=? ORDER BY logged_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := mo.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.MoodLog
	for rows.Next() {
		var m model.MoodLog
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Score, &m.Note, &m.LoggedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- Notes ---
type notes struct{ db *sql.DB }

func (n *notes) Upsert(ctx context.Context, m *model.PatientNote) (*model.PatientNote, error) {
	existing, err := n.GetByPatient(ctx, m.PatientID)
	ts := now()
	switch {
	case err == nil:
		if _, err := n.db.ExecContext(ctx, `
            UPDATE patient_notes SET content=?, therapist_id=?, updated_at=? WHERE patient_id=?
        `, m.Content, m.TherapistID, ts, m.PatientID); err != nil {
			return nil, err
		}
		out := *m
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
		out.UpdatedAt = ts
		return &out, nil
	case errors.Is(err, model.ErrNotFound):
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := n.db.ExecContext(ctx, `
            INSERT INTO patient_notes (id, patient_id, therapist_id, content, created_at, updated_at)
            VALUES (?,?,?,?,?,?)
        `, id, m.PatientID, m.TherapistID, m.Content, ts, ts); err != nil {
			return nil, err
		}
		out := *m
		out.ID = id
		out.CreatedAt = ts
		out.UpdatedAt = ts
		return &out, nil
	default:
		return nil, err
	}
}

func (n *notes) GetByPatient(ctx context.Context, patientID string) (*model.PatientNote, error) {
	var out model.PatientNote
	row := n.db.QueryRowContext(ctx, `
        SELECT id, patient_id, therapist_id, content, created_at, updated_at
        FROM patient_notes WHERE patient_id=?
    `, patientID)
	if err := row.Scan(&out.ID, &out.PatientID, &out.TherapistID, &out.Content, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

// --- Links ---
type links struct{ db *sql.DB }

func (l *links) Create(ctx context.Context, m *model.TherapistPatientLink) (*model.TherapistPatientLink, bool, error) {
	var existing model.TherapistPatientLink
	err := l.db.QueryRowContext(ctx, `
        SELECT id, therapist_id, patient_id, created_at
        FROM therapist_patients WHERE therapist_id=? AND patient_id=?
    `, m.TherapistID, m.PatientID).Scan(&existing.ID, &existing.TherapistID, &existing.PatientID, &existing.CreatedAt)
	if err == nil {
		return &existing, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := now()
	if _, err := l.db.ExecContext(ctx, `
        INSERT INTO therapist_patients (id, therapist_id, patient_id, created_at)
        VALUES (?,?,?,?)
    `, id, m.TherapistID, m.PatientID, ts); err != nil {
		return nil, false, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = ts
	return &out, false, nil
}

func (l *links) ListByTherapist(ctx context.Context, therapistID string) ([]*model.TherapistPatientLink, error) {
	return l.list(ctx, `
        SELECT id, therapist_id, patient_id, created_at
        FROM therapist_patients WHERE therapist_id=? ORDER BY created_at
    `, therapistID)
}

func (l *links) List(ctx context.Context) ([]*model.TherapistPatientLink, error) {
	return l.list(ctx, `
        SELECT id, therapist_id, patient_id, created_at
        FROM therapist_patients ORDER BY created_at
    `)
}

func (l *links) list(ctx context.Context, query string, args ...interface{}) ([]*model.TherapistPatientLink, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.TherapistPatientLink
	for rows.Next() {
		var m model.TherapistPatientLink
		if err := rows.Scan(&m.ID, &m.TherapistID, &m.PatientID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- MoodData ---
type moodData struct{ db *sql.DB }

func (md *moodData) Put(ctx context.Context, d *model.MoodDatum) error {
	_, err := md.db.ExecContext(ctx, `
        INSERT INTO mood_data (patient_id, date, value)
        VALUES (?,?,?)
        ON CONFLICT (patient_id, date) DO UPDATE SET value=excluded.value
    `, d.PatientID, d.Date, d.Value)
	return err
}

func (md *moodData) ListByPatient(ctx context.Context, patientID string) ([]*model.MoodDatum, error) {
	rows, err := md.db.QueryContext(ctx, `
        SELECT patient_id, date, value
        FROM mood_data WHERE patient_id=? ORDER BY date
    `, patientID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.MoodDatum
	for rows.Next() {
		var m model.MoodDatum
		if err := rows.Scan(&m.PatientID, &m.Date, &m.Value); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
