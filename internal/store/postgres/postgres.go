package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Profiles() store.Profiles { return &profiles{db: s.db} }
func (s *pgStore) Sessions() store.Sessions { return &sessions{db: s.db} }
func (s *pgStore) Messages() store.Messages { return &messages{db: s.db} }
func (s *pgStore) Moods() store.Moods       { return &moods{db: s.db} }
func (s *pgStore) Notes() store.Notes       { return &notes{db: s.db} }
func (s *pgStore) Links() store.Links       { return &links{db: s.db} }
func (s *pgStore) MoodData() store.MoodData { return &moodData{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap performs a connectivity check to ensure Postgres is reachable.
// This is a fast ping-only check since migrations handle schema setup.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}

	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return db.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

// --- Profiles ---
type profiles struct{ db *sql.DB }

func (p *profiles) Create(ctx context.Context, m *model.Profile) (*model.Profile, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	var created, updated time.Time
	row := p.db.QueryRowContext(ctx, `
        INSERT INTO profiles (id, email, first_name, last_name, role)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at
    `, id, m.Email, m.FirstName, m.LastName, string(m.Role))
	if err := row.Scan(&created, &updated); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = created
	out.UpdatedAt = updated
	return &out, nil
}

func (p *profiles) Get(ctx context.Context, id string) (*model.Profile, error) {
	var out model.Profile
	var role string
	row := p.db.QueryRowContext(ctx, `
        SELECT id, email, first_name, last_name, role, created_at, updated_at
        FROM profiles WHERE id=$1
    `, id)
	if err := row.Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &role, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	out.Role = model.Role(role)
	return &out, nil
}

func (p *profiles) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var out model.Profile
	var role string
	row := p.db.QueryRowContext(ctx, `
        SELECT id, email, first_name, last_name, role, created_at, updated_at
        FROM profiles WHERE email=$1
    `, email)
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
	res, err := p.db.ExecContext(ctx, `UPDATE profiles SET role=$1, updated_at=now() WHERE id=$2`, string(role), id)
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
	var created, lastUpdated time.Time
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO chat_sessions (id, patient_id, title)
        VALUES ($1,$2,$3)
        RETURNING created_at, last_updated
    `, id, m.PatientID, m.Title)
	if err := row.Scan(&created, &lastUpdated); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = created
	out.LastUpdated = lastUpdated
	return &out, nil
}

func (s *sessions) Get(ctx context.Context, id string) (*model.ChatSession, error) {
	var out model.ChatSession
	row := s.db.QueryRowContext(ctx, `
        SELECT id, patient_id, title, created_at, last_updated
        FROM chat_sessions WHERE id=$1
    `, id)
	if err := row.Scan(&out.ID, &out.PatientID, &out.Title, &out.CreatedAt, &out.LastUpdated); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (s *sessions) ListByPatient(ctx context.Context, patientID string) ([]*model.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, patient_id, title, created_at, last_updated
        FROM chat_sessions WHERE patient_id=$1 ORDER BY last_updated DESC
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

	// The row lock serializes appends per session so seq assignment cannot
	// collide on concurrent writes.
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE id=$1 FOR UPDATE`, m.SessionID).Scan(&exists); err != nil {
		return nil, notFound(err)
	}

	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	var seq int64
	var created time.Time
	row := tx.QueryRowContext(ctx, `
        INSERT INTO messages (id, session_id, seq, role, content)
        SELECT $1, $2, COALESCE(MAX(seq),0)+1, $3, $4 FROM messages WHERE session_id=$2
        RETURNING seq, created_at
    `, id, m.SessionID, string(m.Role), m.Content)
	if err := row.Scan(&seq, &created); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET last_updated=$1 WHERE id=$2`, created, m.SessionID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	out := *m
	out.ID = id
	out.Seq = seq
	out.CreatedAt = created
	return &out, nil
}

func (e *messages) List(ctx context.Context, req model.ListMessagesRequest) ([]*model.Message, error) {
	query := `SELECT id, session_id, seq, role, content, created_at
              FROM messages WHERE session_id=$1`
	args := []interface{}{req.SessionID}
	if req.AfterSeq > 0 {
		query += " AND seq > $2"
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
	var logged time.Time
	row := mo.db.QueryRowContext(ctx, `
        INSERT INTO patient_mood_logs (id, patient_id, mood_score, note)
        VALUES ($1,$2,$3,$4)
        RETURNING logged_at
    `, id, m.PatientID, m.Score, m.Note)
	if err := row.Scan(&logged); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.LoggedAt = logged
	return &out, nil
}

func (mo *moods) ListByPatient(ctx context.Context, patientID string, limit int) ([]*model.MoodLog, error) {
	query := `SELECT id, patient_id, mood_score, note, logged_at
              FROM patient_mood_logs WHERE patient_id=$1 ORDER BY logged_at DESC`
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
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	var outID string
	var created, updated time.Time
	row := n.db.QueryRowContext(ctx, `
        INSERT INTO patient_notes (id, patient_id, therapist_id, content)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (patient_id) DO UPDATE
            SET content=EXCLUDED.content,
                therapist_id=EXCLUDED.therapist_id,
                updated_at=now()
        RETURNING id, created_at, updated_at
    `, id, m.PatientID, m.TherapistID, m.Content)
	if err := row.Scan(&outID, &created, &updated); err != nil {
		return nil, err
	}
	out := *m
	out.ID = outID
	out.CreatedAt = created
	out.UpdatedAt = updated
	return &out, nil
}

func (n *notes) GetByPatient(ctx context.Context, patientID string) (*model.PatientNote, error) {
	var out model.PatientNote
	row := n.db.QueryRowContext(ctx, `
        SELECT id, patient_id, therapist_id, content, created_at, updated_at
        FROM patient_notes WHERE patient_id=$1
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
        FROM therapist_patients WHERE therapist_id=$1 AND patient_id=$2
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
	var created time.Time
	row := l.db.QueryRowContext(ctx, `
        INSERT INTO therapist_patients (id, therapist_id, patient_id)
        VALUES ($1,$2,$3)
        ON CONFLICT (therapist_id, patient_id) DO UPDATE SET therapist_id=EXCLUDED.therapist_id
        RETURNING id, created_at
    `, id, m.TherapistID, m.PatientID)
	if err := row.Scan(&id, &created); err != nil {
		return nil, false, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = created
	return &out, false, nil
}

func (l *links) ListByTherapist(ctx context.Context, therapistID string) ([]*model.TherapistPatientLink, error) {
	return l.list(ctx, `
        SELECT id, therapist_id, patient_id, created_at
        FROM therapist_patients WHERE therapist_id=$1 ORDER BY created_at
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
        VALUES ($1,$2,$3)
        ON CONFLICT (patient_id, date) DO UPDATE SET value=EXCLUDED.value
    `, d.PatientID, d.Date, d.Value)
	return err
}

func (md *moodData) ListByPatient(ctx context.Context, patientID string) ([]*model.MoodDatum, error) {
	rows, err := md.db.QueryContext(ctx, `
        SELECT patient_id, date, value
        FROM mood_data WHERE patient_id=$1 ORDER BY date
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
