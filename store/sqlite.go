package store

import (
	"botmaster-console/models"
	"botmaster-console/naming"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operators (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		operator_id TEXT REFERENCES operators(id),
		name_policy TEXT NOT NULL,
		base_name TEXT NOT NULL,
		count INTEGER NOT NULL,
		server_id INTEGER NOT NULL DEFAULT 0,
		invulnerable BOOLEAN DEFAULT FALSE,
		system_prompt TEXT,
		success_count INTEGER NOT NULL,
		failure_count INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_batches_created ON batches(created_at);

	CREATE TABLE IF NOT EXISTS batch_members (
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		name TEXT NOT NULL,
		bot_uuid TEXT,
		error TEXT,
		PRIMARY KEY (batch_id, idx)
	);

	CREATE TABLE IF NOT EXISTS session_events (
		id TEXT PRIMARY KEY,
		bot_uuid TEXT NOT NULL,
		action TEXT NOT NULL,
		provider_id INTEGER,
		operator_id TEXT REFERENCES operators(id),
		ok BOOLEAN NOT NULL,
		message TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_session_events_bot ON session_events(bot_uuid);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	s.runMigrations()
	return nil
}

func (s *Store) runMigrations() {
	var count int

	// Add journal_commit column to batches table if it doesn't exist
	s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('batches') WHERE name='journal_commit'`).Scan(&count)
	if count == 0 {
		s.db.Exec(`ALTER TABLE batches ADD COLUMN journal_commit TEXT`)
	}

	// Add interpolate_prompt column to batches table if it doesn't exist
	s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('batches') WHERE name='interpolate_prompt'`).Scan(&count)
	if count == 0 {
		s.db.Exec(`ALTER TABLE batches ADD COLUMN interpolate_prompt BOOLEAN DEFAULT FALSE`)
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Operator operations

func (s *Store) CreateOperator(username, displayName, password string) (*models.Operator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	op := &models.Operator{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	_, err = s.db.Exec(`
		INSERT INTO operators (id, username, display_name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, op.ID, op.Username, op.DisplayName, op.PasswordHash, op.CreatedAt)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (s *Store) GetOperatorByUsername(username string) (*models.Operator, error) {
	op := &models.Operator{}
	err := s.db.QueryRow(`
		SELECT id, username, display_name, password_hash, created_at
		FROM operators WHERE username = ?
	`, username).Scan(&op.ID, &op.Username, &op.DisplayName, &op.PasswordHash, &op.CreatedAt)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (s *Store) GetOperatorByID(id string) (*models.Operator, error) {
	op := &models.Operator{}
	err := s.db.QueryRow(`
		SELECT id, username, display_name, password_hash, created_at
		FROM operators WHERE id = ?
	`, id).Scan(&op.ID, &op.Username, &op.DisplayName, &op.PasswordHash, &op.CreatedAt)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (s *Store) ValidatePassword(op *models.Operator, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password))
	return err == nil
}

// Batch operations

// CreateBatch stores a finished batch and its member outcomes in one
// transaction. An empty id gets a fresh one.
func (s *Store) CreateBatch(id, operatorID string, spec models.BatchSpec, result models.BatchResult) (*models.BatchRecord, error) {
	if id == "" {
		id = uuid.New().String()
	}
	rec := &models.BatchRecord{
		ID:           id,
		OperatorID:   operatorID,
		Spec:         spec,
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		Members:      result.Members,
		CreatedAt:    time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO batches (id, operator_id, name_policy, base_name, count, server_id, invulnerable, system_prompt, interpolate_prompt, success_count, failure_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, nullIfEmpty(operatorID), spec.NamePolicy.String(), spec.BaseName, spec.Count, spec.ServerID,
		spec.Invulnerable, spec.SystemPrompt, spec.InterpolatePrompt, rec.SuccessCount, rec.FailureCount, rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, m := range result.Members {
		_, err = tx.Exec(`
			INSERT INTO batch_members (batch_id, idx, name, bot_uuid, error)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, m.Index, m.Name, nullIfEmpty(m.UUID), nullIfEmpty(m.Error))
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) SetBatchJournalCommit(id, commit string) error {
	_, err := s.db.Exec("UPDATE batches SET journal_commit = ? WHERE id = ?", commit, id)
	return err
}

const batchColumns = `id, COALESCE(operator_id, ''), name_policy, base_name, count, server_id, invulnerable,
	COALESCE(system_prompt, ''), COALESCE(interpolate_prompt, FALSE), success_count, failure_count, COALESCE(journal_commit, ''), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (*models.BatchRecord, error) {
	rec := &models.BatchRecord{}
	var policy string
	err := row.Scan(&rec.ID, &rec.OperatorID, &policy, &rec.Spec.BaseName, &rec.Spec.Count, &rec.Spec.ServerID,
		&rec.Spec.Invulnerable, &rec.Spec.SystemPrompt, &rec.Spec.InterpolatePrompt, &rec.SuccessCount, &rec.FailureCount, &rec.JournalCommit, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Spec.NamePolicy = naming.ParsePolicy(policy)
	return rec, nil
}

func (s *Store) GetBatch(id string) (*models.BatchRecord, error) {
	rec, err := scanBatch(s.db.QueryRow(`SELECT `+batchColumns+` FROM batches WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT idx, name, COALESCE(bot_uuid, ''), COALESCE(error, '')
		FROM batch_members WHERE batch_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.MemberOutcome
		if err := rows.Scan(&m.Index, &m.Name, &m.UUID, &m.Error); err != nil {
			return nil, err
		}
		rec.Members = append(rec.Members, m)
	}
	return rec, rows.Err()
}

// GetRecentBatches returns batch summaries, newest first, without members.
func (s *Store) GetRecentBatches(limit int) ([]models.BatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`SELECT `+batchColumns+` FROM batches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []models.BatchRecord
	for rows.Next() {
		rec, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *rec)
	}
	return batches, rows.Err()
}

// Session audit

func (s *Store) RecordSessionEvent(botUUID, action string, providerID int64, operatorID string, ok bool, message string) (*models.SessionEvent, error) {
	ev := &models.SessionEvent{
		ID:         uuid.New().String(),
		BotUUID:    botUUID,
		Action:     action,
		ProviderID: providerID,
		OperatorID: operatorID,
		OK:         ok,
		Message:    message,
		CreatedAt:  time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO session_events (id, bot_uuid, action, provider_id, operator_id, ok, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.BotUUID, ev.Action, ev.ProviderID, nullIfEmpty(ev.OperatorID), ev.OK, ev.Message, ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Store) GetSessionEvents(botUUID string, limit int) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, bot_uuid, action, COALESCE(provider_id, 0), COALESCE(operator_id, ''), ok, COALESCE(message, ''), created_at
		FROM session_events WHERE bot_uuid = ?
		ORDER BY created_at DESC LIMIT ?
	`, botUUID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.SessionEvent
	for rows.Next() {
		var ev models.SessionEvent
		err := rows.Scan(&ev.ID, &ev.BotUUID, &ev.Action, &ev.ProviderID, &ev.OperatorID, &ev.OK, &ev.Message, &ev.CreatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Settings

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	return value, err
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

func (s *Store) GetAllSettings() ([]models.Setting, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, err
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
