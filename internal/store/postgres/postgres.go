package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
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
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db, q: db} }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pgStore struct {
	db *sql.DB // nil inside a transaction
	q  querier
}

func (s *pgStore) Users() store.Users       { return &users{q: s.q} }
func (s *pgStore) Personas() store.Personas { return &personas{q: s.q} }
func (s *pgStore) Dialogs() store.Dialogs   { return &dialogs{q: s.q} }
func (s *pgStore) Messages() store.Messages { return &messages{q: s.q} }
func (s *pgStore) Features() store.Features { return &features{q: s.q} }

func (s *pgStore) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.db == nil {
		// Already transactional; nested calls reuse the same tx.
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", model.ErrPersistence, err)
	}
	txStore := &pgStore{q: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", model.ErrPersistence, err)
	}
	return nil
}

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// --- Users ---

type users struct{ q querier }

func (u *users) Get(ctx context.Context, userID int64) (*model.User, error) {
	var out model.User
	row := u.q.QueryRowContext(ctx, `
        SELECT user_id, first_name, entitlement, trial_messages, active_persona_id, accepted_terms, creation_time
        FROM users WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.ID, &out.FirstName, &out.Entitlement, &out.TrialMessages,
		&out.ActivePersonaID, &out.AcceptedTerms, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (u *users) DecrementTrial(ctx context.Context, userID int64) error {
	_, err := u.q.ExecContext(ctx, `
        UPDATE users SET trial_messages = trial_messages - 1
        WHERE user_id=$1 AND trial_messages > 0
    `, userID)
	return err
}

// --- Personas ---

type personas struct{ q querier }

const personaCols = `persona_id, key, name, archetype, base_prompt, triggers, is_default`

func scanPersona(row *sql.Row) (*model.Persona, error) {
	var out model.Persona
	var triggers sql.NullString
	if err := row.Scan(&out.ID, &out.Key, &out.Name, &out.Archetype, &out.BasePrompt,
		&triggers, &out.IsDefault); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPersonaNotFound
		}
		return nil, err
	}
	if triggers.Valid && triggers.String != "" {
		out.Triggers = strings.Split(triggers.String, ",")
	}
	return &out, nil
}

func (p *personas) GetByID(ctx context.Context, personaID int64) (*model.Persona, error) {
	return scanPersona(p.q.QueryRowContext(ctx,
		`SELECT `+personaCols+` FROM personas WHERE persona_id=$1`, personaID))
}

func (p *personas) GetByKey(ctx context.Context, key string) (*model.Persona, error) {
	return scanPersona(p.q.QueryRowContext(ctx,
		`SELECT `+personaCols+` FROM personas WHERE key=$1`, key))
}

func (p *personas) Default(ctx context.Context) (*model.Persona, error) {
	return scanPersona(p.q.QueryRowContext(ctx,
		`SELECT `+personaCols+` FROM personas WHERE is_default ORDER BY persona_id LIMIT 1`))
}

func (p *personas) Stories(ctx context.Context, personaID int64) ([]*model.Story, error) {
	rows, err := p.q.QueryContext(ctx, `
        SELECT persona_id, story_key, title, scene_prompt, atmosphere, COALESCE(cover_path,'')
        FROM stories WHERE persona_id=$1 ORDER BY story_key
    `, personaID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Story
	for rows.Next() {
		var s model.Story
		if err := rows.Scan(&s.PersonaID, &s.Key, &s.Title, &s.ScenePrompt, &s.Atmosphere, &s.CoverPath); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// --- Dialogs ---

type dialogs struct{ q querier }

const dialogCols = `dialog_id, user_id, persona_id, slot, is_active, story_key, atmosphere,
        message_count, last_image_at, greeting_image_index, creation_time, update_time`

func scanDialog(row *sql.Row) (*model.Dialog, error) {
	var out model.Dialog
	if err := row.Scan(&out.ID, &out.UserID, &out.PersonaID, &out.Slot, &out.Active,
		&out.StoryKey, &out.Atmosphere, &out.MessageCount, &out.LastImageAt,
		&out.GreetingImageIndex, &out.CreationTime, &out.UpdateTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrDialogNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (d *dialogs) Get(ctx context.Context, dialogID int64) (*model.Dialog, error) {
	return scanDialog(d.q.QueryRowContext(ctx,
		`SELECT `+dialogCols+` FROM dialogs WHERE dialog_id=$1`, dialogID))
}

func (d *dialogs) FindActive(ctx context.Context, userID, personaID int64) (*model.Dialog, error) {
	dlg, err := scanDialog(d.q.QueryRowContext(ctx,
		`SELECT `+dialogCols+` FROM dialogs WHERE user_id=$1 AND persona_id=$2 AND is_active`,
		userID, personaID))
	if errors.Is(err, model.ErrDialogNotFound) {
		return nil, nil
	}
	return dlg, err
}

func (d *dialogs) UsedSlots(ctx context.Context, userID int64) ([]int, error) {
	rows, err := d.q.QueryContext(ctx, `
        SELECT slot FROM dialogs
        WHERE user_id=$1 AND is_active AND slot IS NOT NULL
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []int
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

func (d *dialogs) Create(ctx context.Context, in *model.Dialog) (*model.Dialog, error) {
	row := d.q.QueryRowContext(ctx, `
        INSERT INTO dialogs (user_id, persona_id, slot, is_active, story_key, atmosphere, message_count, greeting_image_index)
        VALUES ($1,$2,$3,TRUE,$4,$5,0,0)
        RETURNING dialog_id, creation_time, update_time
    `, in.UserID, in.PersonaID, in.Slot, in.StoryKey, in.Atmosphere)
	out := *in
	out.Active = true
	out.MessageCount = 0
	if err := row.Scan(&out.ID, &out.CreationTime, &out.UpdateTime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *dialogs) Update(ctx context.Context, in *model.Dialog) error {
	_, err := d.q.ExecContext(ctx, `
        UPDATE dialogs
        SET slot=$2, story_key=$3, atmosphere=$4, last_image_at=$5,
            greeting_image_index=$6, update_time=now()
        WHERE dialog_id=$1
    `, in.ID, in.Slot, in.StoryKey, in.Atmosphere, in.LastImageAt, in.GreetingImageIndex)
	return err
}

func (d *dialogs) SetLastImageAt(ctx context.Context, dialogID int64, lastImageAt int) error {
	_, err := d.q.ExecContext(ctx, `
        UPDATE dialogs SET last_image_at=$2, update_time=now() WHERE dialog_id=$1
    `, dialogID, lastImageAt)
	return err
}

func (d *dialogs) ListSlotted(ctx context.Context, userID int64) ([]*model.Dialog, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT `+dialogCols+` FROM dialogs
         WHERE user_id=$1 AND is_active AND slot IS NOT NULL ORDER BY slot`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Dialog
	for rows.Next() {
		var dd model.Dialog
		if err := rows.Scan(&dd.ID, &dd.UserID, &dd.PersonaID, &dd.Slot, &dd.Active,
			&dd.StoryKey, &dd.Atmosphere, &dd.MessageCount, &dd.LastImageAt,
			&dd.GreetingImageIndex, &dd.CreationTime, &dd.UpdateTime); err != nil {
			return nil, err
		}
		out = append(out, &dd)
	}
	return out, rows.Err()
}

func (d *dialogs) Deactivate(ctx context.Context, dialogID int64) error {
	res, err := d.q.ExecContext(ctx, `
        UPDATE dialogs SET is_active=FALSE, slot=NULL, update_time=now()
        WHERE dialog_id=$1
    `, dialogID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrDialogNotFound
	}
	return nil
}

// --- Messages ---

type messages struct{ q querier }

func (m *messages) Append(ctx context.Context, in *model.Message) (*model.Message, error) {
	row := m.q.QueryRowContext(ctx, `
        INSERT INTO messages (dialog_id, role, content)
        VALUES ($1,$2,$3)
        RETURNING message_id, creation_time
    `, in.DialogID, in.Role, in.Content)
	out := *in
	if err := row.Scan(&out.ID, &out.CreationTime); err != nil {
		return nil, err
	}
	// message_count mirrors the physical row count; bumped in the same tx.
	if _, err := m.q.ExecContext(ctx, `
        UPDATE dialogs SET message_count = message_count + 1, update_time=now()
        WHERE dialog_id=$1
    `, in.DialogID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *messages) Recent(ctx context.Context, dialogID int64, limit int) ([]*model.Message, error) {
	rows, err := m.q.QueryContext(ctx, `
        SELECT message_id, dialog_id, role, content, creation_time
        FROM messages WHERE dialog_id=$1
        ORDER BY message_id DESC LIMIT $2
    `, dialogID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Message
	for rows.Next() {
		var mm model.Message
		if err := rows.Scan(&mm.ID, &mm.DialogID, &mm.Role, &mm.Content, &mm.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, &mm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *messages) Last(ctx context.Context, dialogID int64) (*model.Message, error) {
	var mm model.Message
	row := m.q.QueryRowContext(ctx, `
        SELECT message_id, dialog_id, role, content, creation_time
        FROM messages WHERE dialog_id=$1
        ORDER BY message_id DESC LIMIT 1
    `, dialogID)
	if err := row.Scan(&mm.ID, &mm.DialogID, &mm.Role, &mm.Content, &mm.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &mm, nil
}

func (m *messages) CountByDialog(ctx context.Context, dialogID int64) (int, error) {
	var n int
	err := m.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE dialog_id=$1`, dialogID).Scan(&n)
	return n, err
}

// --- Features ---

type features struct{ q querier }

func (f *features) UnlockedCodes(ctx context.Context, userID int64) ([]string, error) {
	rows, err := f.q.QueryContext(ctx, `
        SELECT code FROM feature_unlocks WHERE user_id=$1 AND enabled
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// Bootstrap performs a connectivity check to ensure Postgres is reachable.
// Schema migrations are owned by an external collaborator.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(pingCtx)
}
