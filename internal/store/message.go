package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"mnemos.app/archive/common/id"
	"mnemos.app/archive/internal/model"
)

type messageStore struct {
	db DBTX
}

func newMessageStore(db DBTX) MessageStore {
	return &messageStore{db: db}
}

const messageColumns = `id, heap_id, seq, kind, sender, parent_id, ref, session_id, ts,
	anchor, fingerprint, payload, content_text, metadata, created_at`

func (s *messageStore) GetByID(ctx context.Context, msgID int64) (*model.Message, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, msgID)
	return scanMessage(row)
}

func (s *messageStore) GetByFingerprint(ctx context.Context, fingerprint string) (*model.Message, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE fingerprint = $1`, fingerprint)
	return scanMessage(row)
}

// GetByRef resolves a source-carried entry identifier to the earliest
// message created for it.
func (s *messageStore) GetByRef(ctx context.Context, ref string) (*model.Message, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE ref = $1 ORDER BY created_at, id LIMIT 1`, ref)
	return scanMessage(row)
}

func (s *messageStore) Create(ctx context.Context, msg *model.Message) error {
	if msg.ID == 0 {
		msg.ID = id.New()
	}

	var meta []byte
	if msg.Metadata != nil {
		var err error
		meta, err = json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO messages (id, heap_id, seq, kind, sender, parent_id, ref, session_id,
			ts, anchor, fingerprint, payload, content_text, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at`,
		msg.ID, msg.HeapID, msg.Seq, msg.Kind, msg.Sender, msg.ParentID, msg.Ref, msg.SessionID,
		msg.Timestamp, msg.Anchor, msg.Fingerprint, []byte(msg.Payload), msg.ContentText, meta)
	return row.Scan(&msg.CreatedAt)
}

func (s *messageStore) MaxSeq(ctx context.Context, heapID int64) (int, error) {
	row := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM messages WHERE heap_id = $1`, heapID)
	var max int
	if err := row.Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (s *messageStore) LastInHeap(ctx context.Context, heapID int64) (*model.Message, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE heap_id = $1 ORDER BY seq DESC LIMIT 1`, heapID)
	return scanMessage(row)
}

func (s *messageStore) ListByHeap(ctx context.Context, heapID int64) ([]model.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE heap_id = $1 ORDER BY seq`, heapID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *messageStore) ListByEra(ctx context.Context, eraID int64) ([]model.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.heap_id, m.seq, m.kind, m.sender, m.parent_id, m.ref, m.session_id,
			m.ts, m.anchor, m.fingerprint, m.payload, m.content_text, m.metadata, m.created_at
		 FROM messages m
		 JOIN context_heaps h ON h.id = m.heap_id
		 WHERE h.era_id = $1
		 ORDER BY h.created_at, h.id, m.seq`, eraID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *messageStore) ListBefore(ctx context.Context, ts time.Time, msgID int64, limit int) ([]model.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE (ts, id) < ($1, $2)
		 ORDER BY ts DESC, id DESC
		 LIMIT $3`, ts, msgID, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *messageStore) ListSince(ctx context.Context, ts time.Time, msgID int64, limit int) ([]model.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE (ts, id) > ($1, $2)
		 ORDER BY ts, id
		 LIMIT $3`, ts, msgID, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *messageStore) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 ORDER BY ts DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *messageStore) Search(ctx context.Context, query string, limit int) ([]model.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+`,
			ts_rank(to_tsvector('english', content_text), websearch_to_tsquery('english', $1)) AS rank
		 FROM messages
		 WHERE to_tsvector('english', content_text) @@ websearch_to_tsquery('english', $1)
		 ORDER BY rank DESC, ts DESC, id DESC
		 LIMIT $2`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var (
			m    model.Message
			rank float32
		)
		if err := scanMessageFields(rows, &m, &rank); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	if err := scanMessageFields(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func scanMessages(rows pgx.Rows) ([]model.Message, error) {
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := scanMessageFields(rows, &m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// scanMessageFields scans the messageColumns set plus any trailing extras.
func scanMessageFields(row pgx.Row, m *model.Message, extras ...any) error {
	var (
		payload []byte
		meta    []byte
	)

	dest := []any{&m.ID, &m.HeapID, &m.Seq, &m.Kind, &m.Sender, &m.ParentID, &m.Ref, &m.SessionID,
		&m.Timestamp, &m.Anchor, &m.Fingerprint, &payload, &m.ContentText, &meta, &m.CreatedAt}
	dest = append(dest, extras...)

	if err := row.Scan(dest...); err != nil {
		return err
	}

	m.Payload = json.RawMessage(payload)
	if len(meta) > 0 {
		m.Metadata = &model.MessageMetadata{}
		if err := json.Unmarshal(meta, m.Metadata); err != nil {
			return fmt.Errorf("decoding metadata: %w", err)
		}
	}
	return nil
}
