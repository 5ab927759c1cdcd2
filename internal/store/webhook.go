package store

import (
	"context"
	"database/sql"
	"errors"

	"advocacia.app/internal/ids"
)

// MessageContact identifies the sender of an inbound chat message.
type MessageContact struct {
	Nome     string
	Telefone string
	// Whatsapp is the messaging handle; empty means the phone doubles as handle.
	Whatsapp string
}

func (c MessageContact) handle() string {
	if c.Whatsapp != "" {
		return c.Whatsapp
	}
	return c.Telefone
}

// MessageResult reports which branch an upsert took.
type MessageResult struct {
	ClienteID string
	Created   bool
	Activity  Activity
}

// ActivityNote renders the log entry for an upsert branch.
type ActivityNote func(created bool) (acao, descricao string)

// UpsertClientFromMessage finds the oldest client whose telefone or whatsapp
// matches the contact and refreshes its nome and whatsapp, or creates a new
// client with status "novo". The log entry from note is written in the same
// transaction, so either both rows change or neither does.
func (s *Store) UpsertClientFromMessage(ctx context.Context, contact MessageContact, note ActivityNote) (MessageResult, error) {
	if contact.Nome == "" || contact.Telefone == "" {
		return MessageResult{}, errors.New("store: contact nome and telefone are required")
	}
	handle := contact.handle()
	now := s.timestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MessageResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var res MessageResult
	err = tx.QueryRowContext(ctx, s.q(`
		UPDATE clientes SET nome = ?, whatsapp = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM clientes
			WHERE telefone IN (?, ?) OR whatsapp IN (?, ?)
			ORDER BY created_at, id
			LIMIT 1
		)
		RETURNING id`),
		contact.Nome, handle, now,
		contact.Telefone, handle, contact.Telefone, handle,
	).Scan(&res.ClienteID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res.ClienteID = ids.New()
		res.Created = true
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO clientes (id, nome, telefone, whatsapp, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			res.ClienteID, contact.Nome, contact.Telefone, handle, StatusNovo, now, now); err != nil {
			return MessageResult{}, classifyWrite(err)
		}
	case err != nil:
		return MessageResult{}, err
	}

	acao, descricao := note(res.Created)
	res.Activity, err = s.appendActivity(ctx, tx, nil, acao, descricao)
	if err != nil {
		return MessageResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return MessageResult{}, err
	}
	return res, nil
}
