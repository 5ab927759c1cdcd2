package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"advocacia.app/internal/ids"
)

const clientColumns = `id, nome, email, telefone, whatsapp, cpf_cnpj, endereco, cidade, estado, cep,
	status, setor_id, observacoes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Nome, &c.Email, &c.Telefone, &c.Whatsapp, &c.CpfCnpj, &c.Endereco,
		&c.Cidade, &c.Estado, &c.Cep, &c.Status, &c.SetorID, &c.Observacoes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListClients returns clients newest first. Filters are ANDed.
func (s *Store) ListClients(ctx context.Context, f ClientFilter) ([]Client, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.SetorID != "" {
		where = append(where, "setor_id = ?")
		args = append(args, f.SetorID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := s.dialect.Like()
		where = append(where, "(nome "+like+" ? OR email "+like+" ? OR telefone "+like+" ?)")
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern, pattern)
	}
	query := "SELECT " + clientColumns + " FROM clientes"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetClient(ctx context.Context, id string) (Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx, s.q("SELECT "+clientColumns+" FROM clientes WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	return c, err
}

// CreateClient inserts a client. Status defaults to "ativo".
func (s *Store) CreateClient(ctx context.Context, in ClientInput) (Client, error) {
	if in.Nome == nil || *in.Nome == "" {
		return Client{}, errors.New("store: client nome is required")
	}
	now := s.timestamp()
	c := Client{
		ID:          ids.New(),
		Nome:        *in.Nome,
		Email:       in.Email,
		Telefone:    in.Telefone,
		Whatsapp:    in.Whatsapp,
		CpfCnpj:     in.CpfCnpj,
		Endereco:    in.Endereco,
		Cidade:      in.Cidade,
		Estado:      in.Estado,
		Cep:         in.Cep,
		Status:      valueOr(in.Status, StatusAtivo),
		SetorID:     in.SetorID,
		Observacoes: in.Observacoes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO clientes (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.Nome, c.Email, c.Telefone, c.Whatsapp, c.CpfCnpj, c.Endereco, c.Cidade, c.Estado, c.Cep,
		c.Status, c.SetorID, c.Observacoes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Client{}, classifyWrite(err)
	}
	return c, nil
}

// UpdateClient overwrites the non-nil fields of in.
func (s *Store) UpdateClient(ctx context.Context, id string, in ClientInput) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE clientes SET
			nome = COALESCE(?, nome),
			email = COALESCE(?, email),
			telefone = COALESCE(?, telefone),
			whatsapp = COALESCE(?, whatsapp),
			cpf_cnpj = COALESCE(?, cpf_cnpj),
			endereco = COALESCE(?, endereco),
			cidade = COALESCE(?, cidade),
			estado = COALESCE(?, estado),
			cep = COALESCE(?, cep),
			status = COALESCE(?, status),
			setor_id = COALESCE(?, setor_id),
			observacoes = COALESCE(?, observacoes),
			updated_at = ?
		WHERE id = ?`),
		in.Nome, in.Email, in.Telefone, in.Whatsapp, in.CpfCnpj, in.Endereco, in.Cidade, in.Estado, in.Cep,
		in.Status, in.SetorID, in.Observacoes, s.timestamp(), id)
	if err != nil {
		return classifyWrite(err)
	}
	return expectOneRow(res)
}

// DeleteClient removes a client. Clients that still own cases, documents,
// invoices, conversations or contacts yield ErrInUse.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "clientes", id)
}

func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		return classifyDelete(err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func valueOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
