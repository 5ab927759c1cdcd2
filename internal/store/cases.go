package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"advocacia.app/internal/ids"
)

const caseColumns = `id, cliente_id, numero_processo, status, vara, comarca, descricao,
	data_inicio, data_fim, created_at, updated_at`

func scanCase(row rowScanner) (Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.ClienteID, &c.NumeroProcesso, &c.Status, &c.Vara, &c.Comarca, &c.Descricao,
		&c.DataInicio, &c.DataFim, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) ListCases(ctx context.Context, f CaseFilter) ([]Case, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.ClienteID != "" {
		where = append(where, "cliente_id = ?")
		args = append(args, f.ClienteID)
	}
	query := "SELECT " + caseColumns + " FROM processos"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCase(ctx context.Context, id string) (Case, error) {
	c, err := scanCase(s.db.QueryRowContext(ctx, s.q("SELECT "+caseColumns+" FROM processos WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Case{}, ErrNotFound
	}
	return c, err
}

// CreateCase inserts a case. Status defaults to "ativo".
func (s *Store) CreateCase(ctx context.Context, in CaseInput) (Case, error) {
	if in.ClienteID == nil || in.NumeroProcesso == nil {
		return Case{}, errors.New("store: case cliente_id and numero_processo are required")
	}
	now := s.timestamp()
	c := Case{
		ID:             ids.New(),
		ClienteID:      *in.ClienteID,
		NumeroProcesso: *in.NumeroProcesso,
		Status:         valueOr(in.Status, StatusAtivo),
		Vara:           in.Vara,
		Comarca:        in.Comarca,
		Descricao:      in.Descricao,
		DataInicio:     in.DataInicio,
		DataFim:        in.DataFim,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO processos (`+caseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.ClienteID, c.NumeroProcesso, c.Status, c.Vara, c.Comarca, c.Descricao,
		c.DataInicio, c.DataFim, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Case{}, classifyWrite(err)
	}
	return c, nil
}

func (s *Store) UpdateCase(ctx context.Context, id string, in CaseInput) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE processos SET
			cliente_id = COALESCE(?, cliente_id),
			numero_processo = COALESCE(?, numero_processo),
			status = COALESCE(?, status),
			vara = COALESCE(?, vara),
			comarca = COALESCE(?, comarca),
			descricao = COALESCE(?, descricao),
			data_inicio = COALESCE(?, data_inicio),
			data_fim = COALESCE(?, data_fim),
			updated_at = ?
		WHERE id = ?`),
		in.ClienteID, in.NumeroProcesso, in.Status, in.Vara, in.Comarca, in.Descricao,
		in.DataInicio, in.DataFim, s.timestamp(), id)
	if err != nil {
		return classifyWrite(err)
	}
	return expectOneRow(res)
}

func (s *Store) DeleteCase(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "processos", id)
}
