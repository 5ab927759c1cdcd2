package store

import (
	"context"
	"database/sql"
	"errors"

	"advocacia.app/internal/ids"
)

const sectorColumns = `id, nome, descricao, created_at, updated_at`

func scanSector(row rowScanner) (Sector, error) {
	var st Sector
	err := row.Scan(&st.ID, &st.Nome, &st.Descricao, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

// ListSectors returns all sectors ordered by name.
func (s *Store) ListSectors(ctx context.Context) ([]Sector, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sectorColumns+" FROM setores ORDER BY nome")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Sector{}
	for rows.Next() {
		st, err := scanSector(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) GetSector(ctx context.Context, id string) (Sector, error) {
	st, err := scanSector(s.db.QueryRowContext(ctx, s.q("SELECT "+sectorColumns+" FROM setores WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Sector{}, ErrNotFound
	}
	return st, err
}

func (s *Store) CreateSector(ctx context.Context, in SectorInput) (Sector, error) {
	if in.Nome == nil || *in.Nome == "" {
		return Sector{}, errors.New("store: sector nome is required")
	}
	now := s.timestamp()
	st := Sector{ID: ids.New(), Nome: *in.Nome, Descricao: in.Descricao, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO setores (`+sectorColumns+`) VALUES (?, ?, ?, ?, ?)`),
		st.ID, st.Nome, st.Descricao, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return Sector{}, classifyWrite(err)
	}
	return st, nil
}

func (s *Store) UpdateSector(ctx context.Context, id string, in SectorInput) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE setores SET
			nome = COALESCE(?, nome),
			descricao = COALESCE(?, descricao),
			updated_at = ?
		WHERE id = ?`), in.Nome, in.Descricao, s.timestamp(), id)
	if err != nil {
		return classifyWrite(err)
	}
	return expectOneRow(res)
}

// DeleteSector removes a sector; member clients keep existing with a null setor_id.
func (s *Store) DeleteSector(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "setores", id)
}
