package store

import (
	"context"
	"database/sql"
	"errors"

	"advocacia.app/internal/ids"
)

const documentColumns = `id, cliente_id, titulo, categoria, url_arquivo, nome_arquivo, tamanho_arquivo,
	tipo_mime, descricao, created_at, updated_at`

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.ClienteID, &d.Titulo, &d.Categoria, &d.URLArquivo, &d.NomeArquivo,
		&d.TamanhoArquivo, &d.TipoMime, &d.Descricao, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// ListDocumentsByClient returns a client's documents newest first.
func (s *Store) ListDocumentsByClient(ctx context.Context, clienteID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+documentColumns+` FROM documentos
		WHERE cliente_id = ? ORDER BY created_at DESC, id DESC`), clienteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx, s.q("SELECT "+documentColumns+" FROM documentos WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

func (s *Store) CreateDocument(ctx context.Context, in DocumentInput) (Document, error) {
	if in.ClienteID == nil || in.Titulo == nil {
		return Document{}, errors.New("store: document cliente_id and titulo are required")
	}
	now := s.timestamp()
	d := Document{
		ID:             ids.New(),
		ClienteID:      *in.ClienteID,
		Titulo:         *in.Titulo,
		Categoria:      in.Categoria,
		URLArquivo:     in.URLArquivo,
		NomeArquivo:    in.NomeArquivo,
		TamanhoArquivo: in.TamanhoArquivo,
		TipoMime:       in.TipoMime,
		Descricao:      in.Descricao,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO documentos (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		d.ID, d.ClienteID, d.Titulo, d.Categoria, d.URLArquivo, d.NomeArquivo, d.TamanhoArquivo,
		d.TipoMime, d.Descricao, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return Document{}, classifyWrite(err)
	}
	return d, nil
}

func (s *Store) UpdateDocument(ctx context.Context, id string, in DocumentInput) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE documentos SET
			cliente_id = COALESCE(?, cliente_id),
			titulo = COALESCE(?, titulo),
			categoria = COALESCE(?, categoria),
			url_arquivo = COALESCE(?, url_arquivo),
			nome_arquivo = COALESCE(?, nome_arquivo),
			tamanho_arquivo = COALESCE(?, tamanho_arquivo),
			tipo_mime = COALESCE(?, tipo_mime),
			descricao = COALESCE(?, descricao),
			updated_at = ?
		WHERE id = ?`),
		in.ClienteID, in.Titulo, in.Categoria, in.URLArquivo, in.NomeArquivo, in.TamanhoArquivo,
		in.TipoMime, in.Descricao, s.timestamp(), id)
	if err != nil {
		return classifyWrite(err)
	}
	return expectOneRow(res)
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "documentos", id)
}
