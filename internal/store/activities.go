package store

import (
	"context"
	"database/sql"

	"advocacia.app/internal/ids"
)

const (
	activityColumns = `id, usuario_id, acao, descricao, created_at`

	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanActivity(row rowScanner) (Activity, error) {
	var a Activity
	err := row.Scan(&a.ID, &a.UsuarioID, &a.Acao, &a.Descricao, &a.CreatedAt)
	return a, err
}

// RecentActivities returns the newest entries first. limit is clamped to
// 1..MaxActivityLimit.
func (s *Store) RecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+activityColumns+` FROM atividades
		ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AppendActivity writes one log entry.
func (s *Store) AppendActivity(ctx context.Context, usuarioID *string, acao, descricao string) (Activity, error) {
	return s.appendActivity(ctx, s.db, usuarioID, acao, descricao)
}

func (s *Store) appendActivity(ctx context.Context, ex execer, usuarioID *string, acao, descricao string) (Activity, error) {
	a := Activity{
		ID:        ids.New(),
		UsuarioID: usuarioID,
		Acao:      acao,
		Descricao: &descricao,
		CreatedAt: s.timestamp(),
	}
	_, err := ex.ExecContext(ctx, s.q(`INSERT INTO atividades (`+activityColumns+`) VALUES (?, ?, ?, ?, ?)`),
		a.ID, a.UsuarioID, a.Acao, a.Descricao, a.CreatedAt)
	if err != nil {
		return Activity{}, classifyWrite(err)
	}
	return a, nil
}
