package store

import (
	"context"
	"database/sql"
)

const (
	dashboardRecentActivities = 10
	monthlyBuckets            = 12
)

// Dashboard is the summary shown on the front page.
type Dashboard struct {
	TotalClientes         int64      `json:"totalClientes"`
	ProcessosAtivos       int64      `json:"processosAtivos"`
	FaturasPendentes      int64      `json:"faturasPendentes"`
	ValorFaturasPendentes float64    `json:"valorFaturasPendentes"`
	AtividadesRecentes    []Activity `json:"atividadesRecentes"`
}

// MonthlyCount is the number of clients created in one calendar month.
type MonthlyCount struct {
	Mes           string `json:"mes"`
	TotalClientes int64  `json:"total_clientes"`
}

// Dashboard composes four reads. Any failure aborts the whole summary.
func (s *Store) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clientes`).Scan(&d.TotalClientes); err != nil {
		return Dashboard{}, err
	}
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM processos WHERE status = ?`), StatusAtivo).
		Scan(&d.ProcessosAtivos); err != nil {
		return Dashboard{}, err
	}
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*), COALESCE(SUM(valor), 0) FROM faturas WHERE status = ?`), StatusPendente).
		Scan(&d.FaturasPendentes, &d.ValorFaturasPendentes); err != nil {
		return Dashboard{}, err
	}
	recent, err := s.RecentActivities(ctx, dashboardRecentActivities)
	if err != nil {
		return Dashboard{}, err
	}
	d.AtividadesRecentes = recent
	return d, nil
}

// MonthlySummary counts clients per creation month, newest month first.
func (s *Store) MonthlySummary(ctx context.Context) ([]MonthlyCount, error) {
	bucket := s.dialect.MonthBucket("created_at")
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+bucket+` AS mes, COUNT(*) AS total_clientes
		FROM clientes
		GROUP BY `+bucket+`
		ORDER BY mes DESC
		LIMIT ?`), monthlyBuckets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MonthlyCount{}
	for rows.Next() {
		var (
			mes   sql.NullString
			total int64
		)
		if err := rows.Scan(&mes, &total); err != nil {
			return nil, err
		}
		// Rows whose timestamp cannot be bucketed are left out.
		if !mes.Valid {
			continue
		}
		out = append(out, MonthlyCount{Mes: mes.String, TotalClientes: total})
	}
	return out, rows.Err()
}
