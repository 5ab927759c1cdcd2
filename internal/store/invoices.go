package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"advocacia.app/internal/ids"
)

const invoiceColumns = `id, cliente_id, numero_fatura, descricao, valor, status, data_vencimento,
	data_pagamento, created_at, updated_at`

func scanInvoice(row rowScanner) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ClienteID, &inv.NumeroFatura, &inv.Descricao, &inv.Valor, &inv.Status,
		&inv.DataVencimento, &inv.DataPagamento, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (s *Store) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error) {
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
	query := "SELECT " + invoiceColumns + " FROM faturas"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, s.q("SELECT "+invoiceColumns+" FROM faturas WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	return inv, err
}

// CreateInvoice inserts an invoice. Status defaults to "pendente".
func (s *Store) CreateInvoice(ctx context.Context, in InvoiceInput) (Invoice, error) {
	if in.ClienteID == nil || in.NumeroFatura == nil {
		return Invoice{}, errors.New("store: invoice cliente_id and numero_fatura are required")
	}
	now := s.timestamp()
	inv := Invoice{
		ID:             ids.New(),
		ClienteID:      *in.ClienteID,
		NumeroFatura:   *in.NumeroFatura,
		Descricao:      in.Descricao,
		Valor:          in.Valor,
		Status:         valueOr(in.Status, StatusPendente),
		DataVencimento: in.DataVencimento,
		DataPagamento:  in.DataPagamento,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO faturas (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		inv.ID, inv.ClienteID, inv.NumeroFatura, inv.Descricao, inv.Valor, inv.Status,
		inv.DataVencimento, inv.DataPagamento, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return Invoice{}, classifyWrite(err)
	}
	return inv, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, id string, in InvoiceInput) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE faturas SET
			cliente_id = COALESCE(?, cliente_id),
			numero_fatura = COALESCE(?, numero_fatura),
			descricao = COALESCE(?, descricao),
			valor = COALESCE(?, valor),
			status = COALESCE(?, status),
			data_vencimento = COALESCE(?, data_vencimento),
			data_pagamento = COALESCE(?, data_pagamento),
			updated_at = ?
		WHERE id = ?`),
		in.ClienteID, in.NumeroFatura, in.Descricao, in.Valor, in.Status,
		in.DataVencimento, in.DataPagamento, s.timestamp(), id)
	if err != nil {
		return classifyWrite(err)
	}
	return expectOneRow(res)
}

// PayInvoice marks a pending invoice as paid on paidOn (YYYY-MM-DD; today
// when empty). Paying twice yields ErrAlreadyPaid.
func (s *Store) PayInvoice(ctx context.Context, id, paidOn string) (Invoice, error) {
	now := s.timestamp()
	if paidOn == "" {
		paidOn = now.Format("2006-01-02")
	}
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE faturas SET status = ?, data_pagamento = ?, updated_at = ?
		WHERE id = ? AND status <> ?`), StatusPago, paidOn, now, id, StatusPago)
	if err != nil {
		return Invoice{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Invoice{}, err
	}
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if n == 0 {
		return inv, ErrAlreadyPaid
	}
	return inv, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "faturas", id)
}
