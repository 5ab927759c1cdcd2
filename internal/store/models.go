package store

import "time"

// Status values stored in the status columns.
const (
	StatusAtivo    = "ativo"
	StatusNovo     = "novo"
	StatusPendente = "pendente"
	StatusPago     = "pago"
)

type Sector struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	Descricao *string   `json:"descricao"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SectorInput carries sector writes. Nil fields are left unchanged on update.
type SectorInput struct {
	Nome      *string `json:"nome" validate:"omitnil,min=1"`
	Descricao *string `json:"descricao"`
}

type Client struct {
	ID          string    `json:"id"`
	Nome        string    `json:"nome"`
	Email       *string   `json:"email"`
	Telefone    *string   `json:"telefone"`
	Whatsapp    *string   `json:"whatsapp"`
	CpfCnpj     *string   `json:"cpf_cnpj"`
	Endereco    *string   `json:"endereco"`
	Cidade      *string   `json:"cidade"`
	Estado      *string   `json:"estado"`
	Cep         *string   `json:"cep"`
	Status      string    `json:"status"`
	SetorID     *string   `json:"setor_id"`
	Observacoes *string   `json:"observacoes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClientInput carries client writes. Nil fields are left unchanged on update.
type ClientInput struct {
	Nome        *string `json:"nome" validate:"omitnil,min=1"`
	Email       *string `json:"email"`
	Telefone    *string `json:"telefone"`
	Whatsapp    *string `json:"whatsapp"`
	CpfCnpj     *string `json:"cpf_cnpj"`
	Endereco    *string `json:"endereco"`
	Cidade      *string `json:"cidade"`
	Estado      *string `json:"estado"`
	Cep         *string `json:"cep"`
	Status      *string `json:"status" validate:"omitnil,min=1"`
	SetorID     *string `json:"setor_id"`
	Observacoes *string `json:"observacoes"`
}

type ClientFilter struct {
	Status  string
	SetorID string
	// Search matches nome, email or telefone as a substring.
	Search string
}

type Case struct {
	ID             string    `json:"id"`
	ClienteID      string    `json:"cliente_id"`
	NumeroProcesso string    `json:"numero_processo"`
	Status         string    `json:"status"`
	Vara           *string   `json:"vara"`
	Comarca        *string   `json:"comarca"`
	Descricao      *string   `json:"descricao"`
	DataInicio     *string   `json:"data_inicio"`
	DataFim        *string   `json:"data_fim"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CaseInput struct {
	ClienteID      *string `json:"cliente_id" validate:"omitnil,min=1"`
	NumeroProcesso *string `json:"numero_processo" validate:"omitnil,min=1"`
	Status         *string `json:"status" validate:"omitnil,min=1"`
	Vara           *string `json:"vara"`
	Comarca        *string `json:"comarca"`
	Descricao      *string `json:"descricao"`
	DataInicio     *string `json:"data_inicio"`
	DataFim        *string `json:"data_fim"`
}

type CaseFilter struct {
	Status    string
	ClienteID string
}

type Document struct {
	ID             string    `json:"id"`
	ClienteID      string    `json:"cliente_id"`
	Titulo         string    `json:"titulo"`
	Categoria      *string   `json:"categoria"`
	URLArquivo     *string   `json:"url_arquivo"`
	NomeArquivo    *string   `json:"nome_arquivo"`
	TamanhoArquivo *int64    `json:"tamanho_arquivo"`
	TipoMime       *string   `json:"tipo_mime"`
	Descricao      *string   `json:"descricao"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type DocumentInput struct {
	ClienteID      *string `json:"cliente_id" validate:"omitnil,min=1"`
	Titulo         *string `json:"titulo" validate:"omitnil,min=1"`
	Categoria      *string `json:"categoria"`
	URLArquivo     *string `json:"url_arquivo"`
	NomeArquivo    *string `json:"nome_arquivo"`
	TamanhoArquivo *int64  `json:"tamanho_arquivo" validate:"omitnil,gte=0"`
	TipoMime       *string `json:"tipo_mime"`
	Descricao      *string `json:"descricao"`
}

type Invoice struct {
	ID             string    `json:"id"`
	ClienteID      string    `json:"cliente_id"`
	NumeroFatura   string    `json:"numero_fatura"`
	Descricao      *string   `json:"descricao"`
	Valor          *float64  `json:"valor"`
	Status         string    `json:"status"`
	DataVencimento *string   `json:"data_vencimento"`
	DataPagamento  *string   `json:"data_pagamento"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type InvoiceInput struct {
	ClienteID      *string  `json:"cliente_id" validate:"omitnil,min=1"`
	NumeroFatura   *string  `json:"numero_fatura" validate:"omitnil,min=1"`
	Descricao      *string  `json:"descricao"`
	Valor          *float64 `json:"valor" validate:"omitnil,gte=0"`
	Status         *string  `json:"status" validate:"omitnil,min=1"`
	DataVencimento *string  `json:"data_vencimento"`
	DataPagamento  *string  `json:"data_pagamento"`
}

type InvoiceFilter struct {
	Status    string
	ClienteID string
}

// Activity is an append-only log entry.
type Activity struct {
	ID        string    `json:"id"`
	UsuarioID *string   `json:"usuario_id"`
	Acao      string    `json:"acao"`
	Descricao *string   `json:"descricao"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity tags.
const (
	AcaoMensagemWhatsapp    = "mensagem_whatsapp"
	AcaoNovoClienteWhatsapp = "novo_cliente_whatsapp"
	AcaoAgendamento         = "agendamento"
)
