package repo

import (
	"time"

	"github.com/google/uuid"
)

// Usuario representa colaborador da plataforma. Nunca é apagado
// fisicamente fora do fluxo SUPER_ADMIN; desligamento é soft (Ativo).
type Usuario struct {
	ID             uuid.UUID
	Nome           string
	Email          string
	SenhaHash      string
	Papel          string
	SucursalID     uuid.UUID
	DepartamentoID *uuid.UUID
	Ativo          bool
	CriadoEm       time.Time
}

// Sucursal representa uma filial com implantação independente. É a
// fronteira externa de isolamento de dados.
type Sucursal struct {
	ID       uuid.UUID
	Nome     string
	Slug     string
	Endereco *string
	Ativa    bool
	CriadoEm time.Time
}

// Departamento pertence a exatamente uma sucursal; supervisor é opcional.
type Departamento struct {
	ID           uuid.UUID
	SucursalID   uuid.UUID
	Nome         string
	SupervisorID *uuid.UUID
	CriadoEm     time.Time
}

// Meta modela um objetivo com ciclo de vida próprio. SucursalID é
// imutável após a criação.
type Meta struct {
	ID                        uuid.UUID
	SucursalID                uuid.UUID
	DepartamentoID            *uuid.UUID
	CriadoPorID               uuid.UUID
	ResponsaveisIDs           []uuid.UUID
	Titulo                    string
	Descricao                 string
	Status                    string
	Progresso                 int
	ExigeRelatorioConclusao   bool
	RelatorioConclusaoEnviado bool
	CriadoEm                  time.Time
	AtualizadoEm              *time.Time
}

// RelatorioMeta é um relatório enviado para uma meta. Versao é
// estritamente crescente por meta, atribuída no envio; relatórios são
// retidos para auditoria mesmo quando substituídos.
type RelatorioMeta struct {
	ID               uuid.UUID
	MetaID           uuid.UUID
	EnviadoPorID     uuid.UUID
	Versao           int
	Conclusao        bool
	DestinatariosIDs []uuid.UUID
	Conteudo         string
	CriadoEm         time.Time
}

// Arquivo é um item da biblioteca de arquivos da sucursal.
type Arquivo struct {
	ID             uuid.UUID
	SucursalID     uuid.UUID
	DepartamentoID *uuid.UUID
	DonoID         uuid.UUID
	Nome           string
	Chave          string
	ContentType    string
	Tamanho        int64
	URL            *string
	CriadoEm       time.Time
}

// Notificacao é a linha persistida de uma notificação endereçada.
type Notificacao struct {
	ID        uuid.UUID
	UsuarioID uuid.UUID
	Titulo    string
	Corpo     string
	Lida      bool
	CriadoEm  time.Time
}

// SolicitacaoAcesso registra pedido de conta/acesso pendente de aprovação.
type SolicitacaoAcesso struct {
	ID             uuid.UUID
	Nome           string
	Email          string
	SucursalID     uuid.UUID
	DepartamentoID *uuid.UUID
	Status         string
	CriadoEm       time.Time
}

// TokenRefresh modela tabela de refresh tokens.
type TokenRefresh struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
	Revogado  bool
}

// InsertRefreshTokenParams agrupa os campos do insert de refresh token.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
}
