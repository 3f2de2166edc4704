package models

import "time"

// Status de oportunidade
const (
	OportunidadeNova         = "new"
	OportunidadeVista        = "viewed"
	OportunidadeInteressada  = "interested"
	OportunidadeParticipando = "participating"
	OportunidadeVencida      = "won"
	OportunidadePerdida      = "lost"
)

// Status de participação
const (
	ParticipacaoPreparando  = "preparing"
	ParticipacaoEnviada     = "submitted"
	ParticipacaoEmAndamento = "in_progress"
	ParticipacaoVencida     = "won"
	ParticipacaoPerdida     = "lost"
	ParticipacaoRecurso     = "appealing"
)

// Status de documento
const (
	DocumentoValido   = "valid"
	DocumentoVencido  = "expired"
	DocumentoPendente = "pending"
)

type Licitacao struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	NumeroPregao    string    `bson:"numero_pregao" json:"numero_pregao"`
	UASG            string    `bson:"uasg,omitempty" json:"uasg,omitempty"`
	OrgaoNome       string    `bson:"orgao_nome" json:"orgao_nome"`
	Objeto          string    `bson:"objeto" json:"objeto"`
	CatmatCodes     []string  `bson:"catmat_codes,omitempty" json:"catmat_codes,omitempty"`
	CatserCodes     []string  `bson:"catser_codes,omitempty" json:"catser_codes,omitempty"`
	DataPublicacao  time.Time `bson:"data_publicacao" json:"data_publicacao"`
	DataAbertura    time.Time `bson:"data_abertura" json:"data_abertura"`
	ValorEstimado   float64   `bson:"valor_estimado,omitempty" json:"valor_estimado,omitempty"`
	EnderecoEntrega string    `bson:"endereco_entrega,omitempty" json:"endereco_entrega,omitempty"`
	Status          string    `bson:"status" json:"status"` // active | inactive | finished
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

type Oportunidade struct {
	ID         string     `bson:"_id,omitempty" json:"id"`
	UserID     string     `bson:"user_id" json:"user_id"`
	EmpresaID  string     `bson:"empresa_id" json:"empresa_id"`
	Licitacao  *Licitacao `bson:"licitacao,omitempty" json:"licitacao,omitempty"`
	MatchScore float64    `bson:"match_score" json:"match_score"`
	DistanceKm float64    `bson:"distance_km,omitempty" json:"distance_km,omitempty"`
	Status     string     `bson:"status" json:"status"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}

type Documento struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	UserID         string     `bson:"user_id" json:"user_id"`
	EmpresaID      string     `bson:"empresa_id" json:"empresa_id"`
	TipoDocumento  string     `bson:"tipo_documento" json:"tipo_documento"`
	ArquivoID      string     `bson:"arquivo_id,omitempty" json:"arquivo_id,omitempty"`
	NomeArquivo    string     `bson:"nome_arquivo,omitempty" json:"nome_arquivo,omitempty"`
	ArquivoURL     string     `bson:"arquivo_url,omitempty" json:"arquivo_url,omitempty"`
	DataEmissao    *time.Time `bson:"data_emissao,omitempty" json:"data_emissao,omitempty"`
	DataValidade   *time.Time `bson:"data_validade,omitempty" json:"data_validade,omitempty"`
	Status         string     `bson:"status" json:"status"` // valid | expired | pending
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

type EventoTimeline struct {
	ID           string    `bson:"id" json:"id"`
	Tipo         string    `bson:"tipo" json:"tipo"`
	Titulo       string    `bson:"titulo" json:"titulo"`
	Descricao    string    `bson:"descricao,omitempty" json:"descricao,omitempty"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	ExecutadoPor string    `bson:"executado_por" json:"executado_por"` // ai | user
	Status       string    `bson:"status" json:"status"`               // completed | pending | failed
}

type Participacao struct {
	ID           string           `bson:"_id,omitempty" json:"id"`
	UserID       string           `bson:"user_id" json:"user_id"`
	EmpresaID    string           `bson:"empresa_id" json:"empresa_id"`
	NumeroPregao string           `bson:"numero_pregao" json:"numero_pregao"`
	OrgaoNome    string           `bson:"orgao_nome" json:"orgao_nome"`
	LanceInicial float64          `bson:"lance_inicial,omitempty" json:"lance_inicial,omitempty"`
	LanceMinimo  float64          `bson:"lance_minimo,omitempty" json:"lance_minimo,omitempty"`
	Status       string           `bson:"status" json:"status"`
	Timeline     []EventoTimeline `bson:"timeline,omitempty" json:"timeline,omitempty"`
	CreatedAt    time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at" json:"updated_at"`
}
