package models

import "time"

// Porte da empresa conforme classificação usada nos editais
const (
	PorteMEI    = "MEI"
	PorteME     = "ME"
	PorteEPP    = "EPP"
	PorteGrande = "Grande Empresa"
)

type Empresa struct {
	ID                    string    `bson:"_id,omitempty" json:"id"`
	UserID                string    `bson:"user_id" json:"user_id"`
	CNPJ                  string    `bson:"cnpj" json:"cnpj"` // armazenado formatado (NN.NNN.NNN/NNNN-NN); imutável após aceito
	RazaoSocial           string    `bson:"razao_social" json:"razao_social"`
	NomeFantasia          string    `bson:"nome_fantasia" json:"nome_fantasia"`
	EnderecoCompleto      string    `bson:"endereco_completo" json:"endereco_completo"`
	CNAEPrincipal         string    `bson:"cnae_principal" json:"cnae_principal"`
	PorteEmpresa          string    `bson:"porte_empresa" json:"porte_empresa"`
	ProdutosServicosFoco  string    `bson:"produtos_servicos_foco" json:"produtos_servicos_foco"`
	ExperienciaLicitacoes string    `bson:"experiencia_licitacoes" json:"experiencia_licitacoes"` // "Sim" | "Não"
	NomeContatoPrincipal  string    `bson:"nome_contato_principal" json:"nome_contato_principal"`
	EmailContato          string    `bson:"email_contato" json:"email_contato"`
	TelefoneWhatsapp      string    `bson:"telefone_whatsapp" json:"telefone_whatsapp"`
	CatmatCodes           []string  `bson:"catmat_codes,omitempty" json:"catmat_codes,omitempty"`
	CatserCodes           []string  `bson:"catser_codes,omitempty" json:"catser_codes,omitempty"`
	OnboardingConcluido   bool      `bson:"onboarding_concluido" json:"onboarding_concluido"`
	CreatedAt             time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time `bson:"updated_at" json:"updated_at"`
}
