package models

import "time"

const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// MensagemOnboarding é um registro append-only: nunca é editada nem removida.
// A ordenação é a de inserção (timestamp).
type MensagemOnboarding struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Role      string    `bson:"role" json:"role"` // assistant | user
	Conteudo  string    `bson:"conteudo" json:"conteudo"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ItemCatalogo mapeia um produto/serviço para códigos CATMAT/CATSER.
// Tabela estática, carregada pelo seed.
type ItemCatalogo struct {
	ID             string `bson:"_id,omitempty" json:"id"`
	ProdutoServico string `bson:"produto_servico" json:"produto_servico"`
	CatmatCode     string `bson:"catmat_code,omitempty" json:"catmat_code,omitempty"`
	CatserCode     string `bson:"catser_code,omitempty" json:"catser_code,omitempty"`
}
