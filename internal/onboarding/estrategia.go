package onboarding

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ialicitacoes/gestao-licitacoes/internal/utils"
)

const perguntaFallback = "Entendi! Pode me contar mais sobre os produtos ou serviços que sua empresa oferece?"

// Resultado de um turno de coleta.
type Resultado struct {
	Dados    map[string]string // atualizações extraídas/aceitas neste turno
	Resposta string            // mensagem do assistente
	Completo bool              // coleta encerrada, tentar concluir
}

// Estrategia decide como os campos são coletados: pergunta a pergunta
// (Roteiro) ou por extração de texto livre (Extracao). As duas são
// intercambiáveis por trás da mesma máquina de estados.
type Estrategia interface {
	Abertura(c *Conversa) string
	Coletar(ctx context.Context, c *Conversa, entrada string) (Resultado, error)
}

// ---- Variante A: roteiro fixo ----

type Roteiro struct{}

func NovoRoteiro() *Roteiro { return &Roteiro{} }

func (r *Roteiro) Abertura(_ *Conversa) string {
	return perguntasRoteiro[0].Texto
}

func (r *Roteiro) Coletar(_ context.Context, c *Conversa, entrada string) (Resultado, error) {
	if c.indice >= len(perguntasRoteiro) {
		return Resultado{Completo: true, Resposta: "Já tenho todas as informações."}, nil
	}
	atual := perguntasRoteiro[c.indice]
	valor := strings.TrimSpace(entrada)
	pulou := valor == "" || strings.EqualFold(valor, "pular")

	dados := map[string]string{}
	switch {
	case pulou && atual.Obrigatoria:
		return Resultado{Resposta: "Esse campo é obrigatório. " + atual.Texto}, nil
	case !pulou:
		// valida na hora para o usuário poder corrigir no mesmo campo
		if atual.Campo == CampoEmailContato && !utils.ValidateEmail(valor) {
			return Resultado{Resposta: "Esse email não parece válido. " + atual.Texto}, nil
		}
		if atual.Campo == CampoTelefoneWhatsapp && !utils.ValidateTelefone(valor) {
			return Resultado{Resposta: "Esse telefone não parece válido (preciso de DDD + número). " + atual.Texto}, nil
		}
		dados[atual.Campo] = valor
	}

	c.indice++
	if c.indice >= len(perguntasRoteiro) {
		return Resultado{Dados: dados, Completo: true, Resposta: "Perfeito, tenho tudo o que preciso. Finalizando seu cadastro..."}, nil
	}
	return Resultado{Dados: dados, Resposta: perguntasRoteiro[c.indice].Texto}, nil
}

// ---- Variante B: extração por IA ----

// Extracao é a resposta estruturada do colaborador de extração.
type Extracao struct {
	Dados           map[string]string
	ProximaPergunta string
	Completo        bool
	Mensagem        string
}

// Extrator é o colaborador externo de geração de texto (ver internal/ai).
type Extrator interface {
	Extrair(ctx context.Context, coletados map[string]string, cnpj, entrada string) (*Extracao, error)
}

type EstrategiaExtracao struct {
	ext Extrator
	log *slog.Logger
}

func NovaExtracao(ext Extrator, log *slog.Logger) *EstrategiaExtracao {
	if log == nil {
		log = slog.Default()
	}
	return &EstrategiaExtracao{ext: ext, log: log.With("cmp", "onboarding.extracao")}
}

func (e *EstrategiaExtracao) Abertura(_ *Conversa) string {
	return "Agora me conte sobre sua empresa: razão social, endereço, produtos ou serviços, contato... Pode responder de forma natural que eu organizo as informações."
}

// Falha do colaborador (rede ou resposta fora do contrato) não é fatal:
// cai para uma pergunta fixa e o usuário segue a conversa.
func (e *EstrategiaExtracao) Coletar(ctx context.Context, c *Conversa, entrada string) (Resultado, error) {
	ex, err := e.ext.Extrair(ctx, c.Dados, c.CNPJ, entrada)
	if err != nil {
		e.log.Warn("extracao_falhou", "err", err)
		return Resultado{Resposta: perguntaFallback}, nil
	}
	resposta := ex.Mensagem
	if resposta == "" {
		resposta = ex.ProximaPergunta
	}
	if resposta == "" {
		resposta = perguntaFallback
	}
	return Resultado{Dados: ex.Dados, Resposta: resposta, Completo: ex.Completo}, nil
}
