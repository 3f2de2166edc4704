package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ialicitacoes/gestao-licitacoes/internal/onboarding"
)

var ErrRespostaInvalida = errors.New("extraction response outside the expected contract")

// Cliente fala com o modelo hospedado (Gemini) para extrair campos do
// texto livre do usuário durante o onboarding.
type Cliente struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NovoCliente(ctx context.Context, apiKey, modelName string) (*Cliente, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.SetMaxOutputTokens(500)

	return &Cliente{client: client, model: model}, nil
}

func (c *Cliente) Fechar() {
	_ = c.client.Close()
}

// Extrair implementa onboarding.Extrator.
func (c *Cliente) Extrair(ctx context.Context, coletados map[string]string, cnpj, entrada string) (*onboarding.Extracao, error) {
	prompt := montarPrompt(coletados, cnpj, entrada)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrRespostaInvalida
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return ParseResposta(text)
}

// respostaJSON espelha o contrato combinado no prompt.
type respostaJSON struct {
	ExtractedData   map[string]any `json:"extracted_data"`
	NextQuestion    *string        `json:"next_question"`
	IsComplete      bool           `json:"is_complete"`
	ResponseMessage string         `json:"response_message"`
}

// ParseResposta valida a saída do modelo campo a campo antes de o
// controlador mesclar qualquer coisa no perfil. Valores não-string e
// nulls são descartados; JSON fora do contrato é erro (recuperável no
// chamador).
func ParseResposta(text string) (*onboarding.Extracao, error) {
	text = limparCercas(text)

	var r respostaJSON
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRespostaInvalida, err)
	}

	dados := make(map[string]string, len(r.ExtractedData))
	for campo, v := range r.ExtractedData {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue // null ou tipo inesperado
		}
		dados[campo] = strings.TrimSpace(s)
	}

	ex := &onboarding.Extracao{
		Dados:    dados,
		Completo: r.IsComplete,
		Mensagem: strings.TrimSpace(r.ResponseMessage),
	}
	if r.NextQuestion != nil {
		ex.ProximaPergunta = strings.TrimSpace(*r.NextQuestion)
	}
	return ex, nil
}

// limparCercas remove cercas markdown (```json ... ```) que o modelo
// costuma colocar em volta do objeto.
func limparCercas(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}

func montarPrompt(coletados map[string]string, cnpj, entrada string) string {
	contexto, _ := json.MarshalIndent(coletados, "", "  ")
	return fmt.Sprintf(`Você é um assistente especializado em onboarding de empresas para licitações públicas.

CONTEXTO ATUAL:
- CNPJ já coletado: %s
- Dados já coletados: %s

RESPOSTA DO USUÁRIO: %q

CAMPOS NECESSÁRIOS:
- razaoSocial: Razão social da empresa
- nomeFantasia: Nome fantasia (pode ser igual à razão social)
- enderecoCompleto: Endereço completo (rua, número, bairro, cidade, estado, CEP)
- cnaePrincipal: CNAE principal da empresa
- porteEmpresa: MEI, ME, EPP ou Grande Empresa
- produtosServicosFoco: Produtos/serviços que a empresa oferece
- experienciaLicitacoes: Se já participou de licitações (Sim/Não)
- nomeContatoPrincipal: Nome do contato principal
- emailContato: Email de contato
- telefoneWhatsapp: Telefone/WhatsApp

INSTRUÇÕES:
1. Analise a resposta do usuário e extraia as informações relevantes
2. Identifique quais campos ainda precisam ser coletados
3. Faça a próxima pergunta de forma natural e conversacional
4. Se todos os dados foram coletados, confirme e finalize

RESPONDA SOMENTE COM JSON, sem markdown:
{
  "extracted_data": {
    "campo": "valor_extraido_ou_null"
  },
  "next_question": "próxima pergunta ou null se finalizado",
  "is_complete": boolean,
  "response_message": "mensagem amigável para o usuário"
}`, cnpj, contexto, entrada)
}
