package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ialicitacoes/gestao-licitacoes/internal/broker"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
	"github.com/ialicitacoes/gestao-licitacoes/internal/repository"
	"github.com/ialicitacoes/gestao-licitacoes/internal/utils"
)

type Estado string

const (
	EstadoBoasVindas     Estado = "welcome"
	EstadoAguardandoCNPJ Estado = "aguardando_cnpj"
	EstadoColetando      Estado = "coletando"
	EstadoConcluido      Estado = "concluido"
)

// Conversa é o estado vivo do onboarding de um usuário: o estágio, o
// perfil parcial e os erros de validação por campo.
type Conversa struct {
	UserID string            `json:"user_id"`
	Estado Estado            `json:"estado"`
	CNPJ   string            `json:"cnpj,omitempty"` // formatado; imutável após aceito
	Dados  map[string]string `json:"dados"`
	Erros  map[string]string `json:"erros,omitempty"`

	indice int // cursor do roteiro (variante A)
}

type Empresas interface {
	BuscarPorUsuario(ctx context.Context, userID string) (*models.Empresa, error)
	Criar(ctx context.Context, e *models.Empresa) (string, error)
}

type Mensagens interface {
	Registrar(ctx context.Context, m *models.MensagemOnboarding) error
	ListarPorUsuario(ctx context.Context, userID string) ([]models.MensagemOnboarding, error)
}

type Catalogo interface {
	Listar(ctx context.Context) ([]models.ItemCatalogo, error)
}

type Publicador interface {
	Publicar(ctx context.Context, ev broker.Evento) error
}

const (
	msgBoasVindas = "🎉 Bem-vindo ao IA Licitações!\n\nOlá! Sou sua assistente e vou te ajudar a configurar sua empresa para participar de licitações públicas.\n\nPara começar, preciso do CNPJ da sua empresa. Pode digitar apenas números ou com formatação:"
	msgCNPJErro   = "❌ CNPJ inválido. Por favor, digite um CNPJ válido (14 dígitos):"
	msgErroSalvar = "Ocorreu um erro ao salvar seus dados. Pode tentar novamente?"
	msgJaConcluiu = "Seu cadastro já está concluído. Você já pode acessar o painel de oportunidades."
)

var cnpjFormatadoRe = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)

// Controlador sequencia a conversa de onboarding. Uma conversa ativa
// por usuário; o processamento é serializado por usuário para o perfil
// parcial não ser corrompido por turnos intercalados.
type Controlador struct {
	empresas   Empresas
	msgs       Mensagens
	catalogo   Catalogo
	estrategia Estrategia
	pub        Publicador // opcional
	log        *slog.Logger

	mu        sync.Mutex
	conversas map[string]*Conversa
	locks     map[string]*sync.Mutex
}

func NovoControlador(empresas Empresas, msgs Mensagens, catalogo Catalogo, estrategia Estrategia, pub Publicador, log *slog.Logger) *Controlador {
	if log == nil {
		log = slog.Default()
	}
	return &Controlador{
		empresas:   empresas,
		msgs:       msgs,
		catalogo:   catalogo,
		estrategia: estrategia,
		pub:        pub,
		log:        log.With("cmp", "onboarding"),
		conversas:  make(map[string]*Conversa),
		locks:      make(map[string]*sync.Mutex),
	}
}

func (c *Controlador) lockUsuario(userID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[userID] = m
	}
	return m
}

// Iniciar garante que a conversa do usuário exista e devolve o log
// completo. Numa conversa nova a saudação (que já pede o CNPJ) é
// emitida aqui.
func (c *Controlador) Iniciar(ctx context.Context, userID string) (*Conversa, []models.MensagemOnboarding, error) {
	mu := c.lockUsuario(userID)
	mu.Lock()
	defer mu.Unlock()

	conv, err := c.carregar(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	hist, err := c.msgs.ListarPorUsuario(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return conv, hist, nil
}

// carregar reconstrói a conversa a partir do que está persistido:
// empresa concluída -> concluído; log existente -> estágio re-derivado
// do próprio log; nada -> saudação.
func (c *Controlador) carregar(ctx context.Context, userID string) (*Conversa, error) {
	// o lock por usuário serializa os turnos; o mapa é compartilhado
	// entre usuários e precisa do c.mu
	c.mu.Lock()
	conv, ok := c.conversas[userID]
	c.mu.Unlock()
	if ok {
		return conv, nil
	}

	conv = &Conversa{
		UserID: userID,
		Estado: EstadoBoasVindas,
		Dados:  make(map[string]string),
		Erros:  make(map[string]string),
	}

	emp, err := c.empresas.BuscarPorUsuario(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNaoEncontrado) {
		return nil, err
	}
	if emp != nil && emp.OnboardingConcluido {
		conv.Estado = EstadoConcluido
		conv.CNPJ = emp.CNPJ
		c.guardar(conv)
		return conv, nil
	}

	hist, err := c.msgs.ListarPorUsuario(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(hist) == 0 {
		c.registrarAssistente(ctx, conv, msgBoasVindas)
		c.guardar(conv)
		return conv, nil
	}

	// retomada: o estágio sai do log; o CNPJ aceito fica gravado na
	// mensagem de confirmação e é recuperado de lá
	conv.Estado = EstadoAguardandoCNPJ
	for _, m := range hist {
		if m.Role != models.RoleAssistant || !strings.HasPrefix(m.Conteudo, "✅ CNPJ válido!") {
			continue
		}
		if cnpj := cnpjFormatadoRe.FindString(m.Conteudo); cnpj != "" {
			conv.CNPJ = cnpj
			conv.Estado = EstadoColetando
		}
	}
	c.guardar(conv)
	return conv, nil
}

func (c *Controlador) guardar(conv *Conversa) {
	c.mu.Lock()
	c.conversas[conv.UserID] = conv
	c.mu.Unlock()
}

// ProcessarMensagem executa um turno: registra a mensagem do usuário,
// avança a máquina de estados e registra a resposta do assistente
// (quando houver). Falha de validação não é erro: permanece no estado
// e devolve a mensagem de correção.
func (c *Controlador) ProcessarMensagem(ctx context.Context, userID, texto string) (*models.MensagemOnboarding, *Conversa, error) {
	mu := c.lockUsuario(userID)
	mu.Lock()
	defer mu.Unlock()

	conv, err := c.carregar(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	c.registrar(ctx, conv, models.RoleUser, texto)

	switch conv.Estado {
	case EstadoBoasVindas:
		// o pedido de CNPJ já foi feito na saudação; qualquer texto avança
		conv.Estado = EstadoAguardandoCNPJ
		return nil, conv, nil

	case EstadoAguardandoCNPJ:
		return c.turnoCNPJ(ctx, conv, texto), conv, nil

	case EstadoColetando:
		return c.turnoColeta(ctx, conv, texto), conv, nil

	default: // concluído: terminal
		return c.registrarAssistente(ctx, conv, msgJaConcluiu), conv, nil
	}
}

func (c *Controlador) turnoCNPJ(ctx context.Context, conv *Conversa, texto string) *models.MensagemOnboarding {
	if !utils.ValidateCNPJ(texto) {
		conv.Erros["cnpj"] = "CNPJ inválido"
		return c.registrarAssistente(ctx, conv, msgCNPJErro)
	}
	formatado, err := utils.FormatCNPJ(texto)
	if err != nil { // ValidateCNPJ garante 14 dígitos; não deve acontecer
		return c.registrarAssistente(ctx, conv, msgCNPJErro)
	}
	conv.CNPJ = formatado
	delete(conv.Erros, "cnpj")
	conv.Estado = EstadoColetando

	resposta := fmt.Sprintf("✅ CNPJ válido! %s\n\nAgora vou coletar as demais informações da sua empresa.\n\n%s",
		formatado, c.estrategia.Abertura(conv))
	return c.registrarAssistente(ctx, conv, resposta)
}

func (c *Controlador) turnoColeta(ctx context.Context, conv *Conversa, texto string) *models.MensagemOnboarding {
	res, err := c.estrategia.Coletar(ctx, conv, texto)
	if err != nil {
		// falha da estratégia vira pergunta fixa; nunca derruba o turno
		c.log.Warn("coleta_erro", "user_id", conv.UserID, "err", err)
		return c.registrarAssistente(ctx, conv, perguntaFallback)
	}

	c.mesclar(conv, res.Dados)

	if !res.Completo {
		return c.registrarAssistente(ctx, conv, res.Resposta)
	}

	if pendentes := c.pendencias(conv); len(pendentes) > 0 {
		resposta := "Ainda preciso de algumas informações obrigatórias: " + strings.Join(pendentes, ", ") + ". Pode me passar?"
		return c.registrarAssistente(ctx, conv, resposta)
	}

	if err := c.concluir(ctx, conv); err != nil {
		// escrita final falhou: NÃO marca concluído, o usuário pode reenviar
		c.log.Error("persistencia_final_falhou", "user_id", conv.UserID, "err", err)
		return c.registrarAssistente(ctx, conv, msgErroSalvar)
	}

	conv.Estado = EstadoConcluido
	resposta := fmt.Sprintf("🎉 Parabéns! Seu cadastro foi concluído com sucesso!\n\n✅ Empresa: %s\n✅ CNPJ: %s\n✅ Contato: %s\n\nAgora você já pode explorar as oportunidades de licitação no painel.",
		conv.Dados[CampoRazaoSocial], conv.CNPJ, conv.Dados[CampoEmailContato])
	return c.registrarAssistente(ctx, conv, resposta)
}

// mesclar aplica as atualizações de um turno, campo a campo, validando
// antes de gravar. Chaves desconhecidas são descartadas (a extração é
// fronteira não confiável).
func (c *Controlador) mesclar(conv *Conversa, dados map[string]string) {
	for campo, valor := range dados {
		valor = strings.TrimSpace(valor)
		if valor == "" {
			continue
		}
		if !camposConhecidos[campo] {
			c.log.Warn("campo_desconhecido_descartado", "campo", campo)
			continue
		}
		switch campo {
		case CampoEmailContato:
			if !utils.ValidateEmail(valor) {
				conv.Erros[campo] = "email inválido"
				continue
			}
		case CampoTelefoneWhatsapp:
			if !utils.ValidateTelefone(valor) {
				conv.Erros[campo] = "telefone inválido"
				continue
			}
			if f, err := utils.FormatTelefone(valor); err == nil {
				valor = f
			}
		}
		conv.Dados[campo] = valor
		delete(conv.Erros, campo)
	}
}

func (c *Controlador) pendencias(conv *Conversa) []string {
	var faltam []string
	if conv.CNPJ == "" {
		faltam = append(faltam, "CNPJ")
	}
	for _, campo := range camposObrigatorios {
		if conv.Dados[campo] == "" {
			faltam = append(faltam, nomesCampos[campo])
			conv.Erros[campo] = "campo obrigatório"
		}
	}
	sort.Strings(faltam)
	return faltam
}

func (c *Controlador) concluir(ctx context.Context, conv *Conversa) error {
	nomeFantasia := conv.Dados[CampoNomeFantasia]
	if nomeFantasia == "" {
		nomeFantasia = conv.Dados[CampoRazaoSocial]
	}

	catmat, catser := c.codigosCatalogo(ctx, conv.Dados[CampoProdutosServicosFoco])

	emp := &models.Empresa{
		ID:                    utils.SanitizeCNPJ(conv.CNPJ),
		UserID:                conv.UserID,
		CNPJ:                  conv.CNPJ,
		RazaoSocial:           conv.Dados[CampoRazaoSocial],
		NomeFantasia:          nomeFantasia,
		EnderecoCompleto:      conv.Dados[CampoEnderecoCompleto],
		CNAEPrincipal:         conv.Dados[CampoCNAEPrincipal],
		PorteEmpresa:          conv.Dados[CampoPorteEmpresa],
		ProdutosServicosFoco:  conv.Dados[CampoProdutosServicosFoco],
		ExperienciaLicitacoes: conv.Dados[CampoExperienciaLicitacoes],
		NomeContatoPrincipal:  conv.Dados[CampoNomeContatoPrincipal],
		EmailContato:          conv.Dados[CampoEmailContato],
		TelefoneWhatsapp:      conv.Dados[CampoTelefoneWhatsapp],
		CatmatCodes:           catmat,
		CatserCodes:           catser,
		OnboardingConcluido:   true,
	}

	if _, err := c.empresas.Criar(ctx, emp); err != nil {
		return err
	}

	if c.pub != nil {
		ev := broker.Evento{
			Tipo:     broker.EventoOnboardingConcluido,
			UserID:   conv.UserID,
			Mensagem: fmt.Sprintf("Cadastro de EMPRESA %s concluído", emp.RazaoSocial),
			Dados:    map[string]string{"empresa_id": emp.ID, "cnpj": emp.CNPJ},
		}
		if err := c.pub.Publicar(ctx, ev); err != nil {
			c.log.Warn("evento_nao_publicado", "err", err)
		}
	}
	return nil
}

// codigosCatalogo marca o texto de produtos/serviços contra o catálogo
// CATMAT/CATSER por substring (case-insensitive). Vários itens podem
// casar; os códigos são acumulados sem deduplicação.
func (c *Controlador) codigosCatalogo(ctx context.Context, produtos string) (catmat, catser []string) {
	if produtos == "" || c.catalogo == nil {
		return nil, nil
	}
	itens, err := c.catalogo.Listar(ctx)
	if err != nil {
		c.log.Warn("catalogo_indisponivel", "err", err)
		return nil, nil
	}
	texto := strings.ToLower(produtos)
	for _, it := range itens {
		if it.ProdutoServico == "" || !strings.Contains(texto, strings.ToLower(it.ProdutoServico)) {
			continue
		}
		if it.CatmatCode != "" {
			catmat = append(catmat, it.CatmatCode)
		}
		if it.CatserCode != "" {
			catser = append(catser, it.CatserCode)
		}
	}
	return catmat, catser
}

func (c *Controlador) registrarAssistente(ctx context.Context, conv *Conversa, conteudo string) *models.MensagemOnboarding {
	return c.registrar(ctx, conv, models.RoleAssistant, conteudo)
}

// registrar anexa no log persistido. Falha de gravação não derruba o
// turno: fica o warn e a conversa segue (o log é auditoria, não fonte
// do estado corrente).
func (c *Controlador) registrar(ctx context.Context, conv *Conversa, role, conteudo string) *models.MensagemOnboarding {
	m := &models.MensagemOnboarding{
		ID:        "msg_" + uuid.NewString(),
		UserID:    conv.UserID,
		Role:      role,
		Conteudo:  conteudo,
		Timestamp: time.Now().UTC(),
	}
	if err := c.msgs.Registrar(ctx, m); err != nil {
		c.log.Warn("mensagem_nao_registrada", "user_id", conv.UserID, "err", err)
	}
	return m
}
