package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ialicitacoes/gestao-licitacoes/internal/broker"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
)

const usuario = "user_abc"

func novoControladorTeste(emp *empresasMock, log *logMemoria, cat *catalogoMock, pub *publicadorMock) *Controlador {
	if emp == nil {
		emp = &empresasMock{}
	}
	if log == nil {
		log = &logMemoria{}
	}
	if cat == nil {
		cat = &catalogoMock{}
	}
	if pub == nil {
		pub = &publicadorMock{}
	}
	return NovoControlador(emp, log, cat, NovoRoteiro(), pub, nil)
}

// Conversa nova: a saudação (que já pede o CNPJ) sai no Iniciar; a
// primeira mensagem do usuário só avança o estágio, sem resposta nova.
// No fim do turno o log tem exatamente UMA mensagem do assistente.
func TestConversa_PrimeiraMensagemAvancaSemResposta(t *testing.T) {
	ml := &logMemoria{}
	c := novoControladorTeste(nil, ml, nil, nil)

	conv, hist, err := c.Iniciar(context.Background(), usuario)
	if err != nil {
		t.Fatalf("Iniciar: %v", err)
	}
	if conv.Estado != EstadoBoasVindas {
		t.Fatalf("estado = %q; want %q", conv.Estado, EstadoBoasVindas)
	}
	if len(hist) != 1 || hist[0].Role != models.RoleAssistant {
		t.Fatalf("histórico inicial: %+v", hist)
	}

	resp, conv, err := c.ProcessarMensagem(context.Background(), usuario, "oi, quero me cadastrar")
	if err != nil {
		t.Fatalf("ProcessarMensagem: %v", err)
	}
	if resp != nil {
		t.Fatalf("resposta = %+v; want nil", resp)
	}
	if conv.Estado != EstadoAguardandoCNPJ {
		t.Fatalf("estado = %q; want %q", conv.Estado, EstadoAguardandoCNPJ)
	}
	if n := len(ml.doAssistente(usuario)); n != 1 {
		t.Fatalf("mensagens do assistente = %d; want 1", n)
	}
}

func TestConversa_CNPJInvalidoNaoAvanca(t *testing.T) {
	c := novoControladorTeste(nil, &logMemoria{}, nil, nil)
	ctx := context.Background()

	if _, _, err := c.Iniciar(ctx, usuario); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.ProcessarMensagem(ctx, usuario, "oi"); err != nil {
		t.Fatal(err)
	}

	resp, conv, err := c.ProcessarMensagem(ctx, usuario, "111.111.111/1111-11")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Estado != EstadoAguardandoCNPJ {
		t.Fatalf("estado = %q; want %q", conv.Estado, EstadoAguardandoCNPJ)
	}
	if conv.CNPJ != "" {
		t.Fatalf("cnpj = %q; want vazio", conv.CNPJ)
	}
	if resp == nil || resp.Conteudo != msgCNPJErro {
		t.Fatalf("resposta = %+v", resp)
	}
	if conv.Erros["cnpj"] == "" {
		t.Fatal("erro de cnpj não registrado")
	}
}

// Dígitos iguais passam no cálculo dos DVs mas são rejeitados.
func TestConversa_CNPJDigitosIguaisRejeitado(t *testing.T) {
	c := novoControladorTeste(nil, &logMemoria{}, nil, nil)
	ctx := context.Background()

	_, _, _ = c.Iniciar(ctx, usuario)
	_, _, _ = c.ProcessarMensagem(ctx, usuario, "oi")

	resp, conv, _ := c.ProcessarMensagem(ctx, usuario, "00000000000000")
	if conv.Estado != EstadoAguardandoCNPJ || conv.CNPJ != "" {
		t.Fatalf("estado=%q cnpj=%q", conv.Estado, conv.CNPJ)
	}
	if resp == nil || resp.Conteudo != msgCNPJErro {
		t.Fatalf("resposta = %+v", resp)
	}
}

// O CNPJ aceito fica sempre no formato canônico, independente de como
// o usuário digitou.
func TestConversa_CNPJValidoQualquerPontuacao(t *testing.T) {
	for _, entrada := range []string{"11222333000181", "11.222.333/0001-81", "11 222 333 0001 81"} {
		t.Run(entrada, func(t *testing.T) {
			c := novoControladorTeste(nil, &logMemoria{}, nil, nil)
			ctx := context.Background()

			_, _, _ = c.Iniciar(ctx, usuario)
			_, _, _ = c.ProcessarMensagem(ctx, usuario, "oi")

			resp, conv, err := c.ProcessarMensagem(ctx, usuario, entrada)
			if err != nil {
				t.Fatal(err)
			}
			if conv.Estado != EstadoColetando {
				t.Fatalf("estado = %q; want %q", conv.Estado, EstadoColetando)
			}
			if conv.CNPJ != "11.222.333/0001-81" {
				t.Fatalf("cnpj = %q", conv.CNPJ)
			}
			if resp == nil || !strings.HasPrefix(resp.Conteudo, "✅ CNPJ válido!") {
				t.Fatalf("resposta = %+v", resp)
			}
			// a abertura da coleta vem no mesmo turno
			if !strings.Contains(resp.Conteudo, perguntasRoteiro[0].Texto) {
				t.Fatalf("abertura ausente: %q", resp.Conteudo)
			}
		})
	}
}

// respostasRoteiro leva uma conversa recém-validada até a última
// pergunta do roteiro.
// Na ordem das perguntas: razão social, nome fantasia, endereço, CNAE,
// porte, produtos, experiência, contato, email e telefone.
var respostasRoteiro = []string{
	"ACME Suprimentos LTDA",
	"pular",
	"Rua das Flores, 100, Centro, Campinas, SP, 13010-000",
	"pular",
	"ME",
	"material de escritório e material de limpeza",
	"Sim",
	"Maria Souza",
	"maria@acme.com.br",
	"11987654321",
}

func conduzirAteColeta(t *testing.T, c *Controlador) {
	t.Helper()
	ctx := context.Background()
	if _, _, err := c.Iniciar(ctx, usuario); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.ProcessarMensagem(ctx, usuario, "oi"); err != nil {
		t.Fatal(err)
	}
	_, conv, err := c.ProcessarMensagem(ctx, usuario, "11.222.333/0001-81")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Estado != EstadoColetando {
		t.Fatalf("não chegou na coleta: estado=%v", conv.Estado)
	}
}

func TestConversa_ConclusaoCriaEmpresaUmaVez(t *testing.T) {
	var criadas []*models.Empresa
	var eventos []broker.Evento
	em := &empresasMock{
		CriarFn: func(_ context.Context, e *models.Empresa) (string, error) {
			criadas = append(criadas, e)
			return e.ID, nil
		},
	}
	cat := &catalogoMock{
		ListarFn: func(_ context.Context) ([]models.ItemCatalogo, error) {
			return []models.ItemCatalogo{
				{ProdutoServico: "material de escritório", CatmatCode: "301523"},
				{ProdutoServico: "material de limpeza", CatmatCode: "298731"},
				{ProdutoServico: "vigilância patrimonial", CatserCode: "23949"},
			}, nil
		},
	}
	pub := &publicadorMock{
		PublicarFn: func(_ context.Context, ev broker.Evento) error {
			eventos = append(eventos, ev)
			return nil
		},
	}
	c := novoControladorTeste(em, &logMemoria{}, cat, pub)
	conduzirAteColeta(t, c)

	ctx := context.Background()
	var conv *Conversa
	for _, r := range respostasRoteiro {
		var err error
		_, conv, err = c.ProcessarMensagem(ctx, usuario, r)
		if err != nil {
			t.Fatalf("turno %q: %v", r, err)
		}
	}

	if conv.Estado != EstadoConcluido {
		t.Fatalf("estado = %q; want %q", conv.Estado, EstadoConcluido)
	}
	if len(criadas) != 1 {
		t.Fatalf("Criar chamado %d vezes; want 1", len(criadas))
	}
	e := criadas[0]
	if e.ID != "11222333000181" || e.CNPJ != "11.222.333/0001-81" {
		t.Fatalf("identidade: id=%q cnpj=%q", e.ID, e.CNPJ)
	}
	if !e.OnboardingConcluido {
		t.Fatal("OnboardingConcluido = false")
	}
	if e.RazaoSocial != "ACME Suprimentos LTDA" {
		t.Fatalf("razão social = %q", e.RazaoSocial)
	}
	// nome fantasia pulado herda a razão social
	if e.NomeFantasia != e.RazaoSocial {
		t.Fatalf("nome fantasia = %q", e.NomeFantasia)
	}
	if e.TelefoneWhatsapp != "(11) 98765-4321" {
		t.Fatalf("telefone = %q", e.TelefoneWhatsapp)
	}
	// marcação contra o catálogo: dois itens casam por substring
	if len(e.CatmatCodes) != 2 || len(e.CatserCodes) != 0 {
		t.Fatalf("catalogo: catmat=%v catser=%v", e.CatmatCodes, e.CatserCodes)
	}
	if len(eventos) != 1 || eventos[0].Tipo != broker.EventoOnboardingConcluido || eventos[0].UserID != usuario {
		t.Fatalf("eventos: %+v", eventos)
	}

	// turno depois de concluído é terminal e não duplica a empresa
	resp, conv, err := c.ProcessarMensagem(ctx, usuario, "quero alterar o CNPJ")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Estado != EstadoConcluido || resp == nil || resp.Conteudo != msgJaConcluiu {
		t.Fatalf("estado=%q resp=%+v", conv.Estado, resp)
	}
	if len(criadas) != 1 {
		t.Fatalf("Criar chamado %d vezes após conclusão; want 1", len(criadas))
	}
}

// Falha na escrita final não marca concluído: o usuário reenvia e a
// conclusão acontece no turno seguinte.
func TestConversa_FalhaDePersistenciaMantemColeta(t *testing.T) {
	falhar := true
	var criadas int
	em := &empresasMock{
		CriarFn: func(_ context.Context, e *models.Empresa) (string, error) {
			if falhar {
				return "", errors.New("mongo indisponível")
			}
			criadas++
			return e.ID, nil
		},
	}
	c := novoControladorTeste(em, &logMemoria{}, nil, nil)
	conduzirAteColeta(t, c)

	ctx := context.Background()
	var resp *models.MensagemOnboarding
	var conv *Conversa
	for _, r := range respostasRoteiro {
		resp, conv, _ = c.ProcessarMensagem(ctx, usuario, r)
	}

	if conv.Estado != EstadoColetando {
		t.Fatalf("estado = %q; want %q", conv.Estado, EstadoColetando)
	}
	if resp == nil || resp.Conteudo != msgErroSalvar {
		t.Fatalf("resposta = %+v", resp)
	}

	// banco voltou; o reenvio conclui
	falhar = false
	resp, conv, err := c.ProcessarMensagem(ctx, usuario, "pode tentar de novo")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Estado != EstadoConcluido || criadas != 1 {
		t.Fatalf("estado=%q criadas=%d", conv.Estado, criadas)
	}
	if resp == nil || !strings.Contains(resp.Conteudo, "concluído com sucesso") {
		t.Fatalf("resposta = %+v", resp)
	}
}

func TestConversa_MesclarDescartaEValida(t *testing.T) {
	c := novoControladorTeste(nil, &logMemoria{}, nil, nil)
	conv := &Conversa{UserID: usuario, Dados: map[string]string{}, Erros: map[string]string{}}

	c.mesclar(conv, map[string]string{
		CampoRazaoSocial:      "ACME",
		"campoInventado":      "lixo",
		CampoEmailContato:     "sem-arroba",
		CampoTelefoneWhatsapp: "11987654321",
		CampoNomeFantasia:     "   ",
	})

	if conv.Dados[CampoRazaoSocial] != "ACME" {
		t.Fatalf("razão social = %q", conv.Dados[CampoRazaoSocial])
	}
	if _, ok := conv.Dados["campoInventado"]; ok {
		t.Fatal("campo desconhecido não foi descartado")
	}
	if _, ok := conv.Dados[CampoEmailContato]; ok {
		t.Fatal("email inválido não deveria ser gravado")
	}
	if conv.Erros[CampoEmailContato] == "" {
		t.Fatal("erro de email não registrado")
	}
	if conv.Dados[CampoTelefoneWhatsapp] != "(11) 98765-4321" {
		t.Fatalf("telefone = %q", conv.Dados[CampoTelefoneWhatsapp])
	}
	if _, ok := conv.Dados[CampoNomeFantasia]; ok {
		t.Fatal("valor em branco não deveria ser gravado")
	}
}

// Retomada: um controlador novo (processo reiniciado) re-deriva o
// estágio do log persistido, inclusive o CNPJ já aceito.
func TestConversa_RetomadaDoLog(t *testing.T) {
	ml := &logMemoria{}
	c1 := novoControladorTeste(nil, ml, nil, nil)
	ctx := context.Background()

	_, _, _ = c1.Iniciar(ctx, usuario)
	_, _, _ = c1.ProcessarMensagem(ctx, usuario, "oi")
	_, _, _ = c1.ProcessarMensagem(ctx, usuario, "11222333000181")

	// mesmo log, controlador novo
	c2 := novoControladorTeste(nil, ml, nil, nil)
	conv, _, err := c2.Iniciar(ctx, usuario)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Estado != EstadoColetando {
		t.Fatalf("estado = %q; want %q", conv.Estado, EstadoColetando)
	}
	if conv.CNPJ != "11.222.333/0001-81" {
		t.Fatalf("cnpj = %q", conv.CNPJ)
	}
}

// Retomada antes do CNPJ: há log mas nenhuma confirmação.
func TestConversa_RetomadaAguardandoCNPJ(t *testing.T) {
	ml := &logMemoria{}
	c1 := novoControladorTeste(nil, ml, nil, nil)
	ctx := context.Background()

	_, _, _ = c1.Iniciar(ctx, usuario)
	_, _, _ = c1.ProcessarMensagem(ctx, usuario, "oi")

	c2 := novoControladorTeste(nil, ml, nil, nil)
	conv, _, err := c2.Iniciar(ctx, usuario)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Estado != EstadoAguardandoCNPJ || conv.CNPJ != "" {
		t.Fatalf("estado=%q cnpj=%q", conv.Estado, conv.CNPJ)
	}
}

// Usuário com empresa concluída cai direto no estado terminal.
func TestConversa_EmpresaConcluidaEhTerminal(t *testing.T) {
	em := &empresasMock{
		BuscarPorUsuarioFn: func(_ context.Context, _ string) (*models.Empresa, error) {
			return &models.Empresa{
				ID:                  "11222333000181",
				UserID:              usuario,
				CNPJ:                "11.222.333/0001-81",
				OnboardingConcluido: true,
			}, nil
		},
	}
	c := novoControladorTeste(em, &logMemoria{}, nil, nil)

	conv, _, err := c.Iniciar(context.Background(), usuario)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Estado != EstadoConcluido || conv.CNPJ != "11.222.333/0001-81" {
		t.Fatalf("estado=%q cnpj=%q", conv.Estado, conv.CNPJ)
	}
}

// Falha ao gravar uma mensagem do log não derruba o turno.
func TestConversa_LogIndisponivelNaoDerrubaTurno(t *testing.T) {
	ml := &logMemoria{}
	c := novoControladorTeste(nil, ml, nil, nil)
	ctx := context.Background()

	_, _, _ = c.Iniciar(ctx, usuario)
	_, _, _ = c.ProcessarMensagem(ctx, usuario, "oi")

	ml.erroRegistrar = errors.New("mongo fora do ar")
	resp, conv, err := c.ProcessarMensagem(ctx, usuario, "11222333000181")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Estado != EstadoColetando {
		t.Fatalf("estado = %q", conv.Estado)
	}
	if resp == nil || !strings.HasPrefix(resp.Conteudo, "✅ CNPJ válido!") {
		t.Fatalf("resposta = %+v", resp)
	}
}

// Catálogo fora do ar: a empresa conclui sem códigos, sem erro.
func TestConversa_CatalogoIndisponivelConcluiSemCodigos(t *testing.T) {
	var criada *models.Empresa
	em := &empresasMock{
		CriarFn: func(_ context.Context, e *models.Empresa) (string, error) {
			criada = e
			return e.ID, nil
		},
	}
	cat := &catalogoMock{
		ListarFn: func(_ context.Context) ([]models.ItemCatalogo, error) {
			return nil, errors.New("catalogo fora do ar")
		},
	}
	c := novoControladorTeste(em, &logMemoria{}, cat, nil)
	conduzirAteColeta(t, c)

	ctx := context.Background()
	var conv *Conversa
	for _, r := range respostasRoteiro {
		_, conv, _ = c.ProcessarMensagem(ctx, usuario, r)
	}
	if conv.Estado != EstadoConcluido {
		t.Fatalf("estado = %q", conv.Estado)
	}
	if criada == nil || len(criada.CatmatCodes) != 0 || len(criada.CatserCodes) != 0 {
		t.Fatalf("códigos deveriam estar vazios: %+v", criada)
	}
}

// Usuários distintos conversam ao mesmo tempo: só o turno de CADA
// usuário é serializado, e o mapa de conversas é compartilhado entre
// todos. O detector de corrida cobre o acesso concorrente ao mapa.
func TestConversa_UsuariosDistintosEmParalelo(t *testing.T) {
	c := novoControladorTeste(nil, nil, nil, nil)
	ctx := context.Background()

	const n = 8
	erros := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, _, err := c.Iniciar(ctx, id); err != nil {
				erros <- err
				return
			}
			if _, _, err := c.ProcessarMensagem(ctx, id, "oi"); err != nil {
				erros <- err
				return
			}
			if _, _, err := c.ProcessarMensagem(ctx, id, "11.222.333/0001-81"); err != nil {
				erros <- err
			}
		}(fmt.Sprintf("user_par_%d", i))
	}
	wg.Wait()
	close(erros)
	for err := range erros {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		conv, _, err := c.Iniciar(ctx, fmt.Sprintf("user_par_%d", i))
		if err != nil {
			t.Fatal(err)
		}
		if conv.Estado != EstadoColetando {
			t.Fatalf("user_par_%d: estado = %q, esperava coleta", i, conv.Estado)
		}
	}
}
