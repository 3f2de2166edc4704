package onboarding

import (
	"context"
	"errors"
	"sync"

	"github.com/ialicitacoes/gestao-licitacoes/internal/broker"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
	"github.com/ialicitacoes/gestao-licitacoes/internal/repository"
)

type empresasMock struct {
	BuscarPorUsuarioFn func(ctx context.Context, userID string) (*models.Empresa, error)
	CriarFn            func(ctx context.Context, e *models.Empresa) (string, error)
}

func (m *empresasMock) BuscarPorUsuario(ctx context.Context, userID string) (*models.Empresa, error) {
	if m.BuscarPorUsuarioFn == nil {
		return nil, repository.ErrNaoEncontrado
	}
	return m.BuscarPorUsuarioFn(ctx, userID)
}
func (m *empresasMock) Criar(ctx context.Context, e *models.Empresa) (string, error) {
	if m.CriarFn == nil {
		return "", errors.New("CriarFn not set")
	}
	return m.CriarFn(ctx, e)
}

// logMemoria implementa Mensagens em memória; os testes de conversa
// precisam do log acumulando de verdade entre os turnos.
type logMemoria struct {
	mu            sync.Mutex
	itens         []models.MensagemOnboarding
	erroRegistrar error
}

func (l *logMemoria) Registrar(_ context.Context, m *models.MensagemOnboarding) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.erroRegistrar != nil {
		return l.erroRegistrar
	}
	l.itens = append(l.itens, *m)
	return nil
}

func (l *logMemoria) ListarPorUsuario(_ context.Context, userID string) ([]models.MensagemOnboarding, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.MensagemOnboarding{}
	for _, m := range l.itens {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (l *logMemoria) doAssistente(userID string) []models.MensagemOnboarding {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.MensagemOnboarding{}
	for _, m := range l.itens {
		if m.UserID == userID && m.Role == models.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

type catalogoMock struct {
	ListarFn func(ctx context.Context) ([]models.ItemCatalogo, error)
}

func (m *catalogoMock) Listar(ctx context.Context) ([]models.ItemCatalogo, error) {
	if m.ListarFn == nil {
		return nil, nil
	}
	return m.ListarFn(ctx)
}

type publicadorMock struct {
	PublicarFn func(ctx context.Context, ev broker.Evento) error
}

func (m *publicadorMock) Publicar(ctx context.Context, ev broker.Evento) error {
	if m.PublicarFn == nil {
		return nil
	}
	return m.PublicarFn(ctx, ev)
}

type extratorMock struct {
	ExtrairFn func(ctx context.Context, coletados map[string]string, cnpj, entrada string) (*Extracao, error)
}

func (m *extratorMock) Extrair(ctx context.Context, coletados map[string]string, cnpj, entrada string) (*Extracao, error) {
	if m.ExtrairFn == nil {
		return nil, errors.New("ExtrairFn not set")
	}
	return m.ExtrairFn(ctx, coletados, cnpj, entrada)
}
