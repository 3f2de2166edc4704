package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ialicitacoes/gestao-licitacoes/internal/broker"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
)

type empresaRepoMock struct {
	BuscarPorUsuarioFn func(ctx context.Context, userID string) (*models.Empresa, error)
	AtualizarFn        func(ctx context.Context, id string, set bson.M) error
}

func (m *empresaRepoMock) BuscarPorUsuario(ctx context.Context, userID string) (*models.Empresa, error) {
	if m.BuscarPorUsuarioFn == nil {
		return nil, errors.New("BuscarPorUsuarioFn not set")
	}
	return m.BuscarPorUsuarioFn(ctx, userID)
}
func (m *empresaRepoMock) Atualizar(ctx context.Context, id string, set bson.M) error {
	if m.AtualizarFn == nil {
		return errors.New("AtualizarFn not set")
	}
	return m.AtualizarFn(ctx, id, set)
}

type oportunidadeRepoMock struct {
	ListarPorUsuarioFn func(ctx context.Context, userID string, limit, skip int64) ([]models.Oportunidade, error)
	BuscarPorIDFn      func(ctx context.Context, id, userID string) (*models.Oportunidade, error)
	AtualizarStatusFn  func(ctx context.Context, id, userID, status string) error
}

func (m *oportunidadeRepoMock) ListarPorUsuario(ctx context.Context, userID string, limit, skip int64) ([]models.Oportunidade, error) {
	if m.ListarPorUsuarioFn == nil {
		return nil, errors.New("ListarPorUsuarioFn not set")
	}
	return m.ListarPorUsuarioFn(ctx, userID, limit, skip)
}
func (m *oportunidadeRepoMock) BuscarPorID(ctx context.Context, id, userID string) (*models.Oportunidade, error) {
	if m.BuscarPorIDFn == nil {
		return nil, errors.New("BuscarPorIDFn not set")
	}
	return m.BuscarPorIDFn(ctx, id, userID)
}
func (m *oportunidadeRepoMock) AtualizarStatus(ctx context.Context, id, userID, status string) error {
	if m.AtualizarStatusFn == nil {
		return errors.New("AtualizarStatusFn not set")
	}
	return m.AtualizarStatusFn(ctx, id, userID, status)
}

type documentoRepoMock struct {
	CriarFn            func(ctx context.Context, d *models.Documento) (string, error)
	ListarPorUsuarioFn func(ctx context.Context, userID string) ([]models.Documento, error)
	BuscarPorIDFn      func(ctx context.Context, id, userID string) (*models.Documento, error)
}

func (m *documentoRepoMock) Criar(ctx context.Context, d *models.Documento) (string, error) {
	if m.CriarFn == nil {
		return "", errors.New("CriarFn not set")
	}
	return m.CriarFn(ctx, d)
}
func (m *documentoRepoMock) ListarPorUsuario(ctx context.Context, userID string) ([]models.Documento, error) {
	if m.ListarPorUsuarioFn == nil {
		return nil, errors.New("ListarPorUsuarioFn not set")
	}
	return m.ListarPorUsuarioFn(ctx, userID)
}
func (m *documentoRepoMock) BuscarPorID(ctx context.Context, id, userID string) (*models.Documento, error) {
	if m.BuscarPorIDFn == nil {
		return nil, errors.New("BuscarPorIDFn not set")
	}
	return m.BuscarPorIDFn(ctx, id, userID)
}

type participacaoRepoMock struct {
	CriarFn            func(ctx context.Context, p *models.Participacao) (string, error)
	ListarPorUsuarioFn func(ctx context.Context, userID string) ([]models.Participacao, error)
	BuscarPorIDFn      func(ctx context.Context, id, userID string) (*models.Participacao, error)
	AtualizarStatusFn  func(ctx context.Context, id, userID, status string, ev models.EventoTimeline) error
}

func (m *participacaoRepoMock) Criar(ctx context.Context, p *models.Participacao) (string, error) {
	if m.CriarFn == nil {
		return "", errors.New("CriarFn not set")
	}
	return m.CriarFn(ctx, p)
}
func (m *participacaoRepoMock) ListarPorUsuario(ctx context.Context, userID string) ([]models.Participacao, error) {
	if m.ListarPorUsuarioFn == nil {
		return nil, errors.New("ListarPorUsuarioFn not set")
	}
	return m.ListarPorUsuarioFn(ctx, userID)
}
func (m *participacaoRepoMock) BuscarPorID(ctx context.Context, id, userID string) (*models.Participacao, error) {
	if m.BuscarPorIDFn == nil {
		return nil, errors.New("BuscarPorIDFn not set")
	}
	return m.BuscarPorIDFn(ctx, id, userID)
}
func (m *participacaoRepoMock) AtualizarStatus(ctx context.Context, id, userID, status string, ev models.EventoTimeline) error {
	if m.AtualizarStatusFn == nil {
		return errors.New("AtualizarStatusFn not set")
	}
	return m.AtualizarStatusFn(ctx, id, userID, status, ev)
}

type pubMock struct {
	PublicarFn func(ctx context.Context, ev broker.Evento) error
}

func (p *pubMock) Publicar(ctx context.Context, ev broker.Evento) error {
	if p.PublicarFn == nil {
		return nil
	}
	return p.PublicarFn(ctx, ev)
}

type arquivoStoreMock struct {
	SalvarFn func(ctx context.Context, nome string, r io.Reader) (string, error)
	AbrirFn  func(ctx context.Context, idHex string) (io.ReadCloser, string, error)
}

func (m *arquivoStoreMock) Salvar(ctx context.Context, nome string, r io.Reader) (string, error) {
	if m.SalvarFn == nil {
		return "", errors.New("SalvarFn not set")
	}
	return m.SalvarFn(ctx, nome, r)
}
func (m *arquivoStoreMock) Abrir(ctx context.Context, idHex string) (io.ReadCloser, string, error) {
	if m.AbrirFn == nil {
		return nil, "", errors.New("AbrirFn not set")
	}
	return m.AbrirFn(ctx, idHex)
}

// conteudoFixo devolve um ReadCloser pronto para os testes de download.
func conteudoFixo(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}
