package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ialicitacoes/gestao-licitacoes/internal/broker"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
)

func TestParticipacoes_Create(t *testing.T) {
	var criada *models.Participacao
	pr := &participacaoRepoMock{
		CriarFn: func(_ context.Context, p *models.Participacao) (string, error) {
			criada = p
			return p.ID, nil
		},
	}
	em := &empresaRepoMock{
		BuscarPorUsuarioFn: func(_ context.Context, _ string) (*models.Empresa, error) {
			return empresaExemplo(), nil
		},
	}
	h := NewParticipacaoHandler(pr, em, &pubMock{})

	body := `{"numero_pregao":"PE 90012/2026","orgao_nome":"Prefeitura de Campinas","lance_inicial":125000}`
	req := comUsuario(httptest.NewRequest(http.MethodPost, "/api/participacoes", bytes.NewBufferString(body)), userTeste)
	rr := httptest.NewRecorder()
	h.Participacoes(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if criada == nil || criada.Status != models.ParticipacaoPreparando {
		t.Fatalf("participação criada errada: %+v", criada)
	}
	// Nasce com o evento de criação já na timeline
	if len(criada.Timeline) != 1 || criada.Timeline[0].ExecutadoPor != "user" {
		t.Fatalf("timeline inicial: %+v", criada.Timeline)
	}
}

func TestParticipacoes_Create_CamposObrigatorios(t *testing.T) {
	h := NewParticipacaoHandler(&participacaoRepoMock{}, &empresaRepoMock{}, &pubMock{})

	body := `{"numero_pregao":""}`
	req := comUsuario(httptest.NewRequest(http.MethodPost, "/api/participacoes", bytes.NewBufferString(body)), userTeste)
	rr := httptest.NewRecorder()
	h.Participacoes(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusBadRequest)
	}
}

func TestParticipacoes_List(t *testing.T) {
	pr := &participacaoRepoMock{
		ListarPorUsuarioFn: func(_ context.Context, userID string) ([]models.Participacao, error) {
			if userID != userTeste {
				t.Fatalf("userID = %q", userID)
			}
			return []models.Participacao{
				{ID: "part_1", Status: models.ParticipacaoEnviada},
			}, nil
		},
	}
	h := NewParticipacaoHandler(pr, &empresaRepoMock{}, &pubMock{})

	req := comUsuario(httptest.NewRequest(http.MethodGet, "/api/participacoes", nil), userTeste)
	rr := httptest.NewRecorder()
	h.Participacoes(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var got struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Total != 1 {
		t.Fatalf("total = %d; want 1", got.Total)
	}
}

func TestParticipacaoByID_Patch_AnexaTimeline(t *testing.T) {
	var gotEv models.EventoTimeline
	var publicado *broker.Evento
	pr := &participacaoRepoMock{
		AtualizarStatusFn: func(_ context.Context, id, userID, status string, ev models.EventoTimeline) error {
			if id != "part_1" || status != models.ParticipacaoEnviada {
				t.Fatalf("args: %q %q", id, status)
			}
			gotEv = ev
			return nil
		},
	}
	pm := &pubMock{
		PublicarFn: func(_ context.Context, ev broker.Evento) error {
			publicado = &ev
			return nil
		},
	}
	h := NewParticipacaoHandler(pr, &empresaRepoMock{}, pm)

	body := `{"status":"submitted","descricao":"Proposta enviada no comprasnet"}`
	req := comUsuario(httptest.NewRequest(http.MethodPatch, "/api/participacoes/part_1", bytes.NewBufferString(body)), userTeste)
	rr := httptest.NewRecorder()
	h.ParticipacaoByID(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if gotEv.ExecutadoPor != "user" || gotEv.Tipo != "status" {
		t.Fatalf("evento timeline: %+v", gotEv)
	}
	if gotEv.Timestamp.IsZero() || time.Since(gotEv.Timestamp) > time.Minute {
		t.Fatalf("timestamp do evento: %v", gotEv.Timestamp)
	}
	if publicado == nil || publicado.Tipo != broker.EventoParticipacaoAtualizada {
		t.Fatalf("evento broker: %+v", publicado)
	}
}

func TestParticipacaoByID_Patch_StatusInvalido(t *testing.T) {
	h := NewParticipacaoHandler(&participacaoRepoMock{}, &empresaRepoMock{}, &pubMock{})

	body := `{"status":"cancelada"}`
	req := comUsuario(httptest.NewRequest(http.MethodPatch, "/api/participacoes/part_1", bytes.NewBufferString(body)), userTeste)
	rr := httptest.NewRecorder()
	h.ParticipacaoByID(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusBadRequest)
	}
}
