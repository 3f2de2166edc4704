package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ialicitacoes/gestao-licitacoes/internal/auth"
	"github.com/ialicitacoes/gestao-licitacoes/internal/broker"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
	"github.com/ialicitacoes/gestao-licitacoes/internal/repository"
	"github.com/ialicitacoes/gestao-licitacoes/internal/utils"
)

type ParticipacaoRepo interface {
	Criar(ctx context.Context, p *models.Participacao) (string, error)
	ListarPorUsuario(ctx context.Context, userID string) ([]models.Participacao, error)
	BuscarPorID(ctx context.Context, id, userID string) (*models.Participacao, error)
	AtualizarStatus(ctx context.Context, id, userID, status string, ev models.EventoTimeline) error
}

type ParticipacaoHandler struct {
	Repo     ParticipacaoRepo
	Empresas EmpresaRepo
	Pub      Publicador
}

func NewParticipacaoHandler(repo ParticipacaoRepo, empresas EmpresaRepo, pub Publicador) *ParticipacaoHandler {
	return &ParticipacaoHandler{Repo: repo, Empresas: empresas, Pub: pub}
}

var statusParticipacaoValidos = map[string]bool{
	models.ParticipacaoPreparando:  true,
	models.ParticipacaoEnviada:     true,
	models.ParticipacaoEmAndamento: true,
	models.ParticipacaoVencida:     true,
	models.ParticipacaoPerdida:     true,
	models.ParticipacaoRecurso:     true,
}

type ParticipacaoCreateDTO struct {
	NumeroPregao string  `json:"numero_pregao"`
	OrgaoNome    string  `json:"orgao_nome"`
	LanceInicial float64 `json:"lance_inicial,omitempty"`
	LanceMinimo  float64 `json:"lance_minimo,omitempty"`
}

// Participacoes atende /api/participacoes (GET lista, POST cria).
func (h *ParticipacaoHandler) Participacoes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		list, err := h.Repo.ListarPorUsuario(ctx, userID)
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]any{
			"total":         len(list),
			"participacoes": list,
		})

	case http.MethodPost:
		var dto ParticipacaoCreateDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		if strings.TrimSpace(dto.NumeroPregao) == "" || strings.TrimSpace(dto.OrgaoNome) == "" {
			utils.BadRequest(w, "numero_pregao and orgao_nome are required")
			return
		}

		empresa, err := h.Empresas.BuscarPorUsuario(ctx, userID)
		if err != nil {
			utils.WriteJSON(w, http.StatusConflict, map[string]string{"error": "complete o onboarding antes de participar"})
			return
		}

		agora := time.Now()
		p := &models.Participacao{
			ID:           "part_" + uuid.NewString(),
			UserID:       userID,
			EmpresaID:    empresa.ID,
			NumeroPregao: dto.NumeroPregao,
			OrgaoNome:    dto.OrgaoNome,
			LanceInicial: dto.LanceInicial,
			LanceMinimo:  dto.LanceMinimo,
			Status:       models.ParticipacaoPreparando,
			Timeline: []models.EventoTimeline{{
				ID:           "ev_" + uuid.NewString(),
				Tipo:         "criacao",
				Titulo:       "Participação criada",
				Descricao:    fmt.Sprintf("Pregão %s — %s", dto.NumeroPregao, dto.OrgaoNome),
				Timestamp:    agora,
				ExecutadoPor: "user",
				Status:       "completed",
			}},
		}
		if _, err := h.Repo.Criar(ctx, p); err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusCreated, p)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ParticipacaoByID atende /api/participacoes/{id} (GET e PATCH de status).
// O PATCH anexa um evento na timeline; a timeline nunca é reescrita.
func (h *ParticipacaoHandler) ParticipacaoByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "api" || parts[1] != "participacoes" || parts[2] == "" {
		utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	id := parts[2]

	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		p, err := h.Repo.BuscarPorID(ctx, id, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNaoEncontrado) {
				utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, p)

	case http.MethodPatch:
		var dto struct {
			Status    string `json:"status"`
			Descricao string `json:"descricao,omitempty"`
		}
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		if !statusParticipacaoValidos[dto.Status] {
			utils.BadRequest(w, "invalid status")
			return
		}

		ev := models.EventoTimeline{
			ID:           "ev_" + uuid.NewString(),
			Tipo:         "status",
			Titulo:       fmt.Sprintf("Status alterado para %s", dto.Status),
			Descricao:    dto.Descricao,
			Timestamp:    time.Now(),
			ExecutadoPor: "user",
			Status:       "completed",
		}
		if err := h.Repo.AtualizarStatus(ctx, id, userID, dto.Status, ev); err != nil {
			if errors.Is(err, repository.ErrNaoEncontrado) {
				utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		if h.Pub != nil {
			pctx, pcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pcancel()
			_ = h.Pub.Publicar(pctx, broker.Evento{
				Tipo:     broker.EventoParticipacaoAtualizada,
				UserID:   userID,
				Mensagem: fmt.Sprintf("Participação atualizada: %s", dto.Status),
				Dados:    map[string]string{"participacao_id": id, "status": dto.Status},
			})
		}

		utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": dto.Status})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
