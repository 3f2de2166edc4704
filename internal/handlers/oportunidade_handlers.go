package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ialicitacoes/gestao-licitacoes/internal/auth"
	"github.com/ialicitacoes/gestao-licitacoes/internal/broker"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
	"github.com/ialicitacoes/gestao-licitacoes/internal/repository"
	"github.com/ialicitacoes/gestao-licitacoes/internal/utils"
)

// Publicador desacopla os handlers do broker real (mock nos testes).
type Publicador interface {
	Publicar(ctx context.Context, ev broker.Evento) error
}

type OportunidadeRepo interface {
	ListarPorUsuario(ctx context.Context, userID string, limit, skip int64) ([]models.Oportunidade, error)
	BuscarPorID(ctx context.Context, id, userID string) (*models.Oportunidade, error)
	AtualizarStatus(ctx context.Context, id, userID, status string) error
}

type OportunidadeHandler struct {
	Repo OportunidadeRepo
	Pub  Publicador
}

func NewOportunidadeHandler(repo OportunidadeRepo, pub Publicador) *OportunidadeHandler {
	return &OportunidadeHandler{Repo: repo, Pub: pub}
}

var statusOportunidadeValidos = map[string]bool{
	models.OportunidadeNova:         true,
	models.OportunidadeVista:        true,
	models.OportunidadeInteressada:  true,
	models.OportunidadeParticipando: true,
	models.OportunidadeVencida:      true,
	models.OportunidadePerdida:      true,
}

// garantir que a requisição venha no padrão /api/oportunidades/{id}
func parseOportunidadeID(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "oportunidades" && parts[2] != "" {
		return parts[2], true
	}
	return "", false
}

// Oportunidades atende /api/oportunidades (lista com filtros).
//
// Query params: q (substring, sem distinção de caixa, sobre órgão,
// objeto e número do pregão), status, limit e skip.
func (h *OportunidadeHandler) Oportunidades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	limit := int64(50)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	var skip int64
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			skip = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Repo.ListarPorUsuario(ctx, userID, limit, skip)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	status := r.URL.Query().Get("status")
	list = filtrarOportunidades(list, q, status)

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"total":         len(list),
		"oportunidades": list,
	})
}

func filtrarOportunidades(list []models.Oportunidade, q, status string) []models.Oportunidade {
	if q == "" && status == "" {
		return list
	}
	q = strings.ToLower(q)
	out := []models.Oportunidade{}
	for _, o := range list {
		if status != "" && o.Status != status {
			continue
		}
		if q != "" && !contemTermo(&o, q) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func contemTermo(o *models.Oportunidade, q string) bool {
	if o.Licitacao == nil {
		return false
	}
	l := o.Licitacao
	return strings.Contains(strings.ToLower(l.OrgaoNome), q) ||
		strings.Contains(strings.ToLower(l.Objeto), q) ||
		strings.Contains(strings.ToLower(l.NumeroPregao), q)
}

// Resumo atende /api/oportunidades/resumo: contadores para o painel.
func (h *OportunidadeHandler) Resumo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// limit 0 = sem limite; o resumo precisa do conjunto inteiro
	list, err := h.Repo.ListarPorUsuario(ctx, userID, 0, 0)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var altoScore, abremHoje, novas int
	hoje := time.Now()
	for _, o := range list {
		if o.Status == models.OportunidadeNova {
			novas++
		}
		if o.MatchScore >= 80 {
			altoScore++
		}
		if o.Licitacao != nil && mesmoDia(o.Licitacao.DataAbertura, hoje) {
			abremHoje++
		}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]int{
		"total":      len(list),
		"novas":      novas,
		"alto_score": altoScore,
		"abrem_hoje": abremHoje,
	})
}

func mesmoDia(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// OportunidadeByID atende /api/oportunidades/{id} (GET e PATCH de status).
func (h *OportunidadeHandler) OportunidadeByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOportunidadeID(r.URL.Path)
	if !ok {
		utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		o, err := h.Repo.BuscarPorID(ctx, id, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNaoEncontrado) {
				utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, o)

	case http.MethodPatch:
		var dto struct {
			Status string `json:"status"`
		}
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		if !statusOportunidadeValidos[dto.Status] {
			utils.BadRequest(w, "invalid status")
			return
		}

		if err := h.Repo.AtualizarStatus(ctx, id, userID, dto.Status); err != nil {
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
				Tipo:     broker.EventoOportunidadeAtualizada,
				UserID:   userID,
				Mensagem: "Oportunidade atualizada",
				Dados:    map[string]string{"oportunidade_id": id, "status": dto.Status},
			})
		}

		utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": dto.Status})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
