package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ialicitacoes/gestao-licitacoes/internal/auth"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
	"github.com/ialicitacoes/gestao-licitacoes/internal/utils"
)

type RelatorioHandler struct {
	Participacoes ParticipacaoRepo
	Documentos    DocumentoRepo
}

func NewRelatorioHandler(part ParticipacaoRepo, doc DocumentoRepo) *RelatorioHandler {
	return &RelatorioHandler{Participacoes: part, Documentos: doc}
}

type resumoRelatorio struct {
	Participacoes struct {
		Total       int     `json:"total"`
		EmAndamento int     `json:"em_andamento"`
		Vitorias    int     `json:"vitorias"`
		Derrotas    int     `json:"derrotas"`
		TaxaVitoria float64 `json:"taxa_vitoria"`
	} `json:"participacoes"`
	Documentos struct {
		Total     int `json:"total"`
		Validos   int `json:"validos"`
		Vencidos  int `json:"vencidos"`
		Pendentes int `json:"pendentes"`
	} `json:"documentos"`
}

// Health atende /healthz.
func (h *RelatorioHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Resumo atende /api/relatorios/resumo: desempenho em licitações e
// saúde documental da empresa do usuário.
func (h *RelatorioHandler) Resumo(w http.ResponseWriter, r *http.Request) {
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

	parts, err := h.Participacoes.ListarPorUsuario(ctx, userID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	docs, err := h.Documentos.ListarPorUsuario(ctx, userID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var resumo resumoRelatorio
	resumo.Participacoes.Total = len(parts)
	for _, p := range parts {
		switch p.Status {
		case models.ParticipacaoVencida:
			resumo.Participacoes.Vitorias++
		case models.ParticipacaoPerdida:
			resumo.Participacoes.Derrotas++
		default:
			resumo.Participacoes.EmAndamento++
		}
	}
	// A taxa considera apenas os certames já decididos.
	if decididas := resumo.Participacoes.Vitorias + resumo.Participacoes.Derrotas; decididas > 0 {
		resumo.Participacoes.TaxaVitoria = float64(resumo.Participacoes.Vitorias) / float64(decididas) * 100
	}

	agora := time.Now()
	resumo.Documentos.Total = len(docs)
	for i := range docs {
		switch StatusDerivado(&docs[i], agora) {
		case models.DocumentoValido:
			resumo.Documentos.Validos++
		case models.DocumentoVencido:
			resumo.Documentos.Vencidos++
		default:
			resumo.Documentos.Pendentes++
		}
	}

	utils.WriteJSON(w, http.StatusOK, resumo)
}
