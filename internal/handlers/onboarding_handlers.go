package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ialicitacoes/gestao-licitacoes/internal/auth"
	"github.com/ialicitacoes/gestao-licitacoes/internal/onboarding"
	"github.com/ialicitacoes/gestao-licitacoes/internal/utils"
)

type MensagemDTO struct {
	Conteudo string `json:"conteudo"`
}

type OnboardingHandler struct {
	Ctrl *onboarding.Controlador
}

func NewOnboardingHandler(ctrl *onboarding.Controlador) *OnboardingHandler {
	return &OnboardingHandler{Ctrl: ctrl}
}

// Mensagens atende /api/onboarding/mensagens:
// GET  devolve o log completo + estágio atual (abre a conversa se for a primeira vez)
// POST processa um turno do usuário
func (h *OnboardingHandler) Mensagens(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		conv, hist, err := h.Ctrl.Iniciar(ctx, userID)
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]any{
			"estado":    conv.Estado,
			"dados":     conv.Dados,
			"erros":     conv.Erros,
			"mensagens": hist,
		})

	case http.MethodPost:
		var dto MensagemDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		if strings.TrimSpace(dto.Conteudo) == "" {
			utils.BadRequest(w, "conteudo is required")
			return
		}

		// a chamada de extração pode demorar mais que um acesso ao banco
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		resposta, conv, err := h.Ctrl.ProcessarMensagem(ctx, userID, dto.Conteudo)
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]any{
			"mensagem": resposta, // pode ser null (primeiro turno)
			"estado":   conv.Estado,
			"erros":    conv.Erros,
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
