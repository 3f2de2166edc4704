package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ialicitacoes/gestao-licitacoes/internal/auth"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
	"github.com/ialicitacoes/gestao-licitacoes/internal/repository"
	"github.com/ialicitacoes/gestao-licitacoes/internal/utils"
)

// Update parcial; ponteiros distinguem "omitido" de "informado".
// O campo cnpj só existe para ser rejeitado: é imutável após o onboarding.
type EmpresaPatchDTO struct {
	CNPJ                  *string `json:"cnpj,omitempty"`
	NomeFantasia          *string `json:"nome_fantasia,omitempty"`
	EnderecoCompleto      *string `json:"endereco_completo,omitempty"`
	CNAEPrincipal         *string `json:"cnae_principal,omitempty"`
	PorteEmpresa          *string `json:"porte_empresa,omitempty"`
	ProdutosServicosFoco  *string `json:"produtos_servicos_foco,omitempty"`
	ExperienciaLicitacoes *string `json:"experiencia_licitacoes,omitempty"`
	NomeContatoPrincipal  *string `json:"nome_contato_principal,omitempty"`
	EmailContato          *string `json:"email_contato,omitempty"`
	TelefoneWhatsapp      *string `json:"telefone_whatsapp,omitempty"`
}

type EmpresaRepo interface {
	BuscarPorUsuario(ctx context.Context, userID string) (*models.Empresa, error)
	Atualizar(ctx context.Context, id string, set bson.M) error
}

type EmpresaHandler struct {
	Repo EmpresaRepo
}

func NewEmpresaHandler(repo EmpresaRepo) *EmpresaHandler {
	return &EmpresaHandler{Repo: repo}
}

// Empresa atende /api/empresa (a empresa do usuário autenticado).
func (h *EmpresaHandler) Empresa(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		e, err := h.Repo.BuscarPorUsuario(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNaoEncontrado) {
				utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, e)

	case http.MethodPatch:
		var dto EmpresaPatchDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		if dto.CNPJ != nil {
			utils.BadRequest(w, "cnpj is immutable after onboarding")
			return
		}

		e, err := h.Repo.BuscarPorUsuario(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNaoEncontrado) {
				utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		set := bson.M{}
		if dto.NomeFantasia != nil {
			set["nome_fantasia"] = *dto.NomeFantasia
		}
		if dto.EnderecoCompleto != nil {
			set["endereco_completo"] = *dto.EnderecoCompleto
		}
		if dto.CNAEPrincipal != nil {
			set["cnae_principal"] = *dto.CNAEPrincipal
		}
		if dto.PorteEmpresa != nil {
			set["porte_empresa"] = *dto.PorteEmpresa
		}
		if dto.ProdutosServicosFoco != nil {
			set["produtos_servicos_foco"] = *dto.ProdutosServicosFoco
		}
		if dto.ExperienciaLicitacoes != nil {
			set["experiencia_licitacoes"] = *dto.ExperienciaLicitacoes
		}
		if dto.NomeContatoPrincipal != nil {
			set["nome_contato_principal"] = *dto.NomeContatoPrincipal
		}
		if dto.EmailContato != nil {
			if !utils.ValidateEmail(*dto.EmailContato) {
				utils.BadRequest(w, "invalid email")
				return
			}
			set["email_contato"] = *dto.EmailContato
		}
		if dto.TelefoneWhatsapp != nil {
			tel, err := utils.FormatTelefone(*dto.TelefoneWhatsapp)
			if err != nil {
				utils.BadRequest(w, "invalid telefone")
				return
			}
			set["telefone_whatsapp"] = tel
		}
		if len(set) == 0 {
			utils.BadRequest(w, "no fields to update")
			return
		}

		if err := h.Repo.Atualizar(ctx, e.ID, set); err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		atualizado, err := h.Repo.BuscarPorUsuario(ctx, userID)
		if err != nil {
			utils.WriteJSON(w, http.StatusOK, map[string]string{"id": e.ID})
			return
		}
		utils.WriteJSON(w, http.StatusOK, atualizado)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
