package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
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

const maxUpload = 10 << 20 // 10 MiB por arquivo

type DocumentoRepo interface {
	Criar(ctx context.Context, d *models.Documento) (string, error)
	ListarPorUsuario(ctx context.Context, userID string) ([]models.Documento, error)
	BuscarPorID(ctx context.Context, id, userID string) (*models.Documento, error)
}

type ArquivoStore interface {
	Salvar(ctx context.Context, nome string, r io.Reader) (string, error)
	Abrir(ctx context.Context, idHex string) (io.ReadCloser, string, error)
}

type DocumentoHandler struct {
	Repo     DocumentoRepo
	Empresas EmpresaRepo
	Arquivos ArquivoStore
	Pub      Publicador
}

func NewDocumentoHandler(repo DocumentoRepo, empresas EmpresaRepo, arq ArquivoStore, pub Publicador) *DocumentoHandler {
	return &DocumentoHandler{Repo: repo, Empresas: empresas, Arquivos: arq, Pub: pub}
}

// StatusDerivado recalcula o status a partir da validade; o valor
// gravado na coleção pode ter envelhecido desde o upload.
func StatusDerivado(d *models.Documento, agora time.Time) string {
	if d.DataValidade == nil {
		if d.ArquivoID == "" {
			return models.DocumentoPendente
		}
		return models.DocumentoValido
	}
	if d.DataValidade.Before(agora) {
		return models.DocumentoVencido
	}
	return models.DocumentoValido
}

// Documentos atende /api/documentos (GET lista, POST upload multipart).
func (h *DocumentoHandler) Documentos(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := h.Repo.ListarPorUsuario(ctx, userID)
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		agora := time.Now()
		for i := range list {
			list[i].Status = StatusDerivado(&list[i], agora)
		}
		utils.WriteJSON(w, http.StatusOK, map[string]any{
			"total":      len(list),
			"documentos": list,
		})

	case http.MethodPost:
		h.upload(w, r, userID)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// upload espera multipart/form-data com os campos tipo_documento,
// data_emissao e data_validade (YYYY-MM-DD, opcionais) e o arquivo
// no campo "arquivo".
func (h *DocumentoHandler) upload(w http.ResponseWriter, r *http.Request, userID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		utils.BadRequest(w, "invalid multipart body")
		return
	}

	tipo := strings.TrimSpace(r.FormValue("tipo_documento"))
	if tipo == "" {
		utils.BadRequest(w, "tipo_documento is required")
		return
	}

	var emissao, validade *time.Time
	if v := r.FormValue("data_emissao"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			utils.BadRequest(w, "invalid data_emissao")
			return
		}
		emissao = &t
	}
	if v := r.FormValue("data_validade"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			utils.BadRequest(w, "invalid data_validade")
			return
		}
		validade = &t
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	empresa, err := h.Empresas.BuscarPorUsuario(ctx, userID)
	if err != nil {
		utils.WriteJSON(w, http.StatusConflict, map[string]string{"error": "complete o onboarding antes de enviar documentos"})
		return
	}

	doc := &models.Documento{
		ID:            "doc_" + uuid.NewString(),
		UserID:        userID,
		EmpresaID:     empresa.ID,
		TipoDocumento: tipo,
		DataEmissao:   emissao,
		DataValidade:  validade,
	}

	file, header, err := r.FormFile("arquivo")
	if err == nil {
		defer file.Close()
		arquivoID, err := h.Arquivos.Salvar(ctx, header.Filename, file)
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		doc.ArquivoID = arquivoID
		doc.NomeArquivo = header.Filename
		doc.ArquivoURL = fmt.Sprintf("/api/documentos/%s/arquivo", doc.ID)
	}
	doc.Status = StatusDerivado(doc, time.Now())

	if _, err := h.Repo.Criar(ctx, doc); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.Pub != nil {
		pctx, pcancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer pcancel()
		_ = h.Pub.Publicar(pctx, broker.Evento{
			Tipo:     broker.EventoDocumentoEnviado,
			UserID:   userID,
			Mensagem: fmt.Sprintf("Documento %s recebido", tipo),
			Dados:    map[string]string{"documento_id": doc.ID, "tipo_documento": tipo},
		})
	}

	utils.WriteJSON(w, http.StatusCreated, doc)
}

// DocumentoArquivo atende /api/documentos/{id}/arquivo (download).
func (h *DocumentoHandler) DocumentoArquivo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "api" || parts[1] != "documentos" || parts[3] != "arquivo" {
		utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	id := parts[2]

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	doc, err := h.Repo.BuscarPorID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNaoEncontrado) {
			utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if doc.ArquivoID == "" {
		utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "documento sem arquivo"})
		return
	}

	stream, nome, err := h.Arquivos.Abrir(ctx, doc.ArquivoID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nome))
	_, _ = io.Copy(w, stream)
}
