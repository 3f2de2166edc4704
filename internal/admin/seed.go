package admin

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
	"github.com/ialicitacoes/gestao-licitacoes/internal/repository"
)

//go:embed seeds/catalogo.json
var catalogoJSON []byte

type seedItem struct {
	ProdutoServico string `json:"produto_servico"`
	CatmatCode     string `json:"catmat_code"`
	CatserCode     string `json:"catser_code"`
}

// SeedCatalogo carrega a tabela CATMAT/CATSER embarcada no binário.
// Idempotente: cria se não existir; se já existir, ignora.
func SeedCatalogo(ctx context.Context, repo *repository.CatalogoRepository, log *slog.Logger) error {
	var items []seedItem
	if err := json.Unmarshal(catalogoJSON, &items); err != nil {
		return err
	}

	for _, s := range items {
		produto := strings.TrimSpace(s.ProdutoServico)
		if produto == "" || (s.CatmatCode == "" && s.CatserCode == "") {
			log.Warn("seed_skip_item_invalido", "produto", s.ProdutoServico)
			continue
		}

		it := models.ItemCatalogo{
			ID:             "cat_" + strings.ReplaceAll(strings.ToLower(produto), " ", "_"),
			ProdutoServico: produto,
			CatmatCode:     s.CatmatCode,
			CatserCode:     s.CatserCode,
		}

		// timeout curto por item pra não travar
		ictx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := repo.Criar(ictx, &it)
		cancel()

		if err != nil {
			if errors.Is(err, repository.ErrItemCatalogoDuplicado) {
				log.Info("seed_item_existe", "produto", produto)
				continue
			}
			return err
		}
		log.Info("seed_item_criado", "produto", produto)
	}

	log.Info("seed_catalogo_done", "count", len(items))
	return nil
}
