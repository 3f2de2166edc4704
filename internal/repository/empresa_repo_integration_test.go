//go:build integration
// +build integration

package repository

/*
	Para rodar: go test -tags=integration -v ./internal/repository -count=1

	obs: rodar todos os de integração: go test -tags=integration -v ./... -count=1
*/

import (
	"context"
	"errors"
	"testing"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ialicitacoes/gestao-licitacoes/internal/db"
	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
)

func mongoDeTeste(t *testing.T) *EmpresaRepository {
	t.Helper()
	ctx := context.Background()

	// Sobe Mongo real
	mongoC, err := mongodb.RunContainer(ctx, tc.WithImage("mongo:7"))
	if err != nil {
		t.Fatalf("start mongo: %v", err)
	}
	t.Cleanup(func() { _ = mongoC.Terminate(ctx) })

	uri, err := mongoC.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("conn string: %v", err)
	}

	client, err := db.NewMongoClient(uri)
	if err != nil {
		t.Fatalf("mongo client: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	repo := NewEmpresaRepository(client.Database("testdb"))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return repo
}

func empresaIntegracao(userID string) *models.Empresa {
	return &models.Empresa{
		ID:                  "11222333000181",
		UserID:              userID,
		CNPJ:                "11.222.333/0001-81",
		RazaoSocial:         "ACME Suprimentos LTDA",
		NomeFantasia:        "ACME",
		EmailContato:        "maria@acme.com.br",
		TelefoneWhatsapp:    "(11) 98765-4321",
		OnboardingConcluido: true,
	}
}

// Exercita: Criar -> BuscarPorID/BuscarPorUsuario -> Atualizar
func TestEmpresaRepository_Integration_CicloCompleto(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mongoDeTeste(t)

	id, err := repo.Criar(ctx, empresaIntegracao("user_abc"))
	if err != nil {
		t.Fatalf("criar: %v", err)
	}
	if id != "11222333000181" {
		t.Fatalf("id = %q", id)
	}

	got, err := repo.BuscarPorID(ctx, id)
	if err != nil || got.RazaoSocial != "ACME Suprimentos LTDA" {
		t.Fatalf("buscar por id: %#v err=%v", got, err)
	}

	got, err = repo.BuscarPorUsuario(ctx, "user_abc")
	if err != nil || got.ID != id {
		t.Fatalf("buscar por usuário: %#v err=%v", got, err)
	}

	// update parcial não pode tocar no cnpj mesmo se alguém tentar
	err = repo.Atualizar(ctx, id, bson.M{
		"nome_fantasia": "ACME NOVA",
		"cnpj":          "99.888.777/0001-66",
	})
	if err != nil {
		t.Fatalf("atualizar: %v", err)
	}
	got, err = repo.BuscarPorID(ctx, id)
	if err != nil {
		t.Fatalf("reler: %v", err)
	}
	if got.NomeFantasia != "ACME NOVA" {
		t.Fatalf("nome fantasia = %q", got.NomeFantasia)
	}
	if got.CNPJ != "11.222.333/0001-81" {
		t.Fatalf("cnpj mudou: %q", got.CNPJ)
	}
}

func TestEmpresaRepository_Integration_CNPJDuplicado(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mongoDeTeste(t)

	if _, err := repo.Criar(ctx, empresaIntegracao("user_abc")); err != nil {
		t.Fatalf("criar: %v", err)
	}

	// mesmo CNPJ, outro usuário
	dup := empresaIntegracao("user_outro")
	if _, err := repo.Criar(ctx, dup); !errors.Is(err, ErrCNPJDuplicado) {
		t.Fatalf("err = %v; want ErrCNPJDuplicado", err)
	}
}

func TestEmpresaRepository_Integration_NaoEncontrado(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mongoDeTeste(t)

	if _, err := repo.BuscarPorUsuario(ctx, "user_fantasma"); !errors.Is(err, ErrNaoEncontrado) {
		t.Fatalf("err = %v; want ErrNaoEncontrado", err)
	}
	if err := repo.Atualizar(ctx, "00000000000000", bson.M{"nome_fantasia": "X"}); !errors.Is(err, ErrNaoEncontrado) {
		t.Fatalf("err = %v; want ErrNaoEncontrado", err)
	}
}
