package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
)

var (
	ErrCNPJDuplicado = errors.New("cnpj already exists")
	ErrNaoEncontrado = errors.New("not found")
)

type EmpresaRepository struct {
	coll *mongo.Collection
}

func NewEmpresaRepository(db *mongo.Database) *EmpresaRepository {
	return &EmpresaRepository{coll: db.Collection("empresas")}
}

func (r *EmpresaRepository) EnsureIndexes(ctx context.Context) error {
	idx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cnpj", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_cnpj"),
		},
		{
			// no máximo uma empresa por usuário
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user"),
		},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, idx)
	if err == nil {
		return nil
	}
	// Se já existir com outra opção, tenta dropar e recriar
	if ce, ok := err.(mongo.CommandError); ok && ce.Code == 85 { // IndexOptionsConflict
		for _, name := range []string{"uniq_cnpj", "uniq_user"} {
			if _, dropErr := r.coll.Indexes().DropOne(ctx, name); dropErr != nil {
				return fmt.Errorf("drop index %s: %w", name, dropErr)
			}
		}
		_, createErr := r.coll.Indexes().CreateMany(ctx, idx)
		return createErr
	}
	return err
}

func (r *EmpresaRepository) Criar(ctx context.Context, e *models.Empresa) (string, error) {
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	res, err := r.coll.InsertOne(ctx, e)
	if err != nil {
		if we, ok := err.(mongo.WriteException); ok {
			for _, e := range we.WriteErrors {
				if e.Code == 11000 {
					return "", ErrCNPJDuplicado
				}
			}
		}
		return "", err
	}
	id, _ := res.InsertedID.(string) // usamos o CNPJ sanitizado como _id
	return id, nil
}

func (r *EmpresaRepository) BuscarPorID(ctx context.Context, id string) (*models.Empresa, error) {
	var e models.Empresa
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &e, nil
}

func (r *EmpresaRepository) BuscarPorUsuario(ctx context.Context, userID string) (*models.Empresa, error) {
	var e models.Empresa
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &e, nil
}

// Atualizar aplica um $set parcial. O CNPJ nunca entra aqui: é imutável
// depois de aceito no onboarding.
func (r *EmpresaRepository) Atualizar(ctx context.Context, id string, set bson.M) error {
	delete(set, "cnpj")
	delete(set, "_id")
	set["updated_at"] = time.Now()
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNaoEncontrado
	}
	return nil
}
