package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
)

var ErrItemCatalogoDuplicado = errors.New("catalog item already exists")

// CatalogoRepository expõe a tabela estática CATMAT/CATSER usada
// para marcar os produtos/serviços declarados no onboarding.
type CatalogoRepository struct {
	coll *mongo.Collection
}

func NewCatalogoRepository(db *mongo.Database) *CatalogoRepository {
	return &CatalogoRepository{coll: db.Collection("catalogo_catmat_catser")}
}

func (r *CatalogoRepository) Criar(ctx context.Context, item *models.ItemCatalogo) error {
	_, err := r.coll.InsertOne(ctx, item)
	if err != nil {
		if we, ok := err.(mongo.WriteException); ok {
			for _, e := range we.WriteErrors {
				if e.Code == 11000 {
					return ErrItemCatalogoDuplicado
				}
			}
		}
	}
	return err
}

func (r *CatalogoRepository) Listar(ctx context.Context) ([]models.ItemCatalogo, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.ItemCatalogo{}
	for cur.Next(ctx) {
		var it models.ItemCatalogo
		if err := cur.Decode(&it); err != nil {
			return nil, err
		}
		list = append(list, it)
	}
	return list, cur.Err()
}
