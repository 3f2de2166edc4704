package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
)

type DocumentoRepository struct {
	coll *mongo.Collection
}

func NewDocumentoRepository(db *mongo.Database) *DocumentoRepository {
	return &DocumentoRepository{coll: db.Collection("documentos")}
}

func (r *DocumentoRepository) Criar(ctx context.Context, d *models.Documento) (string, error) {
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	res, err := r.coll.InsertOne(ctx, d)
	if err != nil {
		return "", err
	}
	id, _ := res.InsertedID.(string)
	return id, nil
}

func (r *DocumentoRepository) ListarPorUsuario(ctx context.Context, userID string) ([]models.Documento, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.Documento{}
	for cur.Next(ctx) {
		var d models.Documento
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, cur.Err()
}

func (r *DocumentoRepository) BuscarPorID(ctx context.Context, id, userID string) (*models.Documento, error) {
	var d models.Documento
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &d, nil
}
