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

type OportunidadeRepository struct {
	coll *mongo.Collection
}

func NewOportunidadeRepository(db *mongo.Database) *OportunidadeRepository {
	return &OportunidadeRepository{coll: db.Collection("oportunidades")}
}

func (r *OportunidadeRepository) Criar(ctx context.Context, o *models.Oportunidade) (string, error) {
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	res, err := r.coll.InsertOne(ctx, o)
	if err != nil {
		return "", err
	}
	id, _ := res.InsertedID.(string)
	return id, nil
}

func (r *OportunidadeRepository) ListarPorUsuario(ctx context.Context, userID string, limit, skip int64) ([]models.Oportunidade, error) {
	opts := options.Find().SetLimit(limit).SetSkip(skip).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.Oportunidade{}
	for cur.Next(ctx) {
		var o models.Oportunidade
		if err := cur.Decode(&o); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, cur.Err()
}

func (r *OportunidadeRepository) AtualizarStatus(ctx context.Context, id, userID, status string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNaoEncontrado
	}
	return nil
}

func (r *OportunidadeRepository) BuscarPorID(ctx context.Context, id, userID string) (*models.Oportunidade, error) {
	var o models.Oportunidade
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &o, nil
}
