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

type ParticipacaoRepository struct {
	coll *mongo.Collection
}

func NewParticipacaoRepository(db *mongo.Database) *ParticipacaoRepository {
	return &ParticipacaoRepository{coll: db.Collection("participacoes")}
}

func (r *ParticipacaoRepository) Criar(ctx context.Context, p *models.Participacao) (string, error) {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		return "", err
	}
	id, _ := res.InsertedID.(string)
	return id, nil
}

func (r *ParticipacaoRepository) ListarPorUsuario(ctx context.Context, userID string) ([]models.Participacao, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.Participacao{}
	for cur.Next(ctx) {
		var p models.Participacao
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, cur.Err()
}

func (r *ParticipacaoRepository) BuscarPorID(ctx context.Context, id, userID string) (*models.Participacao, error) {
	var p models.Participacao
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &p, nil
}

// AtualizarStatus troca o status e anexa o evento na timeline (append-only).
func (r *ParticipacaoRepository) AtualizarStatus(ctx context.Context, id, userID, status string, ev models.EventoTimeline) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{
			"$set":  bson.M{"status": status, "updated_at": time.Now()},
			"$push": bson.M{"timeline": ev},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNaoEncontrado
	}
	return nil
}
