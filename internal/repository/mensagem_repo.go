package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ialicitacoes/gestao-licitacoes/internal/models"
)

// MensagemRepository guarda o log da conversa de onboarding.
// Append-only: não há update nem delete.
type MensagemRepository struct {
	coll *mongo.Collection
}

func NewMensagemRepository(db *mongo.Database) *MensagemRepository {
	return &MensagemRepository{coll: db.Collection("mensagens_onboarding")}
}

func (r *MensagemRepository) Registrar(ctx context.Context, m *models.MensagemOnboarding) error {
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *MensagemRepository) ListarPorUsuario(ctx context.Context, userID string) ([]models.MensagemOnboarding, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.MensagemOnboarding{}
	for cur.Next(ctx) {
		var m models.MensagemOnboarding
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, cur.Err()
}
