package storage

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
)

// Arquivos guarda os arquivos dos documentos da empresa em um bucket
// GridFS no mesmo Mongo das coleções. O "publicUrl" do contrato vira a
// rota de download da API.
type Arquivos struct {
	bucket *gridfs.Bucket
}

func NewArquivos(db *mongo.Database) (*Arquivos, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, err
	}
	return &Arquivos{bucket: bucket}, nil
}

// Salvar grava o conteúdo e devolve o id hex do arquivo.
func (a *Arquivos) Salvar(ctx context.Context, nome string, r io.Reader) (string, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = a.bucket.SetWriteDeadline(dl)
	} else {
		_ = a.bucket.SetWriteDeadline(time.Now().Add(30 * time.Second))
	}
	id, err := a.bucket.UploadFromStream(nome, r)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

// Abrir devolve um stream de leitura; o chamador fecha.
func (a *Arquivos) Abrir(ctx context.Context, idHex string) (io.ReadCloser, string, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, "", err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = a.bucket.SetReadDeadline(dl)
	}
	ds, err := a.bucket.OpenDownloadStream(id)
	if err != nil {
		return nil, "", err
	}
	return ds, ds.GetFile().Name, nil
}
