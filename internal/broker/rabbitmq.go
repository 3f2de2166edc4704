package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Tipos de evento publicados na fila de notificações
const (
	EventoOnboardingConcluido    = "onboarding_concluido"
	EventoDocumentoEnviado       = "documento_enviado"
	EventoParticipacaoAtualizada = "participacao_atualizada"
	EventoOportunidadeAtualizada = "oportunidade_atualizada"
)

// Evento é o envelope consumido pelo serviço de notificações (cmd/ws).
// UserID vazio indica broadcast.
type Evento struct {
	Tipo      string            `json:"tipo"`
	UserID    string            `json:"user_id,omitempty"`
	Mensagem  string            `json:"mensagem"`
	Dados     map[string]string `json:"dados,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(uri, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	// Garante que a fila exista (durável)
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Publicar(ctx context.Context, ev Evento) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ctx == nil {
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		ctx = c
	}
	return p.ch.PublishWithContext(
		ctx,
		"",      // default exchange
		p.queue, // routing key = nome da fila
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.Timestamp,
			Body:         body,
			Headers: amqp.Table{
				"tipo":    ev.Tipo,
				"user_id": ev.UserID,
			},
		},
	)
}

func (p *Publisher) Close() error {
	var errCh, errConn error
	if p.ch != nil {
		errCh = p.ch.Close()
	}
	if p.conn != nil {
		errConn = p.conn.Close()
	}

	return errors.Join(errCh, errConn)
}
