package infra

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const rabbitIntentos = 10

// NewRabbitMQ dials the broker, retrying while it starts up, and declares the
// durable topic exchange the outbox publisher writes to.
func NewRabbitMQ(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error

	for intento := 1; intento <= rabbitIntentos; intento++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("intento", intento).Msg("rabbitmq: dial failed, retrying")
		if intento < rabbitIntentos {
			time.Sleep(3 * time.Second)
		}
	}
	if conn == nil {
		return nil, nil, fmt.Errorf("rabbitmq: sin conexion tras %d intentos: %w", rabbitIntentos, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: abrir canal: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: declarar exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}
