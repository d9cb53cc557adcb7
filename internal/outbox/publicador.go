// Package outbox relays the events written by sale transactions to RabbitMQ.
// Rows are only marked published after the broker accepted them, so delivery
// is at-least-once; consumers deduplicate on MessageId.
package outbox

import (
	"context"
	"time"

	"ventarapida/internal/metrics"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Canal is the publishing side of an AMQP channel. *amqp.Channel implements it.
type Canal interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Config struct {
	Exchange    string
	Intervalo   time.Duration
	Lote        int
	MaxIntentos int
}

type Publicador struct {
	repo  repository.OutboxRepository
	canal Canal
	cfg   Config
	now   func() time.Time
}

func NewPublicador(repo repository.OutboxRepository, canal Canal, cfg Config) *Publicador {
	if cfg.Intervalo <= 0 {
		cfg.Intervalo = 2 * time.Second
	}
	if cfg.Lote <= 0 {
		cfg.Lote = 10
	}
	if cfg.MaxIntentos <= 0 {
		cfg.MaxIntentos = 5
	}
	return &Publicador{repo: repo, canal: canal, cfg: cfg, now: time.Now}
}

// Iniciar polls the outbox until ctx is cancelled.
func (p *Publicador) Iniciar(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Intervalo)
	defer ticker.Stop()

	log.Info().Str("exchange", p.cfg.Exchange).Dur("intervalo", p.cfg.Intervalo).Msg("publicador outbox iniciado")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("publicador outbox detenido")
			return
		case <-ticker.C:
			if _, err := p.ProcesarPendientes(ctx); err != nil {
				log.Error().Err(err).Msg("outbox: error al leer eventos pendientes")
			}
		}
	}
}

// ProcesarPendientes publishes one batch and returns how many events made it.
func (p *Publicador) ProcesarPendientes(ctx context.Context) (int, error) {
	eventos, err := p.repo.ListPendientes(ctx, p.cfg.Lote, p.cfg.MaxIntentos)
	if err != nil {
		return 0, err
	}

	publicados := 0
	for i := range eventos {
		ev := &eventos[i]
		if err := p.publicar(ctx, ev); err != nil {
			metrics.EventosPublicados.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("evento_id", ev.ID.String()).Int("intentos", ev.Intentos+1).Msg("outbox: publicacion fallida")
			if err := p.repo.IncrementarIntentos(ctx, ev.ID); err != nil {
				log.Error().Err(err).Str("evento_id", ev.ID.String()).Msg("outbox: no se pudo registrar el intento")
			}
			continue
		}

		if err := p.repo.MarcarPublicado(ctx, ev.ID, p.now()); err != nil {
			// The broker has it; the next poll publishes it again.
			log.Error().Err(err).Str("evento_id", ev.ID.String()).Msg("outbox: publicado pero no marcado")
			continue
		}
		metrics.EventosPublicados.WithLabelValues("publicado").Inc()
		publicados++
	}
	return publicados, nil
}

func (p *Publicador) publicar(ctx context.Context, ev *model.EventoOutbox) error {
	return p.canal.PublishWithContext(ctx, p.cfg.Exchange, ev.Tipo, false, false, amqp.Publishing{
		MessageId:    ev.ID.String(),
		ContentType:  "application/json",
		Body:         []byte(ev.Payload),
		Timestamp:    ev.CreatedAt,
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"agregado_id": ev.AgregadoID.String()},
	})
}
