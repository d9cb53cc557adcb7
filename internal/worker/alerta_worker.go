package worker

// alerta_worker.go
// Processes low-stock jobs from QueueAlertas and e-mails the stock keepers.

import (
	"context"
	"encoding/json"
	"fmt"

	"ventarapida/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertaStockPayload is the job sent to QueueAlertas after a checkout leaves
// a product at or below its minimum quantity.
type AlertaStockPayload struct {
	ProductoID     string `json:"producto_id"`
	Codigo         string `json:"codigo"`
	Nombre         string `json:"nombre"`
	Cantidad       string `json:"cantidad"`
	CantidadMinima string `json:"cantidad_minima"`
	VentaID        string `json:"venta_id,omitempty"`
}

// Notificador delivers a plain-text message. infra.Mailer implements it.
type Notificador interface {
	Enviar(to []string, subject, body string) error
}

// AlertaStockWorker sends the alert through a circuit breaker so an SMTP
// outage fails fast instead of tying up every worker.
type AlertaStockWorker struct {
	notificador   Notificador
	cb            *infra.CircuitBreaker
	destinatarios []string
}

func NewAlertaStockWorker(n Notificador, cb *infra.CircuitBreaker, destinatarios []string) *AlertaStockWorker {
	return &AlertaStockWorker{notificador: n, cb: cb, destinatarios: destinatarios}
}

func (w *AlertaStockWorker) Process(_ context.Context, raw json.RawMessage) error {
	var p AlertaStockPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Codigo == "" {
		return fmt.Errorf("alerta_worker: %w", ErrPayloadInvalido)
	}
	if len(w.destinatarios) == 0 {
		log.Warn().Str("codigo", p.Codigo).Msg("alerta_worker: no recipients configured, skipping")
		return nil
	}

	subject := fmt.Sprintf("Stock bajo: %s %s", p.Codigo, p.Nombre)
	body := fmt.Sprintf(
		"El producto %s (%s) quedo con %s unidades; el minimo configurado es %s.\n",
		p.Nombre, p.Codigo, p.Cantidad, p.CantidadMinima,
	)
	if p.VentaID != "" {
		body += "Venta: " + p.VentaID + "\n"
	}

	err := w.cb.Execute(func() error {
		return w.notificador.Enviar(w.destinatarios, subject, body)
	})
	if err != nil {
		return fmt.Errorf("alerta_worker: enviar %s: %w", p.Codigo, err)
	}
	log.Info().Str("codigo", p.Codigo).Msg("alerta_worker: low-stock alert sent")
	return nil
}
