package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"ventarapida/internal/infra"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type canalMock struct{ mock.Mock }

func (c *canalMock) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return c.Called(exchange, key, msg.MessageId).Error(0)
}

func nuevoRepo(t *testing.T) (*gorm.DB, repository.OutboxRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))
	return db, repository.NewOutboxRepository(db)
}

func crearEvento(t *testing.T, db *gorm.DB, repo repository.OutboxRepository, tipo string) *model.EventoOutbox {
	t.Helper()
	ev := &model.EventoOutbox{Tipo: tipo, AgregadoID: uuid.New(), Payload: datatypes.JSON(`{"ok":true}`)}
	require.NoError(t, repo.CreateTx(db, ev))
	return ev
}

func TestProcesarPendientes_PublicaYMarca(t *testing.T) {
	db, repo := nuevoRepo(t)
	ev := crearEvento(t, db, repo, model.EventoVentaCompletada)

	canal := &canalMock{}
	canal.On("PublishWithContext", "ventarapida.eventos", model.EventoVentaCompletada, ev.ID.String()).Return(nil).Once()

	p := NewPublicador(repo, canal, Config{Exchange: "ventarapida.eventos"})
	fijo := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fijo }

	n, err := p.ProcesarPendientes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	canal.AssertExpectations(t)

	var guardado model.EventoOutbox
	require.NoError(t, db.First(&guardado, "id = ?", ev.ID).Error)
	assert.True(t, guardado.Publicado)
	require.NotNil(t, guardado.PublicadoEn)

	pendientes, err := repo.ContarPendientes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pendientes)

	// nothing left for the next poll
	n, err = p.ProcesarPendientes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	canal.AssertNumberOfCalls(t, "PublishWithContext", 1)
}

func TestProcesarPendientes_FallaCuentaIntentosYSeAbandona(t *testing.T) {
	db, repo := nuevoRepo(t)
	ev := crearEvento(t, db, repo, model.EventoVentaCancelada)

	canal := &canalMock{}
	canal.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker caido"))

	p := NewPublicador(repo, canal, Config{Exchange: "x", MaxIntentos: 2})
	for i := 0; i < 3; i++ {
		n, err := p.ProcesarPendientes(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	canal.AssertNumberOfCalls(t, "PublishWithContext", 2)

	var guardado model.EventoOutbox
	require.NoError(t, db.First(&guardado, "id = ?", ev.ID).Error)
	assert.False(t, guardado.Publicado)
	assert.Equal(t, 2, guardado.Intentos)

	// abandoned events still count as a backlog
	pendientes, err := repo.ContarPendientes(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, pendientes)
}
