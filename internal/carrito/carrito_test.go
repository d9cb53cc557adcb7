package carrito

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventarapida/internal/model"
)

func producto(nombre, precio string) *model.Producto {
	return &model.Producto{
		ID:          uuid.New(),
		Nombre:      nombre,
		PrecioVenta: decimal.RequireFromString(precio),
	}
}

func TestAgregar_NuevaLinea(t *testing.T) {
	var c Carrito
	p := producto("Amonite", "15.00")

	c.Agregar(p)

	require.Len(t, c.Lineas, 1)
	assert.Equal(t, p.ID, c.Lineas[0].ProductoID)
	assert.True(t, c.Lineas[0].Cantidad.Equal(decimal.NewFromInt(1)))
	assert.True(t, c.Lineas[0].Subtotal.Equal(decimal.RequireFromString("15")))
}

func TestAgregar_RepetidoIncrementaYMantienePrecio(t *testing.T) {
	var c Carrito
	p := producto("Amonite", "15.00")
	c.Agregar(p)

	p.PrecioVenta = decimal.RequireFromString("99")
	c.Agregar(p)

	require.Len(t, c.Lineas, 1)
	assert.True(t, c.Lineas[0].Cantidad.Equal(decimal.NewFromInt(2)))
	assert.True(t, c.Lineas[0].PrecioUnitario.Equal(decimal.RequireFromString("15")))
	assert.True(t, c.Lineas[0].Subtotal.Equal(decimal.RequireFromString("30")))
}

func TestQuitar_MantieneOrden(t *testing.T) {
	var c Carrito
	a, b, d := producto("A", "1"), producto("B", "2"), producto("D", "3")
	c.Agregar(a)
	c.Agregar(b)
	c.Agregar(d)

	c.Quitar(b.ID)
	c.Quitar(uuid.New())

	require.Len(t, c.Lineas, 2)
	assert.Equal(t, a.ID, c.Lineas[0].ProductoID)
	assert.Equal(t, d.ID, c.Lineas[1].ProductoID)
	assert.True(t, c.TotalBruto().Equal(decimal.NewFromInt(4)))
}

func TestMemoryStore_CicloCompleto(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	vacio, err := s.Cargar(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, vacio.Vacio())

	c := &Carrito{}
	c.Agregar(producto("A", "5"))
	require.NoError(t, s.Guardar(ctx, "s1", c))

	// the stored cart is a copy
	c.Agregar(producto("B", "7"))

	cargado, err := s.Cargar(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, cargado.Lineas, 1)

	otro, err := s.Cargar(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, otro.Vacio())

	require.NoError(t, s.Limpiar(ctx, "s1"))
	cargado, err = s.Cargar(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cargado.Vacio())
}

func TestMemoryStore_ModificarConcurrenteNoPierdeCambios(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := producto("Amonite", "15")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Modificar(ctx, "s1", func(c *Carrito) { c.Agregar(p) })
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := s.Cargar(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, c.Lineas, 1)
	assert.True(t, c.Lineas[0].Cantidad.Equal(decimal.NewFromInt(50)))
}
