package router

import (
	"time"

	"ventarapida/internal/carrito"
	"ventarapida/internal/config"
	"ventarapida/internal/handler"
	"ventarapida/internal/infra"
	"ventarapida/internal/metrics"
	"ventarapida/internal/middleware"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/service"
	"ventarapida/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	admin      = model.RolAdministrador
	vendedor   = model.RolVendedor
	estoquista = model.RolEstoquista
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(metrics.Middleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, cfg.RateLimitPorMinuto, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	precioCache := infra.NewPrecioCache(rdb, time.Duration(cfg.PrecioCacheMinutos)*time.Minute)
	carritos := carrito.NewRedisStore(rdb, time.Duration(cfg.CarritoTTLHoras)*time.Hour)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	registrador := service.NewRegistrador(productoRepo, movimientoRepo, precioCache)

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo, movimientoRepo, registrador, precioCache)
	inventarioSvc := service.NewInventarioService(productoRepo, registrador)
	clienteSvc := service.NewClienteService(clienteRepo)
	ventaSvc := service.NewVentaService(
		ventaRepo, productoRepo, usuarioRepo, clienteRepo, outboxRepo,
		registrador, carritos, dispatcher, cfg.NombreTienda,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc, productoSvc)
	ventaRapidaH := handler.NewVentaRapidaHandler(ventaSvc, productoSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	consultaH := handler.NewConsultaPreciosHandler(productoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, outboxRepo))
	r.GET("/metrics", metrics.Handler())

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(rdb), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.GET("/me", jwtMW, authH.Me)
	}

	// Price check, no auth required
	r.GET("/v1/precio/:codigo", consultaH.PorCodigo)

	v1 := r.Group("/v1", jwtMW)
	{
		todos := middleware.RequireRole(admin, vendedor, estoquista)
		gestion := middleware.RequireRole(admin, estoquista)
		venta := middleware.RequireRole(admin, vendedor)

		prods := v1.Group("/productos")
		{
			prods.GET("", todos, productosH.Listar)
			prods.GET("/codigo/:codigo", todos, productosH.ObtenerPorCodigo)
			prods.GET("/:id", todos, productosH.ObtenerPorID)
			prods.GET("/:id/movimientos", todos, productosH.Historial)

			prods.POST("", gestion, productosH.Crear)
			prods.PUT("/:id", gestion, productosH.Actualizar)
			prods.POST("/codigo/:codigo/entrada", gestion, productosH.IngresarStock)

			prods.DELETE("/:id", middleware.RequireRole(admin), productosH.Desactivar)
			prods.PATCH("/:id/reactivar", middleware.RequireRole(admin), productosH.Reactivar)
		}

		inv := v1.Group("/inventario")
		{
			inv.GET("/historial", todos, inventarioH.Historial)
			inv.POST("/recuento", gestion, inventarioH.Recuento)
			inv.GET("/relatorio", gestion, inventarioH.Relatorio)
			inv.GET("/relatorio.xlsx", gestion, inventarioH.RelatorioXLSX)
			inv.GET("/alertas", gestion, inventarioH.Alertas)
		}

		vr := v1.Group("/venta-rapida", venta)
		{
			vr.GET("/catalogo", ventaRapidaH.Catalogo)
			vr.GET("/carrito", ventaRapidaH.VerCarrito)
			vr.POST("/carrito/:producto_id", ventaRapidaH.Agregar)
			vr.DELETE("/carrito/:producto_id", ventaRapidaH.Quitar)
			vr.POST("/finalizar", ventaRapidaH.Finalizar)
		}

		ventas := v1.Group("/ventas")
		{
			ventas.GET("", todos, ventasH.Listar)
			ventas.GET("/:id", todos, ventasH.Obtener)
			ventas.GET("/:id/ticket", todos, ventasH.Ticket)
			ventas.DELETE("/:id", middleware.RequireRole(admin), ventasH.Anular)
		}

		clientes := v1.Group("/clientes", venta)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.Obtener)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
