package router

import (
	"time"

	"ventify/internal/config"
	"ventify/internal/handler"
	"ventify/internal/middleware"
	"ventify/internal/model"
	"ventify/internal/repository"
	"ventify/internal/service"
	"ventify/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	todosLosRoles = []string{model.RolDueno, model.RolGerente, model.RolAlmacenista, model.RolCajero}
	elevados      = []string{model.RolDueno, model.RolGerente}
	inventario    = []string{model.RolDueno, model.RolGerente, model.RolAlmacenista}
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb and dispatcher may be nil; the price cache and async tickets are then disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Warn().Err(err).Msg("BUSINESS_TIMEZONE inválida, usando hora local")
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.NewLimiter("api", 1000, time.Minute, rdb).
		Handler(middleware.PorIP, "Demasiadas solicitudes. Intente nuevamente en un momento."))
	loginLimit := middleware.NewLimiter("login", 20, time.Minute, rdb).
		Handler(middleware.PorIPYUsuario, "Demasiados intentos de login. Intente en 1 minuto.")

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	negocioRepo := repository.NewNegocioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	mermaRepo := repository.NewMermaRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	cache := service.NewPrecioCache(rdb, cfg.PriceCacheTTL())
	authSvc := service.NewAuthService(usuarioRepo, negocioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo, mermaRepo, cache, loc)
	inventarioSvc := service.NewInventarioService(productoRepo, mermaRepo, cache, loc)
	cajaSvc := service.NewCajaService(cajaRepo, ventaRepo, loc)
	ticketSvc := service.NewTicketService(ventaRepo, negocioRepo, loc)
	ventaSvc := service.NewVentaService(ventaRepo, cajaRepo, productoRepo, ticketSvc, dispatcher, cache, loc)
	reporteSvc := service.NewReporteService(ventaRepo, cajaRepo, negocioRepo, productoRepo, loc)
	proveedorSvc := service.NewProveedorService(proveedorRepo)
	negocioSvc := service.NewNegocioService(negocioRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	reportesH := handler.NewReportesHandler(reporteSvc)
	consultaH := handler.NewConsultaPreciosHandler(productoSvc)
	proveedoresH := handler.NewProveedoresHandler(proveedorSvc)
	negocioH := handler.NewNegocioHandler(negocioSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimit, authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/registro", loginLimit, authH.Registro)
	}

	// Protected routes: every handler below runs with a resolved tenant actor.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.TenantResolver(usuarioRepo))
	{
		v1.GET("/precio/:barcode", middleware.RequireRole(todosLosRoles...), consultaH.GetPrecioPorBarcode)

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", middleware.RequireRole(todosLosRoles...), ventasH.RegistrarVenta)
			ventas.GET("", middleware.RequireRole(todosLosRoles...), ventasH.ListarVentas)
			ventas.GET("/mis-ventas", middleware.RequireRole(todosLosRoles...), ventasH.MisVentas)
			ventas.GET("/:id", middleware.RequireRole(todosLosRoles...), ventasH.ObtenerVenta)
			ventas.GET("/:id/ticket", middleware.RequireRole(todosLosRoles...), ventasH.ObtenerTicket)
			ventas.DELETE("/:id", middleware.RequireRole(elevados...), ventasH.EliminarVenta)
		}

		// Catalog reads are open to every role (sale screen); writes are not.
		v1.GET("/productos", middleware.RequireRole(todosLosRoles...), productosH.Listar)
		v1.GET("/productos/stock-bajo", middleware.RequireRole(todosLosRoles...), productosH.StockBajo)
		v1.GET("/productos/:id", middleware.RequireRole(todosLosRoles...), productosH.ObtenerPorID)
		prods := v1.Group("/productos", middleware.RequireRole(inventario...))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
			prods.PATCH("/:id/activo", productosH.SetActivo)
			prods.POST("/:id/variantes", productosH.CrearVariante)
			prods.PUT("/:id/variantes/:varianteId", productosH.ActualizarVariante)
			prods.DELETE("/:id/variantes/:varianteId", productosH.EliminarVariante)
		}
		v1.GET("/productos/:id/variantes", middleware.RequireRole(todosLosRoles...), productosH.ListarVariantes)
		v1.PUT("/productos/:id/descuento", middleware.RequireRole(elevados...), productosH.SetDescuento)

		inv := v1.Group("/inventario", middleware.RequireRole(inventario...))
		{
			inv.POST("/productos/:id/reabastecer", inventarioH.Reabastecer)
			inv.POST("/productos/:id/merma", inventarioH.AgregarMerma)
			inv.GET("/mermas", inventarioH.ListarMermas)
		}

		caja := v1.Group("/caja", middleware.RequireRole(todosLosRoles...))
		{
			caja.POST("/abrir", cajaH.Abrir)
			caja.POST("/:id/cerrar", cajaH.Cerrar)
			caja.GET("/actual", cajaH.Actual)
			caja.POST("/movimientos", cajaH.RegistrarMovimiento)
			caja.GET("/movimientos", cajaH.ListarMovimientos)
			caja.GET("/resumen", cajaH.Resumen)
		}
		v1.GET("/caja/historial", middleware.RequireRole(elevados...), cajaH.Historial)

		reportes := v1.Group("/reportes", middleware.RequireRole(elevados...))
		{
			reportes.GET("/ventas", reportesH.Ventas)
			reportes.GET("/inventario/pdf", reportesH.InventarioPDF)
		}

		prov := v1.Group("/proveedores", middleware.RequireRole(inventario...))
		{
			prov.POST("", proveedoresH.Crear)
			prov.GET("", proveedoresH.Listar)
			prov.GET("/:id", proveedoresH.ObtenerPorID)
			prov.PUT("/:id", proveedoresH.Actualizar)
			prov.DELETE("/:id", proveedoresH.Eliminar)
		}

		v1.GET("/negocio/perfil", middleware.RequireRole(todosLosRoles...), negocioH.Perfil)
		v1.PUT("/negocio/perfil", middleware.RequireRole(elevados...), negocioH.ActualizarPerfil)

		usuarios := v1.Group("/usuarios", middleware.RequireRole(model.RolDueno))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
