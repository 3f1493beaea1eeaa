package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/confeitaria/internal/audit"
	auditdomain "github.com/smallbiznis/confeitaria/internal/audit/domain"
	"github.com/smallbiznis/confeitaria/internal/auth"
	authdomain "github.com/smallbiznis/confeitaria/internal/auth/domain"
	"github.com/smallbiznis/confeitaria/internal/auth/session"
	"github.com/smallbiznis/confeitaria/internal/authorization"
	"github.com/smallbiznis/confeitaria/internal/cart"
	cartdomain "github.com/smallbiznis/confeitaria/internal/cart/domain"
	"github.com/smallbiznis/confeitaria/internal/client"
	clientdomain "github.com/smallbiznis/confeitaria/internal/client/domain"
	"github.com/smallbiznis/confeitaria/internal/clientprice"
	clientpricedomain "github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/contact"
	contactdomain "github.com/smallbiznis/confeitaria/internal/contact/domain"
	"github.com/smallbiznis/confeitaria/internal/homepage"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"github.com/smallbiznis/confeitaria/internal/newsletter"
	newsletterdomain "github.com/smallbiznis/confeitaria/internal/newsletter/domain"
	"github.com/smallbiznis/confeitaria/internal/notification"
	"github.com/smallbiznis/confeitaria/internal/observability"
	obslogger "github.com/smallbiznis/confeitaria/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/confeitaria/internal/observability/metrics"
	obstracing "github.com/smallbiznis/confeitaria/internal/observability/tracing"
	"github.com/smallbiznis/confeitaria/internal/order"
	orderdomain "github.com/smallbiznis/confeitaria/internal/order/domain"
	"github.com/smallbiznis/confeitaria/internal/pricing"
	"github.com/smallbiznis/confeitaria/internal/product"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	"github.com/smallbiznis/confeitaria/internal/providers"
	"github.com/smallbiznis/confeitaria/internal/quote"
	quotedomain "github.com/smallbiznis/confeitaria/internal/quote/domain"
	"github.com/smallbiznis/confeitaria/internal/ratelimit"
	"github.com/smallbiznis/confeitaria/internal/zoho"
	zohodomain "github.com/smallbiznis/confeitaria/internal/zoho/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	audit.Module,
	auth.Module,
	providers.Module,
	notification.Module,
	product.Module,
	client.Module,
	clientprice.Module,
	pricing.Module,
	homepage.Module,
	cart.Module,
	order.Module,
	newsletter.Module,
	quote.Module,
	contact.Module,
	zoho.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

// CatalogPricer prices products for a viewer.
type CatalogPricer interface {
	Catalog(ctx context.Context, viewer identity.Viewer, filter productdomain.ListRequest) ([]pricing.PricedProduct, error)
	Product(ctx context.Context, viewer identity.Viewer, id string) (*pricing.PricedProduct, error)
	ClientPrices(ctx context.Context, items []clientpricedomain.ClientProductPrice) ([]pricing.ClientPrice, error)
}

type HomepageCache interface {
	Get(ctx context.Context) (*homepage.Page, error)
	Invalidate()
}

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
		QuietPaths:      obsCfg.QuietPaths,
	}))
	r.Use(obstracing.GinMiddleware(obstracing.MiddlewareConfig{
		SkipPaths: obsCfg.QuietPaths,
	}))
	r.Use(httpMetrics.GinMiddleware())
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", headerRevalidateSecret},
			ExposeHeaders:    []string{"Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, cfg.AllowedOrigins)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	authsvc        authdomain.Service
	sessions       *session.Manager
	authzSvc       authorization.Service
	auditSvc       auditdomain.Service
	productSvc     productdomain.Service
	clientSvc      clientdomain.Service
	clientPriceSvc clientpricedomain.Service
	pricing        CatalogPricer
	homepage       HomepageCache
	cartSvc        cartdomain.Service
	orderSvc       orderdomain.Service
	submitGuard    *ratelimit.SubmitGuard
	limiter        *ratelimit.PublicLimiter
	newsletterSvc  newsletterdomain.Service
	quoteSvc       quotedomain.Service
	contactSvc     contactdomain.Service
	zohoSvc        zohodomain.Service
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Authsvc        authdomain.Service
	Sessions       *session.Manager
	AuthzSvc       authorization.Service
	AuditSvc       auditdomain.Service
	ProductSvc     productdomain.Service
	ClientSvc      clientdomain.Service
	ClientPriceSvc clientpricedomain.Service
	Pricing        *pricing.Service
	Homepage       *homepage.Service
	CartSvc        cartdomain.Service
	OrderSvc       orderdomain.Service
	SubmitGuard    *ratelimit.SubmitGuard
	Limiter        *ratelimit.PublicLimiter
	NewsletterSvc  newsletterdomain.Service
	QuoteSvc       quotedomain.Service
	ContactSvc     contactdomain.Service
	ZohoSvc        zohodomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		authsvc:        p.Authsvc,
		sessions:       p.Sessions,
		authzSvc:       p.AuthzSvc,
		auditSvc:       p.AuditSvc,
		productSvc:     p.ProductSvc,
		clientSvc:      p.ClientSvc,
		clientPriceSvc: p.ClientPriceSvc,
		pricing:        p.Pricing,
		homepage:       p.Homepage,
		cartSvc:        p.CartSvc,
		orderSvc:       p.OrderSvc,
		submitGuard:    p.SubmitGuard,
		limiter:        p.Limiter,
		newsletterSvc:  p.NewsletterSvc,
		quoteSvc:       p.QuoteSvc,
		contactSvc:     p.ContactSvc,
		zohoSvc:        p.ZohoSvc,
	}

	svc.registerRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api", s.Viewer())

	s.registerAuthRoutes(api)
	s.registerPublicRoutes(api)
	s.registerPortalRoutes(api)
	s.registerAdminRoutes(api)
	s.registerZohoRoutes(api)
}

func (s *Server) registerAuthRoutes(api *gin.RouterGroup) {
	authGroup := api.Group("/auth")

	authGroup.POST("/signup", s.PublicRateLimit("signup"), s.Signup)
	authGroup.POST("/login", s.PublicRateLimit("login"), s.Login)
	authGroup.POST("/logout", s.Logout)
	authGroup.GET("/me", s.RequireAuth(), s.Me)
	authGroup.POST("/change-password", s.RequireAuth(), s.ChangePassword)
}

func (s *Server) registerPublicRoutes(api *gin.RouterGroup) {
	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProduct)
	api.GET("/homepage", s.Homepage)
	api.POST("/revalidate", s.Revalidate)

	api.POST("/contact", s.PublicRateLimit("contact"), s.SubmitContact)
	api.POST("/newsletter", s.PublicRateLimit("newsletter"), s.Subscribe)
	api.POST("/quotes", s.PublicRateLimit("quotes"), s.SubmitQuote)

	cartGroup := api.Group("/cart", s.Cart())
	{
		cartGroup.GET("", s.GetCart)
		cartGroup.DELETE("", s.ClearCart)
		cartGroup.POST("/items", s.AddCartItem)
		cartGroup.PATCH("/items/:product_id", s.UpdateCartItem)
		cartGroup.DELETE("/items/:product_id", s.RemoveCartItem)
	}

	api.POST("/orders", s.PublicRateLimit("orders"), s.Cart(), s.SubmitOrder)
}

func (s *Server) registerPortalRoutes(api *gin.RouterGroup) {
	portal := api.Group("/portal")

	portal.GET("/catalog", s.authorize(authorization.ObjectPortal, authorization.ActionPortalView), s.PortalCatalog)
	portal.GET("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionOrderViewOwn), s.PortalOrders)
	portal.GET("/profile", s.authorize(authorization.ObjectPortal, authorization.ActionPortalView), s.PortalProfile)
	portal.PUT("/profile", s.authorize(authorization.ObjectPortal, authorization.ActionPortalUpdateProfile), s.UpdatePortalProfile)
}

func (s *Server) registerAdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin")

	// -------- Products --------
	admin.GET("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductManage), s.AdminListProducts)
	admin.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductManage), s.CreateProduct)
	admin.GET("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductManage), s.AdminGetProduct)
	admin.PATCH("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductManage), s.UpdateProduct)
	admin.DELETE("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductManage), s.DeleteProduct)

	// -------- Clients --------
	admin.GET("/clients", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.ListClients)
	admin.GET("/clients/:id", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.GetClient)
	admin.PATCH("/clients/:id", s.authorize(authorization.ObjectClient, authorization.ActionClientManage), s.UpdateClient)

	// -------- Client prices --------
	admin.GET("/clients/:id/prices", s.authorize(authorization.ObjectClientPrice, authorization.ActionClientPriceManage), s.ListClientPrices)
	admin.PUT("/clients/:id/prices", s.authorize(authorization.ObjectClientPrice, authorization.ActionClientPriceManage), s.UpsertClientPrice)
	admin.DELETE("/clients/:id/prices/:product_id", s.authorize(authorization.ObjectClientPrice, authorization.ActionClientPriceManage), s.DeleteClientPrice)

	// -------- Orders --------
	admin.GET("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.ListOrders)
	admin.GET("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrder)
	admin.PATCH("/orders/:id/status", s.authorize(authorization.ObjectOrder, authorization.ActionOrderManage), s.UpdateOrderStatus)
	admin.GET("/orders/:id/pdf", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.OrderPDF)

	// -------- Forms --------
	admin.GET("/subscribers", s.authorize(authorization.ObjectNewsletter, authorization.ActionNewsletterView), s.ListSubscribers)
	admin.DELETE("/subscribers/:id", s.authorize(authorization.ObjectNewsletter, authorization.ActionNewsletterView), s.DeleteSubscriber)
	admin.GET("/quotes", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteView), s.ListQuotes)
	admin.PATCH("/quotes/:id/status", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteManage), s.UpdateQuoteStatus)
	admin.GET("/contact-messages", s.authorize(authorization.ObjectContact, authorization.ActionContactView), s.ListContactMessages)

	admin.GET("/audit-logs", s.authorize(authorization.ObjectAudit, authorization.ActionAuditView), s.ListAuditLogs)
}

func (s *Server) registerZohoRoutes(api *gin.RouterGroup) {
	z := api.Group("/zoho", s.authorize(authorization.ObjectZoho, authorization.ActionZohoConnect))

	z.GET("/auth", s.ZohoAuth)
	z.GET("/callback", s.ZohoCallback)
	z.GET("/status", s.ZohoStatus)
	z.GET("/accounts", s.ZohoAccounts)
}
