package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/docs" //this is required to generate swagger docs
	"catalog/internal/auth"
	"catalog/internal/domain/categories"
	"catalog/internal/domain/colors"
	"catalog/internal/domain/products"
	"catalog/internal/media"
	"catalog/internal/metrics"
	"catalog/internal/params"
	"catalog/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type categoryService interface {
	Create(ctx context.Context, in categories.CreateInput, files []media.File) (*categories.Category, error)
	FindAll(ctx context.Context, opts categories.ListOptions) (params.Page[*categories.Category], error)
	FindOne(ctx context.Context, id uuid.UUID, inc categories.Include) (*categories.Category, error)
	FindBySlug(ctx context.Context, slug string, inc categories.Include) (*categories.Category, error)
	Update(ctx context.Context, id uuid.UUID, in categories.UpdateInput, files []media.File) (*categories.Category, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type productService interface {
	Create(ctx context.Context, in products.CreateInput, files []media.File) (*products.View, error)
	FindAll(ctx context.Context, opts products.ListOptions) (params.Page[*products.View], error)
	FindOne(ctx context.Context, sel products.Selector) (*products.View, error)
	Update(ctx context.Context, id uuid.UUID, in products.UpdateInput, files []media.File) (*products.View, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type colorService interface {
	Create(ctx context.Context, in colors.CreateInput) (*colors.Color, error)
	FindAll(ctx context.Context) ([]*colors.Color, error)
	FindOne(ctx context.Context, id uuid.UUID) (*colors.Color, error)
	Update(ctx context.Context, id uuid.UUID, in colors.UpdateInput) (*colors.Color, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type fileUploader interface {
	UploadLoose(ctx context.Context, folder string, files []media.File) ([]string, []string, error)
}

type application struct {
	config        config
	logger        *zap.SugaredLogger
	categories    categoryService
	products      productService
	colors        colorService
	files         fileUploader
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	clientURL   string
	cloudinary  string
	migrate     bool
	auth        authConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	clerk clerkConfig
}

type basicConfig struct {
	user string
	pass string
}

type clerkConfig struct {
	jwtKey            string
	issuer            string
	authorizedParties []string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Handle("/metrics", promhttp.Handler())

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", app.listCategoriesHandler)
			r.Get("/slug/{slug}", app.getCategoryBySlugHandler)
			r.Get("/{categoryID}", app.getCategoryHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createCategoryHandler)
				r.Patch("/{categoryID}", app.updateCategoryHandler)
				r.Delete("/{categoryID}", app.deleteCategoryHandler)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/slug/{slug}", app.getProductBySlugHandler)
			r.Get("/{productID}", app.getProductHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createProductHandler)
				r.Patch("/{productID}", app.updateProductHandler)
				r.Delete("/{productID}", app.deleteProductHandler)
			})
		})

		r.Route("/colors", func(r chi.Router) {
			r.Get("/", app.listColorsHandler)
			r.Get("/{colorID}", app.getColorHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createColorHandler)
				r.Patch("/{colorID}", app.updateColorHandler)
				r.Delete("/{colorID}", app.deleteColorHandler)
			})
		})

		r.Route("/files", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/upload-image", app.uploadImageHandler)
			r.Post("/upload-images", app.uploadImagesHandler)
		})
	})
	return r
}

func (app *application) allowedOrigins() []string {
	if app.config.clientURL == "" {
		return []string{"https://*", "http://*"}
	}
	return []string{app.config.clientURL}
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 90,
		ReadTimeout:  time.Second * 30,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
