package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"catalog/internal/auth"
	"catalog/internal/blob"
	"catalog/internal/db"
	"catalog/internal/db/migrate"
	"catalog/internal/domain/categories"
	"catalog/internal/domain/colors"
	"catalog/internal/domain/products"
	"catalog/internal/domain/storage"
	"catalog/internal/media"
	"catalog/internal/ratelimiter"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	// Default values
	defaultRequests := 200
	defaultEnabled := false

	// Retrieve request count with error handling
	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil && parsedVal > 0 {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	// Retrieve enabled flag with error handling
	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	// Configure the encoder to be a console encoder with color
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %d\n", key, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var version = "0.1.0"

//	@title			Catalog API
//	@description	Admin API for the product catalog: categories, products, colors and images.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description				Clerk session token: "Bearer <jwt>"

//	@securityDefinitions.basic	BasicAuth

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, reading configuration from the environment")
	}

	cfg := config{
		addr:       getEnv("ADDR", ":8080"),
		env:        getEnv("ENV", "development"),
		apiURL:     getEnv("EXTERNAL_URL", "localhost:8080"),
		clientURL:  os.Getenv("CLIENT_URL"),
		cloudinary: os.Getenv("CLOUDINARY_URL"),
		migrate:    getEnv("MIGRATE_ON_START", "false") == "true",
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(getEnvInt("DB_MAX_CONNS", 30)),
			maxIdleTime: getEnv("DB_MAX_IDLE_TIME", "15m"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			clerk: clerkConfig{
				jwtKey:            os.Getenv("CLERK_JWT_KEY"),
				issuer:            os.Getenv("CLERK_ISSUER"),
				authorizedParties: splitList(os.Getenv("CLERK_AUTHORIZED_PARTIES")),
			},
		},
		rateLimiter: LoadRateLimiterConfig(),
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if cfg.migrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := migrate.Up(ctx, cfg.db.addr)
		cancel()
		if err != nil {
			logger.Fatal(err)
		}
		logger.Info("database migrations applied")
	}

	// Database
	pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	//storage
	store := storage.NewContainer(pool)

	//cloudinary
	cld, err := blob.NewCloudinaryFromURL(cfg.cloudinary)
	if err != nil {
		logger.Fatal(err)
	}

	orchestrator := media.NewOrchestrator(cld, store.Images, logger)

	// Authenticator
	clerk, err := auth.NewClerkAuthenticator(
		cfg.auth.clerk.jwtKey,
		cfg.auth.clerk.issuer,
		cfg.auth.clerk.authorizedParties,
	)
	if err != nil {
		logger.Fatal(err)
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		categories:    categories.NewService(store.Categories, orchestrator, logger),
		products:      products.NewService(store.Products, store, orchestrator, logger),
		colors:        colors.NewService(store.Colors, logger),
		files:         orchestrator,
		authenticator: clerk,
		rateLimiter:   rateLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
			"max_conns":      s.MaxConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
