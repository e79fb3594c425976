// Package app wires the workflow core for a host application: persistence,
// challenge store, channels, audit sinks, and the document services. The host
// (forms, lists, PDF rendering) calls the services; it never bypasses them.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"expenditure-workflow/internal/audit"
	auditrepo "expenditure-workflow/internal/audit/repository"
	"expenditure-workflow/internal/compensate"
	"expenditure-workflow/internal/config"
	"expenditure-workflow/internal/db"
	exprepo "expenditure-workflow/internal/expenditure/repository"
	expservice "expenditure-workflow/internal/expenditure/service"
	"expenditure-workflow/internal/notify"
	"expenditure-workflow/internal/notify/mail"
	notifyrepo "expenditure-workflow/internal/notify/repository"
	"expenditure-workflow/internal/notify/sms"
	payrepo "expenditure-workflow/internal/payment/repository"
	payservice "expenditure-workflow/internal/payment/service"
	"expenditure-workflow/internal/role"
	rolerepo "expenditure-workflow/internal/role/repository"
	roleservice "expenditure-workflow/internal/role/service"
	"expenditure-workflow/internal/telemetry"
	"expenditure-workflow/internal/telemetry/otel"
	"expenditure-workflow/internal/telemetry/producer"
	"expenditure-workflow/internal/verification"
	verifstore "expenditure-workflow/internal/verification/store"
)

// App is the assembled workflow core. Close releases broker and database
// connections; call it on host shutdown.
type App struct {
	DB *sql.DB

	Directory    *role.Directory
	Roles        *roleservice.Service
	Expenditures *expservice.Service
	Payments     *payservice.Service
	Verification *verification.Service
	Router       *notify.Router
	Recorder     *audit.Recorder

	// DevCodes is non-nil only when CODE_RETURN_TO_CLIENT is enabled.
	DevCodes *verification.DevCodeStore

	providers *otel.Providers
	kafka     *producer.KafkaProducer
	redis     *redis.Client
}

// New builds the full object graph from config. The database must already be
// migrated (cmd/migrate).
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("app: DATABASE_URL is required")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("app: open database: %w", err)
	}

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "expenditure-workflow", cfg.OTLPInsecure)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("app: otel providers: %w", err)
	}
	providers.SetGlobal()

	var emitters []telemetry.EventEmitter
	kafkaProducer, err := producer.NewKafkaProducer(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("app: kafka producer: %w", err)
	}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
	}
	emitters = append(emitters, otel.NewEventEmitter(providers.LoggerProvider))

	recorder := audit.NewRecorder(auditrepo.NewPostgresRepository(conn), emitters...)
	exec := compensate.NewExecutor(recorder)

	roleRepo := rolerepo.NewPostgresRepository(conn)
	directory := role.NewDirectory(roleRepo)
	roleSvc := roleservice.NewService(roleRepo, exec, recorder)

	smsChannel := sms.NewClient(cfg.SMSAPIKey, cfg.SMSBaseURL, cfg.SMSSender)
	mailChannel := mail.NewClient(cfg.MailAPIKey, cfg.MailBaseURL, cfg.MailFrom)
	contacts := notifyrepo.NewPostgresContacts(conn)
	router := notify.NewRouter(directory, contacts, notifyrepo.NewPostgresRepository(conn), smsChannel, mailChannel)

	requestRepo := exprepo.NewPostgresRepository(conn)
	orderRepo := payrepo.NewPostgresRepository(conn)
	expenditureSvc := expservice.NewService(requestRepo, directory, recorder, router)
	paymentSvc := payservice.NewService(orderRepo, requestRepo, directory, exec, recorder, router)

	var redisClient *redis.Client
	var challengeStore verifstore.Store
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("app: redis ping: %w", err)
		}
		challengeStore = verifstore.NewRedisStore(redisClient)
	} else {
		log.Println("app: REDIS_ADDR not set, using in-memory challenge store")
		challengeStore = verifstore.NewMemoryStore()
	}

	verificationSvc := verification.NewService(orderRepo, challengeStore, contacts, smsChannel, recorder, cfg.ChallengeTTL())
	var devCodes *verification.DevCodeStore
	if cfg.CodeReturnToClient {
		devCodes = verification.NewDevCodeStore()
		verificationSvc.WithDevCodes(devCodes)
	}

	return &App{
		DB:           conn,
		Directory:    directory,
		Roles:        roleSvc,
		Expenditures: expenditureSvc,
		Payments:     paymentSvc,
		Verification: verificationSvc,
		Router:       router,
		Recorder:     recorder,
		DevCodes:     devCodes,
		providers:    providers,
		kafka:        kafkaProducer,
		redis:        redisClient,
	}, nil
}

// Close flushes telemetry and releases connections.
func (a *App) Close(ctx context.Context) error {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			log.Printf("app: close kafka producer: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("app: close redis: %v", err)
		}
	}
	if a.providers != nil {
		if err := a.providers.Shutdown(ctx); err != nil {
			log.Printf("app: shutdown otel: %v", err)
		}
	}
	return a.DB.Close()
}
