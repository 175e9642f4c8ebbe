package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/get_booking"
	getSalonBookingsHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/get_salon_bookings"
	getSalonConfigHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/get_salon_config"
	getSubscriptionHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/get_subscription"
	paymentWebhookHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/payment_webhook"
	rescheduleBookingHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/reschedule_booking"
	resetSubscriptionHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/reset_subscription"
	updateBookingStatusHandler "github.com/m04kA/SMC-SalonBookingService/internal/api/handlers/update_booking_status"
	"github.com/m04kA/SMC-SalonBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SalonBookingService/internal/config"
	bookingRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/catalog"
	outboxRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
	paymentEventRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/paymentevent"
	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
	subscriptionRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/subscription"
	notifyServiceClient "github.com/m04kA/SMC-SalonBookingService/internal/integrations/notifyservice"
	payProviderClient "github.com/m04kA/SMC-SalonBookingService/internal/integrations/payprovider"
	"github.com/m04kA/SMC-SalonBookingService/internal/notifier"
	bookingsService "github.com/m04kA/SMC-SalonBookingService/internal/service/bookings"
	salonsService "github.com/m04kA/SMC-SalonBookingService/internal/service/salons"
	subscriptionService "github.com/m04kA/SMC-SalonBookingService/internal/service/subscription"
	createBookingUC "github.com/m04kA/SMC-SalonBookingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-SalonBookingService/internal/usecase/get_available_slots"
	processPaymentEventUC "github.com/m04kA/SMC-SalonBookingService/internal/usecase/process_payment_event"
	rescheduleBookingUC "github.com/m04kA/SMC-SalonBookingService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-SalonBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonBookingService/pkg/logger"
	"github.com/m04kA/SMC-SalonBookingService/pkg/metrics"
	"github.com/m04kA/SMC-SalonBookingService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-SalonBookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SalonBookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	payClient := payProviderClient.NewClient(
		cfg.PayProvider.URL,
		cfg.PayProvider.APIKey,
		cfg.PayProvider.WebhookSecret,
		time.Duration(cfg.PayProvider.Timeout)*time.Second,
		log,
	)
	notifyClient := notifyServiceClient.NewClient(
		cfg.NotifyService.URL,
		cfg.NotifyService.AuthToken,
		time.Duration(cfg.NotifyService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (PayProvider=%s timeout=%ds, NotifyService=%s timeout=%ds)",
		cfg.PayProvider.URL, cfg.PayProvider.Timeout, cfg.NotifyService.URL, cfg.NotifyService.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository      *bookingRepo.Repository
		salonRepository        *salonRepo.Repository
		catalogRepository      *catalogRepo.Repository
		subscriptionRepository *subscriptionRepo.Repository
		paymentEventRepository *paymentEventRepo.Repository
		outboxRepository       *outboxRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases и сервисах)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
		DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		salonRepository = salonRepo.NewRepository(wrappedDB)
		catalogRepository = catalogRepo.NewRepository(wrappedDB)
		subscriptionRepository = subscriptionRepo.NewRepository(wrappedDB)
		paymentEventRepository = paymentEventRepo.NewRepository(wrappedDB)
		outboxRepository = outboxRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		salonRepository = salonRepo.NewRepository(db)
		catalogRepository = catalogRepo.NewRepository(db)
		subscriptionRepository = subscriptionRepo.NewRepository(db)
		paymentEventRepository = paymentEventRepo.NewRepository(db)
		outboxRepository = outboxRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		salonRepository,
		outboxRepository,
		txMgr,
		log,
	)
	subscriptionSvc := subscriptionService.NewService(
		subscriptionRepository,
		log,
	)
	salonSvc := salonsService.NewService(
		salonRepository,
		log,
	)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		salonRepository,
		catalogRepository,
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		salonRepository,
		catalogRepository,
		subscriptionRepository,
		outboxRepository,
		payClient,
		txMgr,
		log,
	)

	rescheduleBookingUseCase := rescheduleBookingUC.NewUseCase(
		bookingRepository,
		salonRepository,
		outboxRepository,
		txMgr,
		log,
	)

	processPaymentEventUseCase := processPaymentEventUC.NewUseCase(
		bookingRepository,
		salonRepository,
		catalogRepository,
		paymentEventRepository,
		subscriptionRepository,
		outboxRepository,
		payClient,
		txMgr,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, metricsCollector, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(rescheduleBookingUseCase, log)
	paymentWebhook := paymentWebhookHandler.NewHandler(processPaymentEventUseCase, payClient, metricsCollector, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getSalonBookings := getSalonBookingsHandler.NewHandler(bookingSvc, log)
	getSalonConfig := getSalonConfigHandler.NewHandler(salonSvc, log)
	getSubscription := getSubscriptionHandler.NewHandler(subscriptionSvc, log)
	resetSubscription := resetSubscriptionHandler.NewHandler(subscriptionSvc, log)

	// Запускаем диспетчер outbox-уведомлений
	outboxDispatcher := notifier.NewDispatcher(
		outboxRepository,
		notifyClient,
		txMgr,
		metricsCollector,
		cfg.Outbox.BatchSize,
		log,
	)
	if err := outboxDispatcher.Start(cfg.Outbox.Schedule); err != nil {
		log.Fatal("Failed to start outbox dispatcher: %v", err)
	}

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Публичные настройки салона для страницы записи
	api.HandleFunc("/salons/{salonId}/config", getSalonConfig.Handle).Methods(http.MethodGet)

	// Получение доступных слотов для записи
	api.HandleFunc("/salons/{salonId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Создание записи
	api.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Управление записью по её ID (ID выступает как capability token)
	api.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}", rescheduleBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}", cancelBooking.Handle).Methods(http.MethodDelete)

	// Webhook платежного провайдера (аутентификация по подписи)
	api.HandleFunc("/payments/webhook", paymentWebhook.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-Staff-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Управление записями (для сотрудников) ---
	// Смена статуса записи
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)

	// Журнал записей салона на день
	protected.HandleFunc("/salons/{salonId}/bookings", getSalonBookings.Handle).Methods(http.MethodGet)

	// --- Подписка салона ---
	// Состояние квоты
	protected.HandleFunc("/salons/{salonId}/subscription", getSubscription.Handle).Methods(http.MethodGet)

	// Запуск нового биллингового периода
	protected.HandleFunc("/salons/{salonId}/subscription/reset", resetSubscription.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем диспетчер outbox-уведомлений
	outboxDispatcher.Stop()

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
