package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appauth "github.com/yutashop/storefront/internal/application/auth"
	appcart "github.com/yutashop/storefront/internal/application/cart"
	appcatalog "github.com/yutashop/storefront/internal/application/catalog"
	"github.com/yutashop/storefront/internal/application/checkout"
	apphistory "github.com/yutashop/storefront/internal/application/history"
	"github.com/yutashop/storefront/internal/infrastructure/eventbus"
	"github.com/yutashop/storefront/internal/infrastructure/id"
	"github.com/yutashop/storefront/internal/infrastructure/memory"
	infraobs "github.com/yutashop/storefront/internal/infrastructure/observability"
	"github.com/yutashop/storefront/internal/infrastructure/observability/oteltrace"
	"github.com/yutashop/storefront/internal/infrastructure/observability/prometrics"
	"github.com/yutashop/storefront/internal/infrastructure/observability/zaplogger"
	"github.com/yutashop/storefront/internal/infrastructure/paysim"
	"github.com/yutashop/storefront/internal/infrastructure/session"
	"github.com/yutashop/storefront/internal/infrastructure/storeapi"
	"github.com/yutashop/storefront/internal/observability"
	httppresentation "github.com/yutashop/storefront/internal/presentation/http"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "storefront")
	env := getenvDefault("ENV", "dev")
	addr := getenvDefault("ADDR", ":8080")
	storeAPIBaseURL := getenvDefault("STORE_API_BASE_URL", "https://fakestoreapi.com")
	sessionFile := getenvDefault("SESSION_FILE", ".storefront-session.json")
	stockSeed := getenvInt("STOCK_SEED", 5)
	paymentDelay := time.Duration(getenvInt("PAYMENT_DELAY_MS", 2000)) * time.Millisecond
	paymentSuccessRate := getenvFloat("PAYMENT_SUCCESS_RATE", 0.7)

	baseLogger := zaplogger.New(
		observability.F("service", serviceName),
		observability.F("env", env),
	)

	metrics := prometrics.New("", serviceName)
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: metrics.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: metrics.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
		observability.MExternalRequests: metrics.Counter(
			string(observability.MExternalRequests),
			"Total number of outbound calls to remote peers.",
			"peer", "endpoint", "outcome",
		),
		observability.MOrdersFinalized: metrics.Counter(
			string(observability.MOrdersFinalized),
			"Count of orders finalized after successful payment.",
			"method",
		),
		observability.MStockDepleted: metrics.Counter(
			string(observability.MStockDepleted),
			"Count of products whose stock reached zero.",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: metrics.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: metrics.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			prometheus.DefBuckets,
			"method", "route",
		),
		observability.MExternalRequestDuration: metrics.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of outbound calls in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
	}

	tel := infraobs.New(oteltrace.New(serviceName), baseLogger, counters, histograms)
	log := tel.Logger().With(observability.F("component", "main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Single in-memory store backing catalog, cart, pending order, and history.
	store := memory.NewStore()

	remote := storeapi.New(storeAPIBaseURL, tel)
	sessions := session.NewFileStore(sessionFile)

	catalogService := appcatalog.NewService(store.Catalog(), remote, stockSeed, tel)
	authService := appauth.NewService(sessions, remote, nil, tel)
	cartService := appcart.NewService(authService, store.Cart(), store.Catalog(), tel)
	authService.AttachCartClearer(cartService)
	historyService := apphistory.NewService(store.History(), tel)

	bus := eventbus.NewBus(tel.Logger())
	watcher := eventbus.NewStockWatcher(bus, tel)
	watcher.Start()
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	processor := paysim.New(paymentDelay, paymentSuccessRate, tel)
	coordinator := checkout.NewCoordinator(
		store,
		authService,
		processor,
		bus,
		id.NewOrderIDGenerator(),
		tel,
	)

	// Restore any persisted session, then warm the catalog. A cold catalog is
	// not fatal: the list stays empty until the remote side comes back.
	authService.Bootstrap(ctx)
	if _, err := catalogService.Load(ctx); err != nil {
		log.Warn("catalog_load_failed", observability.F("error", err.Error()))
	}

	handler := httppresentation.NewHandler(
		catalogService,
		cartService,
		authService,
		historyService,
		coordinator,
		id.NewUUIDGenerator(),
		tel,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", observability.F("error", err.Error()))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		log.Info("http_server_stopped")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
