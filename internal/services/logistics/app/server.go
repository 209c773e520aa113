// Package server wires the logistics runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gogidix/cross-region-logistics/internal/platform/config"
	"github.com/gogidix/cross-region-logistics/internal/platform/timeouts"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/api/rest"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/clients"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/events"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/integration"
	logisticssqlite "github.com/gogidix/cross-region-logistics/internal/services/logistics/storage/sqlite"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/validation"
)

type serverEnv struct {
	DBPath           string        `env:"LOGISTICS_DB_PATH"`
	WarehouseBaseURL string        `env:"LOGISTICS_WAREHOUSE_URL"      envDefault:"http://localhost:8081"`
	InventoryBaseURL string        `env:"LOGISTICS_INVENTORY_URL"      envDefault:"http://localhost:8082"`
	KafkaBrokers     []string      `env:"LOGISTICS_KAFKA_BROKERS"      envSeparator:","`
	KafkaTopic       string        `env:"LOGISTICS_KAFKA_TOPIC"        envDefault:"transfer-events"`
	MaxRetryAttempts int           `env:"LOGISTICS_MAX_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay   time.Duration `env:"LOGISTICS_RETRY_BASE_DELAY"   envDefault:"500ms"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "logistics.db")
	}
	return cfg
}

// Server hosts the transfer workflow REST API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *logisticssqlite.Store
	publisher  *events.KafkaPublisher
	logger     *zap.Logger
}

// New creates a configured logistics server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured logistics server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env := loadServerEnv()
	store, err := logisticssqlite.Open(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	warehouses := clients.NewHTTPWarehouseClient(env.WarehouseBaseURL, nil)
	inventory := clients.NewHTTPInventoryClient(env.InventoryBaseURL, nil)
	validator := validation.NewService(warehouses, inventory, logger)

	brokers := make([]string, 0, len(env.KafkaBrokers))
	for _, broker := range env.KafkaBrokers {
		if strings.TrimSpace(broker) != "" {
			brokers = append(brokers, broker)
		}
	}
	var publisher events.Publisher = events.NopPublisher{}
	var kafkaPublisher *events.KafkaPublisher
	if len(brokers) > 0 {
		kafkaPublisher = events.NewKafkaPublisher(brokers, env.KafkaTopic, logger)
		publisher = kafkaPublisher
	}

	retrier := integration.NewRetrier(integration.RetryConfig{
		MaxAttempts: env.MaxRetryAttempts,
		BaseDelay:   env.RetryBaseDelay,
	}, logger)
	coordinator := integration.NewCoordinator(store, inventory, validator, publisher, retrier, logger)

	handler := rest.NewHandler(coordinator, logger)

	return &Server{
		listener:   listener,
		httpServer: &http.Server{
			Handler:           handler.Routes(),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		store:      store,
		publisher:  kafkaPublisher,
		logger:     logger,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a logistics server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.logger.Info("logistics server listening", zap.String("addr", s.listener.Addr().String()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close releases the server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Warn("close event publisher", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close store", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}
