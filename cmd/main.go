package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poolctl/internal/device"
	"poolctl/internal/handlers"
	"poolctl/internal/logger"
	"poolctl/internal/mqtt"
	"poolctl/internal/repository"
	"poolctl/internal/repository/db"
	"poolctl/internal/server"
	"poolctl/internal/service"

	"github.com/spf13/viper"
)

func main() {
	// load config.yml first so the log level can come from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(viper.GetString("log.level"))

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire storage and services
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, historyConfig(), log)

	// wire the device core: transport, reconciler, dispatcher, recorder
	topics := stateTopics()
	reconciler := device.NewReconciler(topics, log)

	transport := mqtt.NewClient(mqtt.Config{
		BrokerURL:   viper.GetString("mqtt.broker_url"),
		Username:    viper.GetString("mqtt.username"),
		Password:    viper.GetString("mqtt.password"),
		StateTopics: topics.Topics(),
	}, log)
	transport.OnMessage(reconciler.HandleMessage)
	transport.OnConnected(reconciler.TransportConnected)
	transport.OnDisconnected(func(error) { reconciler.TransportDown() })

	dispatcher := device.NewDispatcher(device.CommandTopics{
		Pump:  viper.GetString("mqtt.topics.pump_cmd"),
		Valve: viper.GetString("mqtt.topics.valve_cmd"),
	}, transport, log)

	recorder := service.NewEventRecorder(services.History, viper.GetString("device_id"), log)
	recorder.Attach(reconciler)

	reconciler.ConnectRequested()
	transport.Connect()

	// start HTTP server
	apiHandler := handlers.NewHandler(services, reconciler, dispatcher, apiKey(), log)
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, transport, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// apiKey prefers the environment; the config file is a fallback for local
// runs only. An empty key leaves ingestion answering 500 on purpose.
func apiKey() string {
	if k := os.Getenv("API_KEY"); k != "" {
		return k
	}
	return viper.GetString("history.api_key")
}

func historyConfig() service.HistoryConfig {
	retentionDays := viper.GetInt("history.retention_days")
	if retentionDays <= 0 {
		retentionDays = 60
	}
	sweep := viper.GetFloat64("history.sweep_probability")
	if sweep <= 0 {
		sweep = 0.1
	}
	return service.HistoryConfig{
		DefaultDeviceID:  viper.GetString("device_id"),
		RetentionWindow:  time.Duration(retentionDays) * 24 * time.Hour,
		SweepProbability: sweep,
	}
}

func stateTopics() device.TopicMap {
	return device.TopicMap{
		PumpState:  viper.GetString("mqtt.topics.pump_state"),
		ValveState: viper.GetString("mqtt.topics.valve_state"),
		WifiState:  viper.GetString("mqtt.topics.wifi_state"),
		TimerState: viper.GetString("mqtt.topics.timer_state"),
	}
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "poolctl.db")
		dbPath = "poolctl.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, transport *mqtt.Client, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// drop the broker link first so no more state flows in
	transport.Disconnect()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
