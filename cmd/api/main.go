package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adactor "github.com/berfenger/fanlight2mqtt/internal/adapter/actor"
	"github.com/berfenger/fanlight2mqtt/internal/config"
	"github.com/berfenger/fanlight2mqtt/internal/core/actor"
	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/mqtt"
	"github.com/berfenger/fanlight2mqtt/internal/server"
	"github.com/berfenger/fanlight2mqtt/internal/util/actorutil"
	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	slog.Info("Using", "config", cfg.Redacted())

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// the entity host outlives MQTT actor restarts so its cache survives reconnections
	mqttClient := mqtt.CreateMQTTClient(cfg, mqtt.OptsFromConfig(cfg))
	bridge := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	host := mqtt.NewEntityHost(mqttClient, mqtt.TopicsFromConfig(cfg),
		domain.ApplianceDevice(cfg.Device.Id, cfg.Device.Name, bridge), logger)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, deviceActorProvider(cfg, logger), mqttActorProvider(mqttClient, host, logger), host, logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		logger.Error("could not spawn master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid, logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => FANBRIDGE_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("FANBRIDGE_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("fanbridge")
	// nested keys as FANBRIDGE_DEVICE_HOST
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = config.ParseLogLevel(viper.GetString("log_level"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func deviceActorProvider(cfg *config.Config, logger *zap.Logger) actor.DeviceActorProvider {
	client := fanclient.CreateHTTPClient(cfg.Device.Host, cfg.Device.Port, cfg.Device.Timeout(), logger)
	return func() *adactor.DeviceActor {
		return adactor.NewDeviceActor(client, cfg.Device.Timeout(), logger)
	}
}

func mqttActorProvider(client *mqtt.MQTTClient, host *mqtt.EntityHost, logger *zap.Logger) actor.MQTTActorProvider {
	return func() *adactor.MQTTActor {
		return adactor.NewMQTTActor(client, host, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("http_log", false)
	viper.SetDefault("device.host", "")
	viper.SetDefault("device.id", "")
	viper.SetDefault("device.port", 80)
	viper.SetDefault("device.name", "Ceiling Fan")
	viper.SetDefault("device.timeout_millis", 3000)
	viper.SetDefault("entities.fan_enabled", true)
	viper.SetDefault("entities.light_enabled", true)
	viper.SetDefault("entities.low_speed_value", 1)
	viper.SetDefault("entities.turn_on_with_set_speed", false)
	viper.SetDefault("entities.turn_on_with_set_level", false)
	viper.SetDefault("entities.polling_interval_seconds", 60)
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.base_topic", "fanbridge")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("port", 8080)
}
