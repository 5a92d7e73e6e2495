// sHome Bridge - apartment cloud to MQTT gateway
//
// This is the main entry point for the sHome bridge. It maintains a
// session with the sHome apartment cloud, keeps per-category device
// state synchronised, and exposes that state over MQTT for home
// automation platforms. Environment and climate telemetry can
// optionally be recorded to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LuterGS/shome-ha-integration/internal/bridge"
	"github.com/LuterGS/shome-ha-integration/internal/coordinator"
	"github.com/LuterGS/shome-ha-integration/internal/infrastructure/config"
	"github.com/LuterGS/shome-ha-integration/internal/infrastructure/influxdb"
	"github.com/LuterGS/shome-ha-integration/internal/infrastructure/logging"
	"github.com/LuterGS/shome-ha-integration/internal/infrastructure/mqtt"
	"github.com/LuterGS/shome-ha-integration/internal/shome"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting sHome bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Log in to the sHome cloud. The registry guarantees one shared
	// session per account.
	registry := shome.NewRegistry(func(cred shome.Credential) *shome.Client {
		return shome.NewClient(cfg.SHome.BaseURL, cred,
			shome.WithTimeout(cfg.GetHTTPTimeout()),
			shome.WithLogger(log))
	})
	cred := shome.Credential{
		Username:     cfg.SHome.Credential.Username,
		PasswordHash: cfg.SHome.Credential.PasswordHash,
		DeviceID:     cfg.SHome.Credential.DeviceID,
	}
	client, err := registry.Get(ctx, cred)
	if err != nil {
		return fmt.Errorf("logging in to shome cloud: %w", err)
	}
	session := client.Session()
	log.Info("shome session established",
		"home_id", session.HomeID,
		"wallpad_id", session.WallpadID,
	)

	// Discover and classify devices
	devices, err := client.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	grouped := shome.GroupByCategory(devices, log)
	log.Info("device discovery complete",
		"total", len(devices),
		"lights", len(grouped[shome.CategoryLight]),
		"sensors", len(grouped[shome.CategorySensor]),
		"aircons", len(grouped[shome.CategoryAircon]),
		"heaters", len(grouped[shome.CategoryHeater]),
		"ventilators", len(grouped[shome.CategoryVentilation]),
	)

	coords := buildCoordinators(client, grouped, cfg, log)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Bind the bridge before starting coordinators so the first poll
	// is published.
	br := bridge.New(mqttClient, coords, byte(cfg.MQTT.QoS), log)
	if err := br.Bind(ctx); err != nil {
		return fmt.Errorf("binding bridge: %w", err)
	}

	// Connect to InfluxDB (optional) and attach the telemetry recorder
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		recorder := bridge.NewRecorder(influxClient)
		recorder.BindSensors(coords.Sensors)
		recorder.BindClimate(coords.Aircons)
		recorder.BindClimate(coords.Heaters)
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := startCoordinators(ctx, coords, log); err != nil {
		return err
	}
	defer closeCoordinators(coords, log)

	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("sHome bridge stopped")
	return nil
}

// buildCoordinators creates one coordinator per category that has
// devices. Sensors poll periodically; everything else is on-demand.
func buildCoordinators(client *shome.Client, grouped map[shome.Category][]shome.Device, cfg *config.Config, log bridge.Logger) bridge.Coordinators {
	cooldown := cfg.GetRefreshCooldown()
	confirm := cfg.GetConfirmDelay()
	ventConfirm := cfg.GetVentilationConfirmDelay()

	var coords bridge.Coordinators
	if devices := grouped[shome.CategoryLight]; len(devices) > 0 {
		coords.Lights = coordinator.NewLightCoordinator(client, devices, confirm,
			coordinator.Options{Cooldown: cooldown, Logger: log})
	}
	if devices := grouped[shome.CategorySensor]; len(devices) > 0 {
		coords.Sensors = coordinator.NewSensorCoordinator(client, devices,
			coordinator.Options{Interval: cfg.GetSensorInterval(), Cooldown: cooldown, Logger: log})
	}
	if devices := grouped[shome.CategoryAircon]; len(devices) > 0 {
		coords.Aircons = coordinator.NewClimateCoordinator(client, shome.CategoryAircon, devices, confirm,
			coordinator.Options{Cooldown: cooldown, Logger: log})
	}
	if devices := grouped[shome.CategoryHeater]; len(devices) > 0 {
		coords.Heaters = coordinator.NewClimateCoordinator(client, shome.CategoryHeater, devices, confirm,
			coordinator.Options{Cooldown: cooldown, Logger: log})
	}
	if devices := grouped[shome.CategoryVentilation]; len(devices) > 0 {
		coords.Ventilators = coordinator.NewVentilationCoordinator(client, devices, ventConfirm,
			coordinator.Options{Cooldown: cooldown, Logger: log})
	}
	return coords
}

func startCoordinators(ctx context.Context, coords bridge.Coordinators, log bridge.Logger) error {
	start := func(name string, fn func(context.Context) error) error {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("starting %s coordinator: %w", name, err)
		}
		log.Info("coordinator started", "category", name)
		return nil
	}

	if coords.Lights != nil {
		if err := start("light", coords.Lights.Start); err != nil {
			return err
		}
	}
	if coords.Sensors != nil {
		if err := start("sensor", coords.Sensors.Start); err != nil {
			return err
		}
	}
	if coords.Aircons != nil {
		if err := start("aircon", coords.Aircons.Start); err != nil {
			return err
		}
	}
	if coords.Heaters != nil {
		if err := start("heater", coords.Heaters.Start); err != nil {
			return err
		}
	}
	if coords.Ventilators != nil {
		if err := start("ventilation", coords.Ventilators.Start); err != nil {
			return err
		}
	}
	return nil
}

func closeCoordinators(coords bridge.Coordinators, log bridge.Logger) {
	log.Info("stopping coordinators")
	if coords.Lights != nil {
		coords.Lights.Close()
	}
	if coords.Sensors != nil {
		coords.Sensors.Close()
	}
	if coords.Aircons != nil {
		coords.Aircons.Close()
	}
	if coords.Heaters != nil {
		coords.Heaters.Close()
	}
	if coords.Ventilators != nil {
		coords.Ventilators.Close()
	}
}

// healthCheck verifies infrastructure connections are healthy.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mqttClient.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SHOMEBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SHOMEBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
