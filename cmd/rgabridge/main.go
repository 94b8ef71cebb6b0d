// cmd/rgabridge/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vgajsek/rga-bridge/internal/api"
	"github.com/vgajsek/rga-bridge/internal/config"
	"github.com/vgajsek/rga-bridge/internal/engine"
	"github.com/vgajsek/rga-bridge/internal/mirror"
	"github.com/vgajsek/rga-bridge/internal/publish"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	// A .env next to the binary is optional.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	applyEnvOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	if lvl, err := logrus.ParseLevel(cfg.Bridge.Log.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("unknown log level %q, using info", cfg.Bridge.Log.Level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --------------------
	// Publishing pipeline (MQTT behind the change cache)
	// --------------------

	mqtt, err := publish.NewMQTT(ctx, publish.MQTTConfig{
		BrokerURL:   cfg.Bridge.MQTT.Broker,
		ClientID:    cfg.Bridge.MQTT.ClientID,
		TopicPrefix: cfg.Bridge.MQTT.TopicPrefix,
		QoS:         byte(cfg.Bridge.MQTT.QoS),
	})
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}
	sink := publish.NewCache(mqtt)

	// --------------------
	// Optional PLC mirror
	// --------------------

	var mir engine.MirrorWriter
	if m := cfg.Bridge.Mirror; m != nil {
		w, err := mirror.New(mirror.Config{
			Endpoint:     m.Endpoint,
			UnitID:       m.UnitID,
			BaseRegister: m.BaseRegister,
			Timeout:      time.Duration(m.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			log.Fatalf("mirror connect failed: %v", err)
		}
		defer w.Close()
		mir = w
	}

	// --------------------
	// Engine + HTTP API
	// --------------------

	eng, closeEngine, err := engine.Build(cfg.Bridge, sink, mir, log)
	if err != nil {
		log.Fatalf("engine build failed: %v", err)
	}
	defer closeEngine()

	go eng.Run(ctx)

	srv := api.New(eng, log)
	go func() {
		if err := srv.Start(cfg.Bridge.API.Listen); err != nil {
			log.Errorf("http api failed: %v", err)
			cancel()
		}
	}()

	log.WithField("device", cfg.Bridge.Device.Endpoint).Info("rga bridge running")

	// --------------------
	// Run until interrupted
	// --------------------

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigs:
		log.Info("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	if err := mqtt.Close(shutdownCtx); err != nil {
		log.Warnf("mqtt shutdown: %v", err)
	}
}

// applyEnvOverrides lets deployment environments override the file
// without editing it.
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("RGA_DEVICE_ENDPOINT"); v != "" {
		cfg.Bridge.Device.Endpoint = v
	}
	if v := os.Getenv("RGA_MQTT_BROKER"); v != "" {
		cfg.Bridge.MQTT.Broker = v
	}
	if v := os.Getenv("RGA_API_LISTEN"); v != "" {
		cfg.Bridge.API.Listen = v
	}
	if v := os.Getenv("RGA_LOG_LEVEL"); v != "" {
		cfg.Bridge.Log.Level = v
	}
}
