package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type TransportMode string

const (
	TransportModeFile  TransportMode = "file"
	TransportModeRedis TransportMode = "redis"
	TransportModeGRPC  TransportMode = "grpc"

	HardcodedVersion string = "V0.3"
)

type Config struct {
	BridgeID         string
	TransportMode    TransportMode
	WireCodec        string
	ShareDir         string
	RedisURL         string
	RedisPrefix      string
	BackendGRPCAddr  string
	BackendToken     string
	GRPCStreamMethod string

	TickInterval       time.Duration
	SnapshotInterval   time.Duration
	HeartbeatInterval  time.Duration
	DeckSyncInterval   time.Duration
	ActionTimeout      time.Duration
	WorkerEnabled      bool
	WorkerPollInterval time.Duration
	QueueSize          int
	PollBudget         int

	SettleDelaysPath string

	ProbeListenAddr string
	HealthInterval  time.Duration
	ShutdownTimeout time.Duration

	LuaScriptPath  string
	LuaRootGlobal  string
	LuaApplyGlobal string

	BridgeVersion string
	TLSEnabled    bool
	TLSSkipVerify bool
	TLSCAPath     string
	TLSCertPath   string
	TLSKeyPath    string
	LogJSON       bool
	LogLevel      string
}

func Load() (Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	cfg := Config{
		BridgeID:         env("BRIDGE_ID", hostname),
		TransportMode:    TransportMode(strings.ToLower(env("BRIDGE_TRANSPORT_MODE", string(TransportModeFile)))),
		WireCodec:        strings.ToLower(env("BRIDGE_WIRE_CODEC", "json")),
		ShareDir:         env("BRIDGE_SHARE_DIR", "shared"),
		RedisURL:         env("BRIDGE_REDIS_URL", "redis://127.0.0.1:6379/0"),
		RedisPrefix:      env("BRIDGE_REDIS_PREFIX", "bridge"),
		BackendGRPCAddr:  env("BRIDGE_BACKEND_GRPC_ADDR", "127.0.0.1:3001"),
		BackendToken:     env("BRIDGE_BACKEND_TOKEN", ""),
		GRPCStreamMethod: env("BRIDGE_GRPC_STREAM_METHOD", "/bridge.sync.v1.SyncService/Exchange"),

		TickInterval:       envDuration("BRIDGE_TICK_INTERVAL", 250*time.Millisecond),
		SnapshotInterval:   envDuration("BRIDGE_SNAPSHOT_INTERVAL", 2*time.Second),
		HeartbeatInterval:  envDuration("BRIDGE_HEARTBEAT_INTERVAL", 15*time.Second),
		DeckSyncInterval:   envDuration("BRIDGE_DECK_SYNC_INTERVAL", 30*time.Second),
		ActionTimeout:      envDuration("BRIDGE_ACTION_TIMEOUT", 10*time.Second),
		WorkerEnabled:      envBool("BRIDGE_IO_WORKER", true),
		WorkerPollInterval: envDuration("BRIDGE_WORKER_POLL_INTERVAL", 200*time.Millisecond),
		QueueSize:          envInt("BRIDGE_QUEUE_SIZE", 64),
		PollBudget:         envInt("BRIDGE_POLL_BUDGET", 8),

		SettleDelaysPath: env("BRIDGE_SETTLE_DELAYS_PATH", ""),

		ProbeListenAddr: env("BRIDGE_PROBE_ADDR", "0.0.0.0:7463"),
		HealthInterval:  envDuration("BRIDGE_HEALTH_INTERVAL", 10*time.Second),
		ShutdownTimeout: envDuration("BRIDGE_SHUTDOWN_TIMEOUT", 20*time.Second),

		LuaScriptPath:  env("BRIDGE_LUA_SCRIPT", ""),
		LuaRootGlobal:  env("BRIDGE_LUA_ROOT", "G"),
		LuaApplyGlobal: env("BRIDGE_LUA_APPLY_FN", "apply_action"),

		BridgeVersion: HardcodedVersion,
		TLSEnabled:    envBool("BRIDGE_TLS_ENABLED", false),
		TLSSkipVerify: envBool("BRIDGE_TLS_SKIP_VERIFY", false),
		TLSCAPath:     env("BRIDGE_TLS_CA_PATH", ""),
		TLSCertPath:   env("BRIDGE_TLS_CERT_PATH", ""),
		TLSKeyPath:    env("BRIDGE_TLS_KEY_PATH", ""),
		LogJSON:       envBool("BRIDGE_LOG_JSON", false),
		LogLevel:      strings.ToLower(env("BRIDGE_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BridgeID == "" {
		return errors.New("BRIDGE_ID is required")
	}
	if strings.TrimSpace(c.BridgeVersion) == "" {
		return errors.New("bridge version must not be empty")
	}
	switch c.TransportMode {
	case TransportModeFile, TransportModeRedis, TransportModeGRPC:
	default:
		return fmt.Errorf("unsupported transport mode %q", c.TransportMode)
	}
	switch c.WireCodec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("unsupported wire codec %q", c.WireCodec)
	}
	if c.TransportMode == TransportModeFile && strings.TrimSpace(c.ShareDir) == "" {
		return errors.New("BRIDGE_SHARE_DIR is required for file mode")
	}
	if c.TransportMode == TransportModeRedis && strings.TrimSpace(c.RedisURL) == "" {
		return errors.New("BRIDGE_REDIS_URL is required for redis mode")
	}
	if c.TransportMode == TransportModeGRPC {
		if strings.TrimSpace(c.BackendGRPCAddr) == "" {
			return errors.New("BRIDGE_BACKEND_GRPC_ADDR is required for grpc mode")
		}
		if strings.TrimSpace(c.GRPCStreamMethod) == "" {
			return errors.New("BRIDGE_GRPC_STREAM_METHOD is required for grpc mode")
		}
	}
	if c.SnapshotInterval <= 0 {
		return errors.New("BRIDGE_SNAPSHOT_INTERVAL must be > 0")
	}
	if c.TickInterval <= 0 {
		return errors.New("BRIDGE_TICK_INTERVAL must be > 0")
	}
	if c.ActionTimeout <= 0 {
		return errors.New("BRIDGE_ACTION_TIMEOUT must be > 0")
	}
	if c.QueueSize <= 0 {
		return errors.New("BRIDGE_QUEUE_SIZE must be > 0")
	}
	if c.PollBudget <= 0 {
		return errors.New("BRIDGE_POLL_BUDGET must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("BRIDGE_SHUTDOWN_TIMEOUT must be > 0")
	}
	return nil
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
