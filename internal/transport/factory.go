package transport

import (
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"sim-bridge/internal/config"
)

func NewFromConfig(cfg config.Config, logger *slog.Logger) (Transport, error) {
	codec, err := NewCodec(cfg.WireCodec)
	if err != nil {
		return nil, err
	}
	switch cfg.TransportMode {
	case config.TransportModeFile:
		return NewFileTransport(logger, codec, cfg.ShareDir, cfg.WorkerEnabled, cfg.WorkerPollInterval, cfg.QueueSize), nil
	case config.TransportModeRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		client := redis.NewClient(opt)
		return NewRedisTransport(logger, codec, client, cfg.RedisPrefix, cfg.WorkerEnabled, cfg.WorkerPollInterval, cfg.QueueSize), nil
	case config.TransportModeGRPC:
		tlsCfg, err := cfg.TLSConfig()
		if err != nil {
			return nil, fmt.Errorf("tls config: %w", err)
		}
		return NewGRPCTransport(logger, codec, cfg.BackendGRPCAddr, cfg.BackendToken, cfg.GRPCStreamMethod, tlsCfg, cfg.WorkerPollInterval, cfg.QueueSize), nil
	default:
		return nil, fmt.Errorf("unsupported transport mode %q", cfg.TransportMode)
	}
}
