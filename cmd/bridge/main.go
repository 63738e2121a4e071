package main

import (
	"context"
	"log"
	"time"

	lua "github.com/yuin/gopher-lua"

	"sim-bridge/internal/bridge"
	"sim-bridge/internal/config"
	"sim-bridge/internal/host"
	"sim-bridge/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := bridge.BuildLogger(cfg)

	// The standalone runner hosts a Lua-scripted simulation in place of the
	// real game. All Lua access stays on the tick loop.
	ls := lua.NewState()
	defer ls.Close()
	if cfg.LuaScriptPath != "" {
		if err := ls.DoFile(cfg.LuaScriptPath); err != nil {
			logger.Error("host script load failed", "path", cfg.LuaScriptPath, "error", err)
			return
		}
	} else if err := ls.DoString(cfg.LuaRootGlobal + " = {}"); err != nil {
		logger.Error("host state init failed", "error", err)
		return
	}

	src := host.NewLuaStateSource(ls, cfg.LuaRootGlobal)
	commands := host.NewLuaCommandSurface(ls, cfg.LuaApplyGlobal)
	events := host.NewTickScheduler(time.Now())

	tr, err := transport.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("transport initialization failed", "error", err)
		return
	}

	b, err := bridge.New(cfg, logger, tr, src, commands, events)
	if err != nil {
		logger.Error("bridge initialization failed", "error", err)
		return
	}

	if err := b.Run(context.Background()); err != nil {
		logger.Error("bridge runtime failed", "error", err)
	}
}
