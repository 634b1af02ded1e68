package main

import (
	"flag"
	"log/slog"
	"os"

	"streamvault/config"
	"streamvault/core/events"
	"streamvault/core/state"
	"streamvault/core/types"
	"streamvault/native/escrow"
	"streamvault/native/stream"
	"streamvault/observability/logging"
	"streamvault/rpc"
	"streamvault/storage"
)

// logEmitter forwards ledger events to the structured log. It is the default
// notification transport of the daemon; richer transports can replace it
// behind the same Emitter interface.
type logEmitter struct {
	log *slog.Logger
}

func (l logEmitter) Emit(event events.Event) {
	if event == nil {
		return
	}
	payload, ok := event.(interface{ Event() *types.Event })
	if !ok {
		l.log.Info("ledger event", "type", event.EventType())
		return
	}
	evt := payload.Event()
	args := make([]any, 0, 2+2*len(evt.Attributes))
	args = append(args, "type", evt.Type)
	for k, v := range evt.Attributes {
		args = append(args, k, v)
	}
	l.log.Info("ledger event", args...)
}

func main() {
	configPath := flag.String("config", "config.toml", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "err", err)
		os.Exit(1)
	}

	log := logging.Setup("streamvaultd", cfg.Environment)
	log.Info("configuration loaded", "network", cfg.NetworkName, "dataDir", cfg.DataDir)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		log.Error("failed to open database", "dataDir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	emitter := logEmitter{log: log.With("component", "ledger")}

	streams := stream.NewEngine()
	streams.SetState(manager)
	streams.SetEmitter(emitter)
	streams.SetPauses(cfg)

	escrows := escrow.NewEngine()
	escrows.SetState(manager)
	escrows.SetEmitter(emitter)
	escrows.SetPauses(cfg)

	server := rpc.NewServer(streams, escrows, log.With("component", "rpc"))
	if err := server.Start(cfg.RPCAddress); err != nil {
		log.Error("rpc server terminated", "err", err)
		os.Exit(1)
	}
}
