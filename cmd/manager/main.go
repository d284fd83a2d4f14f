// Command manager runs the coordinator control plane (C7/C8): the HTTP
// surface of spec.md §6 backed by the in-memory store, or a mongodb-backed
// one when mongodb_uri is configured. The job queue is always the
// in-process channel queue; rabbitmq_uri is not used.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aerius-tss/gg18-signer/internal/authn"
	"github.com/aerius-tss/gg18-signer/internal/config"
	"github.com/aerius-tss/gg18-signer/internal/logging"
	"github.com/aerius-tss/gg18-signer/internal/manager"
	"github.com/aerius-tss/gg18-signer/internal/queue"
	"github.com/aerius-tss/gg18-signer/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to manager config file")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if err := logging.Init(*logLevel, false); err != nil {
		fmt.Fprintln(os.Stderr, "manager: failed to init logging:", err)
		os.Exit(1)
	}
	logger := logging.Named("manager")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorw("failed to load config", "error", err)
		os.Exit(1)
	}

	var st store.Store
	if cfg.MongoDBURI != "" {
		mongoStore, err := store.NewMongoStore(context.Background(), cfg.MongoDBURI, "gg18_signer")
		if err != nil {
			logger.Errorw("failed to connect to mongodb", "error", err)
			os.Exit(1)
		}
		st = mongoStore
	} else {
		st = store.NewMemoryStore()
	}

	q := queue.NewChannel(64)
	srv := manager.NewServer(cfg, st, q)

	verifier := authn.NewVerifier(cfg.Security.JWTSecret)
	allowList := authn.NewAllowList(cfg.Security.AllowedSignerIPs)
	router := srv.Router(verifier, allowList)

	addr := fmt.Sprintf("%s:%d", cfg.ManagerURL, cfg.ManagerPort)
	logger.Infow("manager listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		logger.Errorw("server exited", "error", err)
		os.Exit(1)
	}
}
