package main

import (
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"

	"scorepad"
	"scorepad/internal/config"
	"scorepad/internal/history"
	"scorepad/internal/server"
	"scorepad/internal/session"
	"scorepad/internal/storage"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	logger := log.Default()
	hist := history.New(store, logger)
	mgr := session.NewManager(store, hist, logger)
	if err := mgr.Restore(); err != nil {
		log.Printf("warning: restore game: %v", err)
	}
	if mgr.Active() {
		log.Printf("resumed game at round %d", mgr.Round())
	}

	var webFS fs.FS
	if cfg.WebDir != "" {
		webFS = os.DirFS(cfg.WebDir)
	} else {
		webFS, err = fs.Sub(scorepad.WebFS, "web")
		if err != nil {
			log.Fatalf("web assets: %v", err)
		}
	}

	srv := server.New(mgr, hist, store, webFS)

	log.Printf("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
		log.Fatalf("server: %v", err)
	}
}
