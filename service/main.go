package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/engine"
)

// loggingTreasury records transfers and logs each one. Standing in for a
// real payment rail; the engine only sees the Treasury interface.
type loggingTreasury struct {
	inner *engine.RecordingTreasury
}

func (t *loggingTreasury) Transfer(to core.Principal, amount decimal.Decimal) error {
	if err := t.inner.Transfer(to, amount); err != nil {
		return err
	}
	log.Printf("INFO: Transferred %s to %s (total %s)", amount.String(), to, t.inner.Transferred(to).String())
	return nil
}

func main() {
	configPath := flag.String("config", "auction.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	signer, err := engine.NewReceiptSigner()
	if err != nil {
		log.Fatalf("ERROR: Failed to initialize receipt signer: %v", err)
	}
	log.Printf("INFO: Receipt signer initialized")

	var sinks []engine.EventSink
	if cfg.Journal.Path != "" {
		journalFile, err := os.OpenFile(cfg.Journal.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Fatalf("ERROR: Failed to open journal: %v", err)
		}
		defer func() {
			if err := journalFile.Close(); err != nil {
				log.Printf("ERROR: Failed to close journal: %v", err)
			}
		}()
		sinks = append(sinks, engine.NewJournal(journalFile))
		log.Printf("INFO: Journaling events to %s", cfg.Journal.Path)
	}

	treasury := &loggingTreasury{inner: engine.NewRecordingTreasury()}
	eng := engine.New(treasury, signer, sinks...)

	if cfg.Server.Transport != "" {
		sockServer := NewSocketServer(eng, cfg.Server)
		go func() {
			if err := sockServer.Start(); err != nil {
				log.Fatalf("ERROR: Socket server failed: %v", err)
			}
		}()
	}

	httpServer := NewHTTPServer(eng, signer)
	log.Printf("INFO: HTTP API listening on %s", cfg.Server.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.Server.HTTPAddr, httpServer.Router()))
}
