// Package handler exposes the relay as a serverless function entry point.
package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-coders/groq-relay/internal/relay"
	"github.com/go-coders/groq-relay/internal/server"
	"github.com/go-coders/groq-relay/pkg/config"
	"github.com/go-coders/groq-relay/pkg/logger"
)

var (
	once    sync.Once
	handler http.Handler
	initErr error
)

// setup runs once per cold start. The key pool is not read here.
func setup() {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		initErr = err
		return
	}
	if err := logger.Init(logger.Options{Debug: cfg.Debug}); err != nil {
		initErr = err
		return
	}
	handler = server.New(cfg).Handler()
}

// Handler serves every request through the relay router
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(relay.Internal(initErr).Payload())
		return
	}
	handler.ServeHTTP(w, r)
}
