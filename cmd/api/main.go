// Package main starts the HTTP API server.
package main

import (
	"log"

	"github.com/jinxovich/mosprom-sracaton/internal/server"
)

func main() {
	srv := server.NewServer()

	log.Printf("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Cannot start server: %s", err)
	}
}
