package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"

	"github.com/jinxovich/mosprom-sracaton/internal/auth"
	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/storage"
)

// MyServer holds everything the route handlers depend on.
type MyServer struct {
	DB      *database.DBinstanceStruct
	Storage storage.Client
	Tokens  *auth.TokenIssuer
}

// newStorageClient picks cloud storage when BUCKET_NAME is set and falls back
// to a local directory otherwise.
func newStorageClient() (storage.Client, error) {
	if bucket := os.Getenv("BUCKET_NAME"); bucket != "" {
		return storage.NewCloudStorageClient(bucket)
	}

	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return storage.NewLocalStorageClient(dir)
}

// NewServer construct new http.Server instance with all routes registered
func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialize: %s", err)
	}

	store, err := newStorageClient()
	if err != nil {
		log.Fatalf("Storage failed to initialize: %s", err)
	}

	s := &MyServer{
		DB:      db,
		Storage: store,
		Tokens:  auth.NewTokenIssuer(),
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
