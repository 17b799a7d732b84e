package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/mailagent/go/internal/gateway"
)

func setupServer(port string, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Register API and websocket routes
	gateway.NewHandler(
		services.Agent,
		services.Scheduler,
		services.History,
		services.Status,
		services.Connections,
	).WithHealthChecker(services.healthChecker()).RegisterRoutes(mux)

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server. No write timeout: generation and SMTP sessions can be slow.
	return &http.Server{
		Addr:        fmt.Sprintf(":%s", port),
		Handler:     h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
}
