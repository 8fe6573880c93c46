// Command tiktok-apirest starts the live-relay server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket hub, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control the config file, port, config hot-reload, and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/nglmercer/tiktok-apirest/api"
	"github.com/nglmercer/tiktok-apirest/config"
	"github.com/nglmercer/tiktok-apirest/live"
	"github.com/nglmercer/tiktok-apirest/relay"
	"github.com/nglmercer/tiktok-apirest/transport/mcp"
	"github.com/nglmercer/tiktok-apirest/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "TikTok Live Relay"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	cmd := &cli.Command{
		Name:    "tiktok-apirest",
		Usage:   "WebSocket relay with rooms and TikTok live-event bridging",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file (optional, defaults apply without one)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "HTTP server port (overrides config and PORT env var)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload the config file on change",
			},
			&cli.BoolFlag{
				Name:  "ngrok",
				Usage: "Serve through an ngrok tunnel in addition to the local listener",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp"},
				Usage:   "Run an MCP stdio server, reusing an external API or starting an internal one",
				Action:  runStdioMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

// loadConfig resolves the effective configuration from file, environment,
// and command-line overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if port := int(cmd.Int("port")); port > 0 {
		cfg.Server.Port = port
	}
	if cmd.Bool("ngrok") {
		cfg.Server.Ngrok = true
	}
	return cfg, nil
}

// buildRelay wires the hub, the live bridge, and the relay handlers from the
// given configuration. The bridge is nil when the live source is disabled.
func buildRelay(cfg *config.Config) (*websocket.Hub, *live.Bridge) {
	hub := websocket.NewHub(websocket.Options{
		DefaultRoom:    cfg.Hub.DefaultRoom,
		SendBuffer:     cfg.Hub.SendBuffer,
		MaxMessageSize: cfg.Hub.MaxMessageSize,
		WriteWait:      cfg.Hub.WriteWait,
		PongWait:       cfg.Hub.PongWait,
	})

	var bridge *live.Bridge
	if cfg.Live.Enabled {
		connector := live.NewWebsocketConnector(cfg.Live.Endpoint)
		bridge = live.NewBridge(connector, live.BackoffConfig{
			Min: cfg.Live.BackoffMin,
			Max: cfg.Live.BackoffMax,
		})
	} else {
		log.Println("Live bridge disabled, tiktok-connect requests will be refused")
	}

	relay.Install(hub, bridge)
	return hub, bridge
}

// buildRouter mounts the REST API and the /mcp proxy endpoint.
func buildRouter(apiServer *api.Server, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp
// proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Printf("Starting %s v%s", AppName, Version)

	hub, bridge := buildRelay(cfg)
	apiServer := api.NewServer(hub)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	mcpClient := mcp.NewClient(baseURL)
	mainRouter := buildRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: %s/stats", baseURL)
		log.Printf("WebSocket: ws://localhost:%d/ws", cfg.Server.Port)
		log.Printf("MCP endpoint: %s/mcp", baseURL)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if cmd.Bool("watch") && cmd.String("config") != "" {
		g.Go(func() error {
			return config.Watch(gctx, cmd.String("config"), func(next *config.Config) {
				// Hub and listener settings are fixed at startup; reloads are
				// surfaced so the operator knows a restart is needed.
				log.Printf("Config changed on disk (port=%d, default_room=%s), restart to apply",
					next.Server.Port, next.Hub.DefaultRoom)
			})
		})
	}

	if cfg.Server.Ngrok {
		g.Go(func() error {
			authToken := os.Getenv("NGROK_AUTHTOKEN")
			if authToken == "" {
				authToken = os.Getenv("NGROK_AUTH_TOKEN")
			}
			if authToken == "" {
				log.Println("WARNING: Ngrok enabled but no auth token provided (set NGROK_AUTHTOKEN)")
				return nil
			}

			log.Println("Starting ngrok tunnel...")

			var tunnel ngrokConfig.Tunnel
			if domain := os.Getenv("NGROK_DOMAIN"); domain != "" {
				tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
				log.Printf("Using custom ngrok domain: %s", domain)
			} else {
				tunnel = ngrokConfig.HTTPEndpoint()
			}

			tun, err := ngrok.Listen(gctx,
				tunnel,
				ngrok.WithAuthtoken(authToken),
			)
			if err != nil {
				log.Printf("Failed to start ngrok tunnel: %v", err)
				return nil
			}
			defer func() {
				if err := tun.Close(); err != nil {
					log.Printf("Failed to close ngrok tunnel: %v", err)
				}
			}()

			ngrokURL := tun.URL()
			log.Printf("Ngrok tunnel established: %s", ngrokURL)
			log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
			log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

			if err := http.Serve(tun, mainRouter); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Ngrok server error: %v", err)
			}
			log.Println("Ngrok tunnel closed")
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		if bridge != nil {
			bridge.Close()
		}
		if err := hub.Shutdown(shutdownCtx); err != nil {
			log.Printf("Hub shutdown error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("Server stopped")
	return nil
}

// runStdioMCP runs an MCP stdio server. It tries to reuse an external API at
// the configured port; if unavailable, it starts a minimal internal HTTP API
// bound to a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var baseURL string

	externalURL := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub, _ := buildRelay(cfg)
		httpServer := &http.Server{Handler: api.NewServer(hub)}

		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		// Wait a moment for the server to be ready
		time.Sleep(100 * time.Millisecond)

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	log.Println("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
