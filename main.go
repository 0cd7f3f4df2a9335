// Command planloop-server runs the plan evaluation server.
//
// Two modes are supported. The default "server" mode serves the REST API,
// the WebSocket feed, and an /mcp HTTP endpoint. The "stdio-mcp" mode
// speaks MCP over stdin/stdout, reusing a running API server when one is
// listening on the default port and booting a loopback-only one otherwise.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/DylanRJohnston/planloop/api"
	"github.com/DylanRJohnston/planloop/puzzle/config"
	"github.com/DylanRJohnston/planloop/puzzle/service"
	"github.com/DylanRJohnston/planloop/puzzle/session"
	"github.com/DylanRJohnston/planloop/transport/mcp"
	"github.com/DylanRJohnston/planloop/transport/websocket"
)

const (
	Version = "2.0.0"
	AppName = "Planloop Puzzle Server"
)

var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	levelsDir    = flag.String("levels-dir", defaultLevelsDir(), "Directory containing level definitions")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Expose the server through an ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or set NGROK_AUTHTOKEN)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Reserved ngrok domain (optional)")
)

// defaultLevelsDir honors LEVELS_DIR so deployments can relocate level files
// without touching flags.
func defaultLevelsDir() string {
	if dir := os.Getenv("LEVELS_DIR"); dir != "" {
		return dir
	}
	return "levels"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Serve REST API, WebSocket feed, and /mcp endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Speak MCP over stdin/stdout (aliases: mcp-stdio, mcp)\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # serve on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # MCP for editor/agent integration\n", os.Args[0])
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment from .env")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	mode := "server"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	log.Printf("%s v%s starting (mode: %s)", AppName, Version, mode)

	puzzleService, err := initializeServices()
	if err != nil {
		log.Fatalf("Service initialization failed: %v", err)
	}

	switch mode {
	case "server", "http":
		runHTTPServer(puzzleService)
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCP(puzzleService)
	default:
		log.Fatalf("Unknown mode %q. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// newRouter assembles the HTTP surface: the REST API and WebSocket feed under
// the API server, plus a JSON-RPC-over-HTTP bridge to the MCP server at /mcp.
func newRouter(apiServer *api.Server, mcpClient *mcp.Client) *http.ServeMux {
	router := http.NewServeMux()
	router.Handle("/", apiServer)
	router.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	return router
}

// runHTTPServer serves the router until SIGINT/SIGTERM, optionally mirroring
// it through an ngrok tunnel, then shuts down gracefully.
func runHTTPServer(puzzleService service.PuzzleService) {
	hub := websocket.NewHub()
	go hub.Run()

	apiServer := api.NewServer(puzzleService, hub)
	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient("http://" + addr)
	router := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Listening on %s", addr)
		log.Printf("  REST API:  http://%s/api", addr)
		log.Printf("  WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("  MCP:       http://%s/mcp", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if tunnelRequested() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveTunnel(ctx, router)
		}()
	}

	sig := <-stop
	log.Printf("Signal %v received, shutting down", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// tunnelRequested reports whether a tunnel was asked for via flag or env.
func tunnelRequested() bool {
	if *ngrokEnabled {
		return true
	}
	env := os.Getenv("NGROK_ENABLED")
	return env == "true" || env == "1"
}

// serveTunnel provisions an ngrok tunnel and serves the router through it
// until ctx is cancelled. Both NGROK_AUTHTOKEN and NGROK_AUTH_TOKEN are
// accepted for the token.
func serveTunnel(ctx context.Context, handler http.Handler) {
	token := *ngrokAuth
	if token == "" {
		token = os.Getenv("NGROK_AUTHTOKEN")
	}
	if token == "" {
		token = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if token == "" {
		log.Println("WARNING: tunnel requested but no auth token given (--ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	endpoint := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using reserved ngrok domain %s", domain)
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(token))
	if err != nil {
		log.Printf("Tunnel setup failed: %v", err)
		return
	}
	defer tun.Close()

	log.Printf("🚀 Tunnel up: %s", tun.URL())
	log.Printf("  REST API:  %s/api", tun.URL())
	log.Printf("  MCP:       %s/mcp", tun.URL())

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Tunnel serve error: %v", err)
	}
	log.Println("Tunnel closed")
}

// initializeServices wires the level manager, session persistence, and
// puzzle service together, and starts the background maintenance loops.
func initializeServices() (service.PuzzleService, error) {
	levelManager, err := config.NewManager(*levelsDir)
	if err != nil {
		return nil, fmt.Errorf("level manager: %w", err)
	}

	persistence, err := session.NewFilePersistence("sessions", levelManager)
	if err != nil {
		return nil, fmt.Errorf("session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: could not restore persisted sessions: %v", err)
	}

	puzzleService := service.NewPuzzleService(sessionManager, levelManager)

	go expireSessions(sessionManager)
	go pruneDeletedSessions(sessionManager, persistence)

	return puzzleService, nil
}

// expireSessions drops sessions idle for more than a day, checking hourly.
func expireSessions(manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
			log.Printf("Expired %d idle sessions", removed)
		}
	}
}

// pruneDeletedSessions evicts in-memory sessions whose backing file was
// removed out-of-band, so deleting a session file on disk takes effect
// without a restart.
func pruneDeletedSessions(manager *session.Manager, persistence session.SessionPersistence) {
	if persistence == nil {
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		pruned := 0
		for _, sess := range manager.List() {
			if persistence.Exists(sess.ID) {
				continue
			}
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
			}
		}
		if pruned > 0 {
			log.Printf("Pruned %d sessions whose files were deleted", pruned)
		}
	}
}

// runStdioMCP serves MCP over stdin/stdout. The MCP tools proxy the REST
// API, so an API server must exist: an already-running one on the default
// port is reused, otherwise a loopback-only server is started on a random
// port for the lifetime of the process.
func runStdioMCP(puzzleService service.PuzzleService) {
	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	baseURL := externalURL

	probe := &http.Client{Timeout: 2 * time.Second}
	resp, err := probe.Get(externalURL + "/api")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("Reusing API server at %s", externalURL)
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Could not bind loopback listener: %v", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("No API server at %s; starting internal one on %s", externalURL, internalAddr)

		hub := websocket.NewHub()
		go hub.Run()

		internal := &http.Server{Handler: api.NewServer(puzzleService, hub)}
		go func() {
			if err := internal.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		// Brief warmup so the first tool call doesn't race the listener.
		time.Sleep(100 * time.Millisecond)
		baseURL = "http://" + internalAddr
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
