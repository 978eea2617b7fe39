package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/keep/internal/env"
	"github.com/luma/keep/storage"
	"github.com/luma/keep/transport"
)

var (
	// The host to listen on
	serveHost string

	// The port to listen for http requests on
	serveHTTPPort string

	// The port to listen for backup clients on
	servePort int
)

func init() {
	flags := ServeCmd.PersistentFlags()

	flags.IntVarP(&servePort, "port", "p", 7363, "The port to listen for client connections on")
	flags.StringVar(&serveHTTPPort, "http-port", "7362", "The port to listen to HTTP requests on")
	flags.StringVarP(&serveHost, "host", "a", "0.0.0.0", "The host to listen on")
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a keep backup server",
	Long: `Start a keep backup server

The server holds backed up files in memory, keyed by the client's user
id, and answers the same four operations the client sends: backup,
restore, delete, and list. An HTTP surface exposes /ping and /stats.

Usage
	keep serve

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		log, err := env.MakeLogger()
		if err != nil {
			return err
		}

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		store := storage.NewInmemoryStore()
		defer store.Close()

		router := setupRouter(conf.DebugHTTP, log)

		// Ping test
		router.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		router.GET("/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, store.Stats())
		})

		s := &http.Server{
			Addr:    net.JoinHostPort(serveHost, serveHTTPPort),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		tcp := transport.NewTCP(transport.Options{
			Host:      serveHost,
			Port:      servePort,
			Reuseport: true,
			Store:     store,
			Log:       log.Named("transport"),
		})

		if err := tcp.Start(ctx); err != nil {
			return err
		}

		log.Info("Listening",
			zap.String("host", serveHost),
			zap.Int("port", servePort),
			zap.String("httpPort", serveHTTPPort))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(ctx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		if err := tcp.Close(); err != nil {
			log.Error("TCP server forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}

func setFileLimit() (uint64, error) {
	var rLimit syscall.Rlimit

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
