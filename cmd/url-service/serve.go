package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/umanagarjuna/linkshort/internal/url/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if count, err := a.repo.Count(ctx); err == nil {
			a.metrics.RecordGauge("urls_stored", float64(count))
		}

		if !cfg.Log.Development {
			gin.SetMode(gin.ReleaseMode)
		}

		httpHandler := handler.NewHTTPHandler(a.service, logger, a.metrics)
		httpHandler.AddHealthCheck("database", a.db.PingContext)
		if a.redis != nil {
			httpHandler.AddHealthCheck("redis", func(ctx context.Context) error {
				return a.redis.Ping(ctx).Err()
			})
		}

		srv := &http.Server{
			Addr:         cfg.Server.HTTPPort,
			Handler:      handler.NewRouter(httpHandler),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLoggingInterceptor(logger)))
		handler.NewGRPCHandler(a.service, logger).Register(grpcServer)

		lis, err := net.Listen("tcp", cfg.Server.GRPCPort)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}

		errChan := make(chan error, 2)

		go func() {
			logger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()

		go func() {
			logger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
			if err := grpcServer.Serve(lis); err != nil {
				errChan <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()

		select {
		case err = <-errChan:
			logger.Error("Server error", zap.Error(err))
		case <-ctx.Done():
			logger.Info("Received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("HTTP shutdown did not complete", zap.Error(shutdownErr))
		}
		grpcServer.GracefulStop()

		logger.Info("Server stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
