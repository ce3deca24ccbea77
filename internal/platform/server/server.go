package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/ogurasousui/codex-timesheet-api/internal/platform/config"
)

// ServiceName は gRPC ヘルスチェックで公開するサービス名です。
const ServiceName = "timesheet"

// Server は REST API と gRPC ヘルスチェックのライフサイクルを管理します。
type Server struct {
	httpServer      *http.Server
	grpcServer      *grpc.Server
	health          *health.Server
	healthAddr      string
	shutdownTimeout time.Duration
	log             zerolog.Logger
}

// New は REST ハンドラとヘルスチェックサーバーを構築します。
// ヘルスチェックは Run で待ち受けを開始するまで NOT_SERVING を返します。
func New(cfg config.ServerConfig, handler http.Handler, log zerolog.Logger, opts ...grpc.ServerOption) *Server {
	grpcServer := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		grpcServer:      grpcServer,
		health:          healthServer,
		healthAddr:      cfg.HealthAddr,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
	}
}

// Run は両方のサーバーを起動し、コンテキストがキャンセルされると停止します。
// いずれかのサーバーが異常終了した場合はもう一方も停止してエラーを返します。
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}

	errCh := make(chan error, 2)
	running := 1

	if s.healthAddr != "" {
		grpcLis, err := net.Listen("tcp", s.healthAddr)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen on %s: %w", s.healthAddr, err)
		}
		running++
		go func() {
			if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("serve gRPC: %w", err)
				return
			}
			errCh <- nil
		}()
		s.log.Info().Str("addr", grpcLis.Addr().String()).Msg("gRPC health server listening")
	}

	go func() {
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve HTTP: %w", err)
			return
		}
		errCh <- nil
	}()
	s.log.Info().Str("addr", httpLis.Addr().String()).Msg("HTTP server listening")

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		running--
	}

	shutdownErr := s.shutdown()
	for ; running > 0; running-- {
		if err := <-errCh; err != nil && runErr == nil {
			runErr = err
		}
	}

	return errors.Join(runErr, shutdownErr)
}

// shutdown はヘルスチェックを NOT_SERVING にしてから各サーバーを安全に停止します。
func (s *Server) shutdown() error {
	s.health.Shutdown()
	s.log.Info().Msg("shutting down servers")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var err error
	if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
		err = fmt.Errorf("shutdown HTTP: %w", shutdownErr)
	}
	s.grpcServer.GracefulStop()
	return err
}

// Health はヘルスチェックサーバーを返します。
func (s *Server) Health() *health.Server {
	return s.health
}
