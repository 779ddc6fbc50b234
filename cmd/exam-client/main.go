package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"examclient/internal/actionlog"
	"examclient/internal/archive"
	"examclient/internal/cli/repl"
	commonmw "examclient/internal/common/http/middleware"
	"examclient/internal/judge/controller"
	"examclient/internal/judge/sandbox"
	"examclient/internal/judge/sandbox/engine"
	"examclient/internal/judge/sandbox/observer"
	"examclient/internal/judge/sandbox/profile"
	"examclient/internal/judge/sandbox/runner"
	"examclient/internal/judge/service"
	"examclient/internal/netinfo"
	"examclient/internal/notify"
	"examclient/internal/remote"
	"examclient/internal/store"
	"examclient/internal/syncer"
	"examclient/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/exam_client.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	examPath := flag.String("exam", "", "Override exam config.json path")
	addr := flag.String("addr", "", "Override control API listen address")
	remoteHost := flag.String("remote", "", "Override grading server URL")
	console := flag.Bool("console", false, "Start the interactive console")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath, *configPath != defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}
	if *examPath != "" {
		appCfg.Exam.LocalPath = *examPath
	}
	if *addr != "" {
		appCfg.Server.Addr = *addr
	}
	if *remoteHost != "" {
		appCfg.Remote.Host = *remoteHost
	}
	if *console {
		appCfg.Console.Enabled = true
	}

	forwarder := actionlog.NewForwarder()
	if err := logger.Init(appCfg.Logger, forwarder.Core()); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New()
	mac := appCfg.MACAddress
	if mac == "" {
		mac = netinfo.PrimaryMAC()
	}
	st.SetMACAddress(mac)

	client := remote.New(appCfg.Remote.Host, appCfg.Remote.Timeout)
	spool, err := archive.NewSpool(appCfg.Judge.SpoolDir)
	if err != nil {
		logger.Error(ctx, "init submission spool failed", zap.Error(err))
		return
	}
	defer func() {
		_ = spool.Clear()
	}()

	coordinator := syncer.New(appCfg.Sync, client, st, spool)
	forwarder.Bind(coordinator)

	var uiOrigins []string
	if appCfg.Server.CORS.Enabled {
		uiOrigins = appCfg.Server.CORS.AllowedOrigins
	}
	hub := notify.NewHub(uiOrigins...)
	st.OnAvailabilityChange(hub.AvailabilityChanged)
	hub.AvailabilityChanged(st.Availability())

	languages := append([]profile.LanguageSpec{profile.DefaultPython()}, appCfg.Language.Languages...)
	registry := profile.NewRegistry(languages...)
	jobRunner := runner.NewRunnerWithObserver(engine.NewEngine(appCfg.Engine), observer.LogRecorder{})
	worker := sandbox.NewWorker(jobRunner, registry)
	worker.SetProgressReporter(hub)

	judgeSvc, err := service.NewService(service.Config{
		Worker:           worker,
		Store:            st,
		Syncer:           coordinator,
		Spool:            spool,
		Remote:           client,
		WorkRoot:         appCfg.Judge.WorkRoot,
		DefaultTimeLimit: appCfg.Judge.DefaultTimeLimit,
		SyncTimeout:      appCfg.Judge.SyncTimeout,
	})
	if err != nil {
		logger.Error(ctx, "init judge service failed", zap.Error(err))
		return
	}

	if err := judgeSvc.Bootstrap(ctx, appCfg.Exam.LocalPath); err != nil {
		logger.Warn(ctx, "exam config bootstrap failed", zap.Error(err))
	}
	if appCfg.Remote.Host != "" {
		client.SetBaseURL(appCfg.Remote.Host)
	}
	coordinator.Start(ctx)
	defer coordinator.Stop()
	threading.GoSafe(func() {
		judgeSvc.Recheck(ctx)
	})

	httpServer := buildHTTPServer(appCfg.Server, judgeSvc, hub, st)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(ctx, "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "control api started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	consoleDone := make(chan struct{})
	if appCfg.Console.Enabled {
		go func() {
			defer close(consoleDone)
			if err := repl.Run(ctx, judgeSvc, appCfg.Console.HistoryFile); err != nil {
				logger.Error(ctx, "console stopped", zap.Error(err))
			}
		}()
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", zap.Error(err))
		}
	case <-consoleDone:
		logger.Info(ctx, "console closed")
	case <-ctx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	judgeSvc.ForceStop(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "http server shutdown failed", zap.Error(err))
	}
	if coordinator.HasPendingWork() {
		coordinator.Recheck(shutdownCtx)
	}
}

func buildHTTPServer(cfg ServerConfig, svc controller.ExamService, hub *notify.Hub, st *store.Store) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.CORSMiddleware(cfg.CORS))
	router.Use(commonmw.TraceContextMiddlewareWithConfig(commonmw.TraceContextConfig{
		StudentID: func() string { return st.Student().Info.ID },
	}))
	router.Use(commonmw.RequestLogger())

	controller.Register(router, svc, hub)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
