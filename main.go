package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/example/webex-cdr-support/internal/config"
	"github.com/example/webex-cdr-support/internal/metrics"
	"github.com/example/webex-cdr-support/internal/services"
	"github.com/example/webex-cdr-support/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfgFilePath string
	if len(os.Args) > 1 {
		cfgFilePath = os.Args[1]
	}

	cfg, err := config.LoadConfig(ctx, cfgFilePath)
	if err != nil {
		logrus.Fatalf("failed to load configuration: %s", err)
	}
	logrus.Infof("configuration loaded successfully")

	providers, err := config.NewProviders(ctx, *cfg)
	if err != nil {
		logrus.Fatalf("failed to prepare providers: %s", err)
	}
	logrus.Infof("application providers prepared successfully")

	// Prepare our servemux and add handlers.
	serveMux := http.NewServeMux()

	svc := services.New(providers)
	svc.Register(serveMux)

	serveMux.Handle("/metrics", metrics.Handler())

	loggingHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logrus.Infof("received request: %s %s%s", r.Method, r.Host, r.URL.String())

			next.ServeHTTP(w, r)
		})
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: loggingHandler(serveMux),

		// the report trigger blocks for up to the poll ceiling.
		WriteTimeout: cfg.PollTimeout + time.Minute,
		ReadTimeout:  time.Minute,
	}

	worker.StartQuotaWatcher(ctx, providers)

	logrus.Infof("HTTP server prepared successfully, starting to listen on %s ...", cfg.ListenAddress)

	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	grp.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := grp.Wait(); err != nil {
		logrus.Fatalf("failed to serve: %s", err)
	}
}
