// Package services contains the HTTP handlers of the web layer: the OAuth
// flow and the report trigger. The handlers surface terminal outcomes
// only; detailed reasons go to the logs.
package services

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/webex-cdr-support/internal/config"
	"github.com/example/webex-cdr-support/internal/report"
	"github.com/example/webex-cdr-support/internal/token"
)

type Service struct {
	providers *config.Providers
	log       *logrus.Entry

	// runLock serializes report runs: one poll sequence per run, and one
	// run per operator session.
	runLock sync.Mutex
}

func New(providers *config.Providers) *Service {
	return &Service{
		providers: providers,
		log:       logrus.WithField("component", "http"),
	}
}

// Register adds all handlers to the mux.
func (svc *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", svc.Home)
	mux.HandleFunc("/index", svc.Home)
	mux.HandleFunc("/login", svc.Login)
	mux.HandleFunc("/start_oauth", svc.StartOAuth)
	mux.HandleFunc("/callback", svc.Callback)
	mux.HandleFunc("/refresh_token", svc.RefreshToken)
	mux.HandleFunc("/run_report", svc.RunReport)
	mux.HandleFunc("/complete", svc.Complete)
	mux.HandleFunc("/oauth_success", svc.OAuthSuccess)
	mux.HandleFunc("/healthz", svc.Healthz)
}

func (svc *Service) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index" {
		http.NotFound(w, r)
		return
	}

	writePage(w, "CDR Reports", `<p>Webex CDR report runner.</p><p><a href="/login">Login and run a report</a></p>`)
}

func (svc *Service) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (svc *Service) Complete(w http.ResponseWriter, r *http.Request) {
	msg := `<p>Report run finished.</p>`
	if r.URL.Query().Get("status") == "no_data" {
		msg = `<p>Report run finished: no CDR data available for the configured window.</p>`
	}

	writePage(w, "Complete", msg)
}

func (svc *Service) OAuthSuccess(w http.ResponseWriter, _ *http.Request) {
	writePage(w, "Authorized", `<p>Authorization successful.</p><p><a href="/run_report">Run the report</a></p>`)
}

// RunReport executes one orchestrator run synchronously and redirects
// based on the terminal outcome.
func (svc *Service) RunReport(w http.ResponseWriter, r *http.Request) {
	current, err := svc.providers.Tokens.Current()
	if err != nil || current == nil || current.RefreshExpired() {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if !svc.runLock.TryLock() {
		http.Error(w, "a report run is already in progress", http.StatusConflict)
		return
	}
	defer svc.runLock.Unlock()

	orchestrator := svc.providers.NewOrchestrator(nil, report.ProgressFunc(func(status report.Status, elapsed time.Duration) {
		svc.log.Infof("waiting for report to complete, current status: %s (elapsed %s)", status, elapsed.Round(time.Second))
	}))

	outcome := orchestrator.Run(r.Context())

	switch outcome.Code {
	case report.OutcomeCompleted:
		http.Redirect(w, r, "/complete", http.StatusFound)

	case report.OutcomeNoData:
		http.Redirect(w, r, "/complete?status=no_data", http.StatusFound)

	case report.OutcomeQuotaExceeded:
		http.Error(w, "stored report quota exceeded, free capacity and retry", http.StatusConflict)

	default:
		if errors.Is(outcome.Err, token.ErrNotAuthorized) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		http.Error(w, "report run failed, see server logs", http.StatusInternalServerError)
	}
}

func writePage(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1>%s</body></html>`, title, title, body)
}
