package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"dose-go/internal/api"
	"dose-go/internal/assistant"
	"dose-go/internal/config"
	"dose-go/internal/dose"
	"dose-go/internal/encryption"
	"dose-go/internal/notify"
	"dose-go/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Options carries the process-level inputs that do not come from the config file.
type Options struct {
	// Passphrase unlocks an encrypted store. It is only called when encryption is configured.
	Passphrase func() (string, error)
	// Out receives console notifications. Defaults to os.Stdout.
	Out io.Writer
	// LogConsole mirrors the log file. Defaults to os.Stderr.
	LogConsole io.Writer
	Clock      dose.Clock
	IDs        dose.IDGenerator
}

// DoseApp is the application layer between the CLI and ReminderService.
// It constructs all dependencies from config and owns their lifecycle.
type DoseApp struct {
	cfg        *config.Config
	store      dose.Store
	capability notify.Capability
	gateway    *notify.Gateway
	scheduler  *dose.Scheduler
	session    *dose.Session
	service    *dose.ReminderService
	logger     dose.Logger
	logFile    *os.File
}

// NewDoseApp creates a fully wired DoseApp from the given config.
// command names the CLI command being run and tags every log line.
// The caller must call Close when done.
func NewDoseApp(cfg *config.Config, command string, opts Options) (*DoseApp, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.LogConsole == nil {
		opts.LogConsole = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = dose.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = dose.UUIDGenerator{}
	}

	sessionID := command + "-" + time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, sessionID, cfg.LogLevel, opts.LogConsole)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	st, err := openStore(cfg, opts.Passphrase)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	records := dose.NewRecords(st, logger)
	records.Load()

	capability, err := notify.NewCapabilityFromConfig(cfg.Notifications, opts.Out, logger)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating notifications: %w", err)
	}
	gateway := notify.NewGateway(capability, logger)

	sched := cfg.Scheduler
	scheduler := dose.NewScheduler(records, gateway, opts.Clock, logger, dose.SchedulerConfig{
		MedicationPoll:    sched.MedicationPoll.Duration,
		AppointmentPoll:   sched.AppointmentPoll.Duration,
		AppointmentWindow: sched.AppointmentWindow.Duration,
	})
	reset := dose.NewDailyReset(records, scheduler, opts.Clock, logger, sched.ResetGrace.Duration)
	reset.SetMarker(resetFile{path: filepath.Join(cfg.BaseDir, "last-reset")})
	reset.CatchUp()
	session := dose.NewSession(scheduler, reset, gateway, opts.Clock, logger, sched.PermissionCheck.Duration)

	var asst *assistant.Assistant
	var advisor dose.Advisor
	if cfg.Assistant.APIKey != "" {
		client, err := assistant.NewGeminiClient(cfg.Assistant)
		if err != nil {
			st.Close()
			logFile.Close()
			return nil, fmt.Errorf("creating assistant: %w", err)
		}
		asst = assistant.New(client, logger)
		advisor = asst
	}

	svc := dose.NewReminderService(records, scheduler, advisor, opts.Clock, opts.IDs, logger)
	svc.SetMaxFileSize(cfg.Archive.MaxFileSize)
	if asst != nil {
		svc.PurgeOnDelete(asst)
	}

	return &DoseApp{
		cfg:        cfg,
		store:      st,
		capability: capability,
		gateway:    gateway,
		scheduler:  scheduler,
		session:    session,
		service:    svc,
		logger:     logger,
		logFile:    logFile,
	}, nil
}

// openStore creates the configured store, wrapped for encryption when enabled.
func openStore(cfg *config.Config, passphrase func() (string, error)) (dose.Store, error) {
	st, err := store.NewStoreFromConfig(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if enc == nil {
		return st, nil
	}
	if !enc.IsConfigured() {
		st.Close()
		return nil, errors.New("encryption keys not found: run 'dose config init --encrypt'")
	}
	if passphrase == nil {
		st.Close()
		return nil, errors.New("encrypted store needs a passphrase")
	}

	p, err := passphrase()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	dec, err := enc.Unlock(p)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("unlocking store: %w", err)
	}
	return store.NewEncryptedStore(st, enc, dec), nil
}

// InitEncryption generates the key pair named in cfg, sealed with passphrase.
func InitEncryption(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc == nil {
		return fmt.Errorf("encryption type %q has no keys to set up", cfg.Encryption.Type)
	}
	if enc.IsConfigured() {
		return errors.New("encryption keys already exist")
	}
	return enc.Setup(passphrase)
}

func (a *DoseApp) Service() *dose.ReminderService { return a.service }

func (a *DoseApp) Gateway() *notify.Gateway { return a.gateway }

func (a *DoseApp) Scheduler() *dose.Scheduler { return a.scheduler }

// Run blocks in the reminder session until ctx is canceled.
func (a *DoseApp) Run(ctx context.Context) error {
	return a.session.Run(ctx)
}

// ListenAndServe runs the reminder session and the HTTP API on the configured address.
func (a *DoseApp) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Server.Listen, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the reminder session and the HTTP API on ln until ctx is
// canceled or the server fails. The session is stopped before it returns.
func (a *DoseApp) Serve(ctx context.Context, ln net.Listener) error {
	handler := api.NewHandler(a.service, a.gateway, a.scheduler, a.logger)
	srv := &http.Server{
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessionDone := make(chan error, 1)
	go func() { sessionDone <- a.session.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	a.logger.Info("http api listening", "addr", ln.Addr().String())

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		err = fmt.Errorf("serving http: %w", err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = fmt.Errorf("shutting down http server: %w", serr)
	}

	cancel()
	if serr := <-sessionDone; serr != nil && err == nil {
		err = serr
	}
	return err
}

// Close waits for in-flight notifications, then closes the store and log file.
func (a *DoseApp) Close() error {
	if p, ok := a.capability.(*notify.PushCapability); ok {
		p.Wait()
	}
	var errs []error
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
	}
	return errors.Join(errs...)
}
