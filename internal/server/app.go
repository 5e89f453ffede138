// Package server wires the account service together: storage, mailer,
// token issuer and the HTTP and gRPC transports, and runs them until
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/testmart/internal/common"
	"github.com/dmitrijs2005/testmart/internal/logging"
	"github.com/dmitrijs2005/testmart/internal/server/auth"
	"github.com/dmitrijs2005/testmart/internal/server/config"
	"github.com/dmitrijs2005/testmart/internal/server/confirm"
	"github.com/dmitrijs2005/testmart/internal/server/httpapi"
	"github.com/dmitrijs2005/testmart/internal/server/notify"
	"github.com/dmitrijs2005/testmart/internal/server/passwords"
	"github.com/dmitrijs2005/testmart/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/testmart/internal/server/services"

	gs "github.com/dmitrijs2005/testmart/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	accounts    *services.AccountService
}

// NewApp builds every component from a validated configuration.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		Secret:   []byte(c.SecretKey),
		Issuer:   c.Issuer,
		Audience: c.Audience,
		Expiry:   c.AccessTokenValidityDuration,
	}, nil)
	if err != nil {
		return nil, err
	}

	codec, err := confirm.NewCodec([]byte(c.ConfirmationSecret), c.ConfirmationTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	hasher, err := passwords.NewHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	rm, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	accounts := services.NewAccountService(rm, hasher, issuer, codec, notifier, c, logger)

	return &App{config: c, logger: logger, repomanager: rm, issuer: issuer, accounts: accounts}, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageKind {
	case config.StorageMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	case config.StoragePostgres:
		return repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	default:
		return nil, fmt.Errorf("%w: unknown storage %q", common.ErrorConfiguration, c.StorageKind)
	}
}

func newNotifier(ctx context.Context, c *config.Config, logger logging.Logger) (notify.Notifier, error) {
	switch c.MailerKind {
	case config.MailerNone:
		return notify.NewNop(logger), nil
	case config.MailerSMTP:
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.MailFrom,
		}), nil
	case config.MailerS3:
		return notify.NewS3Outbox(ctx, notify.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			From:         c.MailFrom,
		})
	default:
		return nil, fmt.Errorf("%w: unknown mailer %q", common.ErrorConfiguration, c.MailerKind)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run migrates the schema, then serves HTTP and gRPC until ctx is done, a
// signal arrives or either server fails.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageKind, "mailer", app.config.MailerKind)

	if err := app.repomanager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	httpSrv := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.accounts, app.issuer, app.config.RateLimit)
	grpcSrv := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accounts, app.issuer)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	run("http", httpSrv.Run)
	run("grpc", grpcSrv.Run)

	wg.Wait()

	if err := app.repomanager.Close(); err != nil {
		errs = append(errs, err)
	}

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return errors.Join(errs...)
}
