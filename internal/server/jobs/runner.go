// Package jobs runs background work with the same tenancy discipline as
// the HTTP boundary: every job body gets its own context container.
package jobs

import (
	"context"
	"time"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/strandhq/strand/internal/authz"
	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/log"
	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/store"
	"github.com/strandhq/strand/internal/tracing"
)

type Config struct {
	// SubmitTimeout bounds how long a submitted job may run on the pool.
	SubmitTimeout time.Duration `conf:"submit_timeout" yaml:"submit_timeout" json:"submit_timeout"`
}

const defaultSubmitTimeout = 5 * time.Minute

type Params struct {
	fx.In

	Config   Config
	Store    *store.Client
	Executor executors.ScheduledExecutor
}

// Runner executes job bodies against a fresh container per run. Nothing
// from the submitting request's context leaks into the job.
type Runner struct {
	config   Config
	store    *store.Client
	executor executors.ScheduledExecutor
}

func NewRunner(params Params) *Runner {
	cfg := params.Config
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = defaultSubmitTimeout
	}

	return &Runner{
		config:   cfg,
		store:    params.Store,
		executor: params.Executor,
	}
}

// Run executes fn with an empty container and a system principal. Scoped
// reads inside fn fail closed until fn installs a tenant itself.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	jobCtx := r.freshContext(ctx)
	defer contexts.Reset(jobCtx)

	return fn(jobCtx)
}

// RunForAccount resolves the account without a tenant filter, installs it
// into a fresh container and executes fn scoped to it. The container is
// cleared afterwards, panics included.
func (r *Runner) RunForAccount(ctx context.Context, accountID string, fn func(ctx context.Context) error) error {
	account, err := authz.RunWithSystemUnscoped(ctx, "job-resolve-account", func(ctx context.Context) (*model.Account, error) {
		return r.store.Accounts.GetByID(ctx, accountID)
	})
	if err != nil {
		return err
	}

	jobCtx := contexts.WithAccount(r.freshContext(ctx), account)
	defer contexts.Reset(jobCtx)

	return fn(jobCtx)
}

// Submit schedules fn on the shared pool, scoped to the account. Failures
// go to the pool's error handler.
func (r *Runner) Submit(accountID string, fn func(ctx context.Context) error) error {
	return r.executor.Execute(executors.RunnableFunc(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, r.config.SubmitTimeout)
		defer cancel()

		err := r.RunForAccount(ctx, accountID, fn)
		if err != nil {
			log.Error(ctx, "background job failed",
				log.String("account_id", accountID), log.Cause(err))
		}
	}))
}

func (r *Runner) freshContext(ctx context.Context) context.Context {
	jobCtx := contexts.WithFreshCarrier(ctx)
	jobCtx = authz.NewSystemContext(jobCtx)
	jobCtx = tracing.WithTraceID(jobCtx, tracing.GenerateTraceID())

	return jobCtx
}
