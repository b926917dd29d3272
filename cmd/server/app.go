package main

import (
	"context"

	"health-reminder-api/internal/mail"
	"health-reminder-api/internal/metrics"
	"health-reminder-api/internal/model"
	"health-reminder-api/internal/reminder"
	"health-reminder-api/internal/store"
)

const reminderJob = "daily-reminders"

// devTips seed the memory driver, which has no migrations.
var devTips = []model.HealthTip{
	{ID: "tip-hydration", Text: "Stay hydrated by drinking plenty of water throughout the day.", Category: "General"},
	{ID: "tip-walk", Text: "A short walk after meals helps keep blood sugar steady.", Category: "Exercise"},
	{ID: "tip-sleep", Text: "Keep a regular bedtime; consistent sleep supports memory and mood.", Category: "General"},
}

// app holds the components shared by serve and remind.
type app struct {
	store   store.Repository
	mailer  mail.Transport
	metrics *metrics.Metrics
	eval    *reminder.Evaluator
	render  *reminder.Renderer
}

func newApp(ctx context.Context) (*app, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	mailer, err := mail.FromConfig(cfg, log)
	if err != nil {
		st.Close()
		return nil, err
	}
	loc := cfg.Location()
	return &app{
		store:   st,
		mailer:  mailer,
		metrics: metrics.New(),
		eval:    reminder.NewEvaluator(st, loc),
		render:  reminder.NewRenderer(loc),
	}, nil
}

func openStore(ctx context.Context) (store.Repository, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return store.NewMemory(devTips...), nil
	default:
		st, err := openPostgres(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := st.Migrate(ctx, "up", log); err != nil {
				st.Close()
				return nil, err
			}
		}
		return st, nil
	}
}

func openPostgres(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to postgres")
	return st, nil
}

func (a *app) runner() *reminder.Runner {
	return reminder.NewRunner(reminder.RunnerDeps{
		Users:       a.store,
		Evaluator:   a.eval,
		Renderer:    a.render,
		Transport:   a.mailer,
		Metrics:     a.metrics,
		Log:         log,
		SendTimeout: cfg.MailSendTimeout,
	})
}

func (a *app) Close() {
	a.store.Close()
}
