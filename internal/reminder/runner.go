package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"health-reminder-api/internal/mail"
	"health-reminder-api/internal/metrics"
	"health-reminder-api/internal/model"
)

const DefaultSendTimeout = 30 * time.Second

// UserLister yields the recipients of a run.
type UserLister interface {
	ListActiveUsers(ctx context.Context) ([]model.User, error)
}

type RunnerDeps struct {
	Users       UserLister
	Evaluator   *Evaluator
	Renderer    *Renderer
	Transport   mail.Transport
	Metrics     *metrics.Metrics
	Log         zerolog.Logger
	SendTimeout time.Duration
	Clock       func() time.Time
}

// Runner is the daily batch: one digest per active user with something due.
type Runner struct {
	users   UserLister
	eval    *Evaluator
	render  *Renderer
	mail    mail.Transport
	metrics *metrics.Metrics
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewRunner(d RunnerDeps) *Runner {
	r := &Runner{
		users:   d.Users,
		eval:    d.Evaluator,
		render:  d.Renderer,
		mail:    d.Transport,
		metrics: d.Metrics,
		log:     d.Log.With().Str("component", "reminder-runner").Logger(),
		timeout: d.SendTimeout,
		now:     d.Clock,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultSendTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	return r
}

type runStats struct {
	sent, skipped, failed int
}

// Run processes every active user once. Failures are per user: they are
// logged and counted, and the loop moves on. Nothing is returned; a failed
// send is picked up again by the next scheduled run.
func (r *Runner) Run(ctx context.Context) {
	now := r.now()
	log := r.log.With().Str("run_id", uuid.New().String()).Logger()
	log.Info().Time("as_of", now).Msg("daily reminder run started")

	users, err := r.users.ListActiveUsers(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not list active users, run aborted")
		r.metrics.Runs.WithLabelValues("aborted").Inc()
		return
	}

	var st runStats
	for _, u := range users {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("remaining", len(users)-st.sent-st.skipped-st.failed).Msg("run cancelled")
			break
		}
		outcome := r.remind(ctx, log, u, now)
		r.metrics.Reminders.WithLabelValues(outcome).Inc()
		switch outcome {
		case metrics.OutcomeSent:
			st.sent++
		case metrics.OutcomeSkipped:
			st.skipped++
		default:
			st.failed++
		}
	}

	elapsed := r.now().Sub(now)
	r.metrics.RunDuration.Observe(elapsed.Seconds())
	r.metrics.Runs.WithLabelValues("completed").Inc()
	log.Info().
		Int("users", len(users)).
		Int("sent", st.sent).
		Int("skipped", st.skipped).
		Int("failed", st.failed).
		Dur("elapsed", elapsed).
		Msg("daily reminder run finished")
}

func (r *Runner) remind(ctx context.Context, log zerolog.Logger, u model.User, now time.Time) string {
	log = log.With().Str("user_id", u.ID).Logger()

	due, err := r.eval.DueToday(ctx, u.ID, now)
	if err != nil {
		log.Error().Err(err).Msg("evaluate reminders")
		return metrics.OutcomeStoreFailure
	}
	if due.Empty() {
		return metrics.OutcomeSkipped
	}

	d, err := r.render.Render(u.DisplayName(), due, now)
	if err != nil {
		log.Error().Err(err).Msg("render digest")
		return metrics.OutcomeRenderFailure
	}

	sendCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	err = r.mail.Send(sendCtx, mail.Message{To: u.Email, Subject: d.Subject, HTML: d.HTML, Text: d.Text})
	if err != nil {
		ev := log.Error()
		if errors.Is(err, mail.ErrNotConfigured) {
			ev = log.Warn()
		}
		ev.Err(err).Str("recipient", u.Email).Msg("reminder email not sent")
		return metrics.OutcomeTransportFailure
	}

	log.Debug().
		Str("recipient", u.Email).
		Int("medications", len(due.Medications)).
		Int("appointments", len(due.Appointments)).
		Msg("reminder email sent")
	return metrics.OutcomeSent
}
