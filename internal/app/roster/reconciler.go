package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/time/rate"

	"github.com/dkeye/steward/internal/clock"
	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

const DefaultInterval = time.Minute

var ErrCycleInProgress = errors.New("reconciliation already running")

type Settings struct {
	GuildID      domain.GuildID
	MemberRole   domain.RoleID
	VisitorRole  domain.RoleID
	AdminChannel domain.ChannelID
	Interval     time.Duration
	Retry        core.RetryPolicy
	// RatePerSecond paces member updates. Zero or less means unpaced.
	RatePerSecond float64
}

// Report summarises one reconciliation cycle.
type Report struct {
	Cycle     string    `json:"cycle"`
	Started   time.Time `json:"started"`
	Entries   int       `json:"entries"`
	Confirmed int       `json:"confirmed"`
	NotFound  int       `json:"not_found"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
}

// Reconciler periodically pulls the roster and confirms every listed
// member: grant the member role, drop the visitor role, apply the desired
// nickname. Members already holding the member role are left alone, so a
// cycle over an unchanged roster makes no changes.
type Reconciler struct {
	provider Provider
	gw       Gateway
	settings Settings
	notifier core.Notifier
	clock    clock.Clock
	limiter  *rate.Limiter

	running sync.Mutex
}

func NewReconciler(provider Provider, gw Gateway, settings Settings, notifier core.Notifier, clk clock.Clock) *Reconciler {
	if settings.Interval <= 0 {
		settings.Interval = DefaultInterval
	}
	if settings.Retry == (core.RetryPolicy{}) {
		settings.Retry = core.DefaultRetryPolicy()
	}
	if notifier == nil {
		notifier = core.NopNotifier{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	limit := rate.Inf
	if settings.RatePerSecond > 0 {
		limit = rate.Limit(settings.RatePerSecond)
	}
	return &Reconciler{
		provider: provider,
		gw:       gw,
		settings: settings,
		notifier: notifier,
		clock:    clk,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Run reconciles once immediately and then on every interval until ctx is
// done. Failed cycles are reported and skipped; they never stop the loop.
func (r *Reconciler) Run(ctx context.Context) error {
	log.Info().Str("module", "app.roster").Dur("interval", r.settings.Interval).Msg("roster loop started")
	r.runCycle(ctx)

	ticker := r.clock.NewTicker(r.settings.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.roster").Msg("roster loop stopped")
			return nil
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

func (r *Reconciler) runCycle(ctx context.Context) {
	var pc panics.Catcher
	pc.Try(func() {
		_, err := r.Reconcile(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrCycleInProgress):
			log.Debug().Str("module", "app.roster").Msg("cycle skipped, previous still running")
		case ctx.Err() != nil:
		default:
			r.reportFailure(ctx, err)
		}
	})
	if rec := pc.Recovered(); rec != nil {
		r.reportFailure(ctx, rec.AsError())
	}
}

func (r *Reconciler) reportFailure(ctx context.Context, err error) {
	log.Error().Err(err).Str("module", "app.roster").Bool("fatal", core.IsFatal(err)).Msg("roster cycle failed")
	r.notifier.Notify(core.AuditEvent{
		Type:   core.AuditRosterCycleError,
		At:     r.clock.Now(),
		Fields: map[string]string{"error": err.Error()},
	})

	if r.settings.AdminChannel == "" {
		return
	}
	text := fmt.Sprintf("Roster sync skipped this cycle: %v", err)
	if core.IsFatal(err) {
		text = fmt.Sprintf("Roster sync aborted and needs attention: %v", err)
	}
	if _, err := r.gw.SendMessage(ctx, r.settings.AdminChannel, text); err != nil {
		log.Error().Err(err).Str("module", "app.roster").Msg("failed to alert admin channel")
	}
}

// Reconcile runs one cycle. A non-transient roster error is returned as
// is; exhausting the retry budget returns an error wrapping
// core.ErrRetriesExhausted. Per-entry problems never fail the cycle.
func (r *Reconciler) Reconcile(ctx context.Context) (Report, error) {
	if !r.running.TryLock() {
		return Report{}, ErrCycleInProgress
	}
	defer r.running.Unlock()

	report := Report{Cycle: uuid.NewString(), Started: r.clock.Now()}
	logger := log.With().Str("module", "app.roster").Str("cycle", report.Cycle).Logger()

	var entries []domain.RosterEntry
	err := r.settings.Retry.Do(ctx, r.clock, func(ctx context.Context) error {
		var err error
		entries, err = r.provider.FetchAll(ctx)
		return err
	}, func(attempt int, wait time.Duration, err error) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("roster fetch failed, retrying")
	})
	if err != nil {
		return report, fmt.Errorf("fetch roster: %w", err)
	}
	report.Entries = len(entries)

	members, err := r.gw.ListMembers(ctx, r.settings.GuildID)
	if err != nil {
		return report, fmt.Errorf("list members: %w", err)
	}
	index := make(map[string][]domain.Member, len(members))
	for _, m := range members {
		if m.Bot {
			continue
		}
		key := domain.NormalizeHandle(m.Handle())
		index[key] = append(index[key], m)
	}

	confirmed := make(map[domain.UserID]bool)
	for i, entry := range entries {
		handle := strings.TrimSpace(entry.Handle)
		if handle == "" {
			logger.Warn().Int("row", i).Msg("roster entry missing handle, skipping")
			report.Skipped++
			continue
		}

		matches := index[domain.NormalizeHandle(handle)]
		switch {
		case len(matches) == 0:
			logger.Warn().Str("handle", handle).Msg("member not found")
			report.NotFound++
			continue
		case len(matches) > 1:
			logger.Warn().Str("handle", handle).Int("matches", len(matches)).Msg("handle is ambiguous, skipping")
			report.Skipped++
			continue
		}

		member := matches[0]
		if confirmed[member.ID] || member.HasRole(r.settings.MemberRole) {
			continue
		}
		if err := r.confirm(ctx, logger, member, strings.TrimSpace(entry.DisplayName)); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			continue
		}
		confirmed[member.ID] = true
		report.Confirmed++
	}

	logger.Info().
		Int("entries", report.Entries).
		Int("confirmed", report.Confirmed).
		Int("not_found", report.NotFound).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("roster reconciled")
	return report, nil
}

// confirm fails only when the member role cannot be granted; the visitor
// revoke and nickname are best-effort.
func (r *Reconciler) confirm(ctx context.Context, logger zerolog.Logger, member domain.Member, nick string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	user := string(member.ID)

	if err := r.gw.AddRole(ctx, r.settings.GuildID, member.ID, r.settings.MemberRole); err != nil {
		logger.Error().Err(err).Str("user", user).Msg("failed to grant member role")
		return err
	}
	if r.settings.VisitorRole != "" {
		if err := r.gw.RemoveRole(ctx, r.settings.GuildID, member.ID, r.settings.VisitorRole); err != nil {
			logger.Error().Err(err).Str("user", user).Msg("failed to revoke visitor role")
		}
	}
	if nick != "" {
		if err := r.gw.SetNickname(ctx, r.settings.GuildID, member.ID, nick); err != nil {
			logger.Error().Err(err).Str("user", user).Str("nick", nick).Msg("failed to set nickname")
		}
	}

	logger.Info().Str("user", user).Str("handle", member.Handle()).Msg("member confirmed")
	r.notifier.Notify(core.AuditEvent{
		Type:   core.AuditRosterConfirmed,
		At:     r.clock.Now(),
		User:   member.ID,
		Fields: map[string]string{"handle": member.Handle(), "nick": nick},
	})
	return nil
}
