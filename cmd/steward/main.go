package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dkeye/steward/internal/adapters/discord"
	"github.com/dkeye/steward/internal/adapters/feed"
	router "github.com/dkeye/steward/internal/adapters/http"
	"github.com/dkeye/steward/internal/adapters/rosterfile"
	sheetsroster "github.com/dkeye/steward/internal/adapters/sheets"
	"github.com/dkeye/steward/internal/app/dispatch"
	"github.com/dkeye/steward/internal/app/greet"
	"github.com/dkeye/steward/internal/app/roles"
	"github.com/dkeye/steward/internal/app/roster"
	"github.com/dkeye/steward/internal/app/voice"
	"github.com/dkeye/steward/internal/clock"
	"github.com/dkeye/steward/internal/config"
	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the YAML config (default config/config.$STEWARD_ENV.yaml)")
	pflag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	path := config.ResolvePath(*configPath)
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	if err := run(ctx, cfg, path); err != nil {
		log.Fatal().Err(err).Msg("steward stopped with error")
	}
	log.Info().Msg("Steward exited gracefully")
}

func setupLogger(cfg *config.Config) {
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(ctx context.Context, cfg *config.Config, path string) error {
	guild := domain.GuildID(cfg.GuildID)
	clk := clock.Real()

	gw, err := discord.New(discord.Options{Token: cfg.Discord.Token, GuildID: guild, Presence: cfg.Presence})
	if err != nil {
		return err
	}
	hub := feed.NewHub(feed.Options{PingPeriod: cfg.HTTP.PingPeriod, ReadLimit: cfg.HTTP.ReadLimit})
	defer hub.Close()

	channels := voice.NewManager(gw, voice.Settings{
		GuildID:       guild,
		CreateChannel: domain.ChannelID(cfg.Channels.CreateVoice),
		Category:      domain.ChannelID(cfg.Channels.VoiceCategory),
		NameFormat:    cfg.Voice.NameFormat,
		CreateLimit:   cfg.Voice.CreateLimit,
		CreateWindow:  cfg.Voice.CreateWindow,
	}, hub, clk)
	engine := roles.NewEngine(gw, guild, cfg.RolePrompts(), hub, clk)
	welcomer := greet.NewWelcomer(gw, greet.Settings{
		GuildID:        guild,
		WelcomeChannel: domain.ChannelID(cfg.Channels.Welcome),
		DefaultRoles:   cfg.DefaultRoles(),
	}, hub, clk)

	provider, err := newRosterProvider(ctx, cfg)
	if err != nil {
		return err
	}
	reconciler := roster.NewReconciler(provider, gw, roster.Settings{
		GuildID:       guild,
		MemberRole:    domain.RoleID(cfg.Roles.Member),
		VisitorRole:   domain.RoleID(cfg.Roles.Visitor),
		AdminChannel:  domain.ChannelID(cfg.Channels.Admin),
		Interval:      cfg.Roster.Interval,
		Retry:         cfg.RetryPolicy(),
		RatePerSecond: cfg.Roster.RatePerSecond,
	}, hub, clk)

	dispatcher := dispatch.New()
	dispatcher.Route(dispatch.NewQueue("voice", 0, channels), core.KindVoiceState)
	dispatcher.Route(dispatch.NewQueue("roles", 0, engine), core.KindReady, core.KindReactionAdded, core.KindReactionRemoved)
	dispatcher.Route(dispatch.NewQueue("greet", 0, welcomer), core.KindMemberJoined)

	// Prompt tables hot-reload; everything else needs a restart.
	if err := config.Watch(path, func(next *config.Config) {
		for _, def := range next.RolePrompts() {
			engine.Register(def)
		}
	}); err != nil {
		log.Warn().Err(err).Str("module", "main").Msg("config hot reload disabled")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return dispatcher.Run(ctx) })

	g.Go(func() error {
		if err := gw.Open(ctx, dispatcher); err != nil {
			return err
		}
		<-ctx.Done()
		log.Info().Str("module", "main").Msg("closing discord gateway")
		return gw.Close()
	})

	g.Go(func() error { return reconciler.Run(ctx) })

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: router.SetupRouter(router.Settings{Mode: cfg.Mode, Token: cfg.HTTP.Token}, router.Deps{
				Channels: channels,
				Prompts:  engine,
				Roster:   reconciler,
				Feed:     hub,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("admin API started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin API: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	log.Info().Str("module", "main").Str("guild", cfg.GuildID).Msg("Steward started")
	return g.Wait()
}

func newRosterProvider(ctx context.Context, cfg *config.Config) (roster.Provider, error) {
	switch cfg.Roster.Source {
	case config.RosterFile:
		return rosterfile.New(cfg.Roster.File), nil
	default:
		return sheetsroster.New(ctx, sheetsroster.Options{
			SpreadsheetID: cfg.Roster.SheetID,
			Range:         cfg.Roster.SheetRange,
			HandleColumn:  cfg.Roster.HandleColumn,
			NameColumn:    cfg.Roster.NameColumn,
		},
			option.WithCredentialsJSON([]byte(cfg.Google.CredentialsJSON)),
			option.WithScopes(sheets.SpreadsheetsReadonlyScope),
		)
	}
}
