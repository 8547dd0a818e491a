package main

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/adapters/generator"
	"kelvinbot/internal/adapters/handler"
	"kelvinbot/internal/adapters/secrets"
	"kelvinbot/internal/adapters/sender"
	"kelvinbot/internal/adapters/weather"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/domain/command"
	"kelvinbot/internal/core/port"
	"kelvinbot/internal/core/service"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// backends are shared by every gateway.
type backends struct {
	tokens    *secrets.Store
	generator *generator.DeepSeek
	weather   *weather.OpenWeather
}

// stack is the per-gateway dispatch pipeline.
type stack struct {
	engine  *service.TimerEngine
	command *handler.Command
}

func run(ctx context.Context) error {
	tokens, err := secrets.Load(viper.GetString("bot.secrets_file"))
	if err != nil {
		return fmt.Errorf("could not load secrets: %w", err)
	}

	b := &backends{
		tokens: tokens,
		generator: generator.NewDeepSeek(generator.DeepSeekParams{
			Tokens:      tokens,
			BaseURL:     viper.GetString("chat.base_url"),
			ChatModel:   viper.GetString("chat.chat_model"),
			ReasonModel: viper.GetString("chat.reason_model"),
		}),
		weather: weather.NewOpenWeather(
			viper.GetString("weather.geo_url"),
			viper.GetString("weather.weather_url"),
			&http.Client{Timeout: 30 * time.Second}),
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, name := range viper.GetStringSlice("bot.gateways") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "discord":
			g.Go(func() error { return runDiscord(gctx, b) })
		case "telegram":
			g.Go(func() error { return runTelegram(gctx, b) })
		case "matrix":
			g.Go(func() error { return runMatrix(gctx, b) })
		default:
			return fmt.Errorf("unknown gateway %q", name)
		}
	}

	err = g.Wait()
	log.Info().Msg("all gateways stopped")
	return err
}

func newStack(ctx context.Context, name string, gw port.Gateway, b *backends) (*stack, error) {
	prefix := viper.GetString("bot.prefix")
	placeholder := viper.GetString("reply.placeholder")

	replier := service.NewReplier(service.ReplierParams{
		Gateway:      gw,
		SegmentLimit: viper.GetInt("reply.segment_limit"),
		MaxSegments:  viper.GetInt("reply.max_segments"),
		Placeholder:  placeholder,
	})

	engine := service.NewTimerEngine(ctx, service.TimerEngineParams{
		Replier: replier,
		Gateway: gw,
	})

	registry := &command.Registry{}
	registry.Register(command.NewHelp(command.HelpParams{Replier: replier, Prefix: prefix}))
	registry.Register(command.NewNoOp(replier))
	registry.Register(command.NewPinnedNoOp(replier))
	registry.Register(command.NewTimer(command.TimerParams{Replier: replier, Engine: engine}))

	weatherParams := command.WeatherParams{
		Replier:     replier,
		Provider:    b.weather,
		Tokens:      b.tokens,
		ZipCode:     viper.GetString("weather.zip_code"),
		CountryCode: viper.GetString("weather.country_code"),
		Units:       domain.Units(viper.GetString("weather.units")),
	}

	weatherHandler, err := command.NewWeather(weatherParams)
	if err != nil {
		return nil, fmt.Errorf("failed initializing weather handler: %w", err)
	}
	registry.Register(weatherHandler)

	geoHandler, err := command.NewGeo(weatherParams)
	if err != nil {
		return nil, fmt.Errorf("failed initializing geo handler: %w", err)
	}
	registry.Register(geoHandler)

	for _, action := range []domain.Action{domain.ActionChat, domain.ActionReason} {
		chatHandler, err := command.NewChat(command.ChatParams{
			Replier:       replier,
			TextGenerator: b.generator,
			History:       gw,
			Action:        action,
			HistorySize:   viper.GetInt("chat.history_size"),
			StripMarkdown: viper.GetBool("chat.strip_markdown"),
			Placeholder:   placeholder,
		})
		if err != nil {
			return nil, fmt.Errorf("failed initializing %s handler: %w", action, err)
		}
		registry.Register(chatHandler)
	}

	dispatcher, err := service.NewDispatcher(service.DispatcherParams{
		Gateway:          gw,
		Registry:         registry,
		Prefix:           prefix,
		PinnedDirectives: viper.GetBool("bot.pinned_directives"),
		Timeout:          viper.GetDuration("handler.timeout"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed initializing dispatcher: %w", err)
	}

	return &stack{
		engine: engine,
		command: handler.NewCommand(ctx, handler.CommandParams{
			Gateway:    name,
			Dispatcher: dispatcher,
			Workers:    viper.GetInt("bot.workers"),
		}),
	}, nil
}

// stop drains queued messages before cancelling pending timers.
func (s *stack) stop() {
	s.command.Stop()
	s.engine.Stop()
	s.engine.Wait()
}

func runDiscord(ctx context.Context, b *backends) error {
	token, err := b.tokens.Get(domain.DiscordToken)
	if err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed initializing discord session: %w", err)
	}

	gw := sender.NewDiscordSender(session)

	st, err := newStack(ctx, "discord", gw, b)
	if err != nil {
		return err
	}
	defer st.stop()

	h := handler.NewDiscord(st.command, gw)
	session.AddHandler(h.Ready)
	session.AddHandler(h.MessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	if err := session.Open(); err != nil {
		return fmt.Errorf("could not connect to discord: %w", err)
	}
	defer session.Close()

	log.Info().Str("gateway", "discord").Msg("bot listening")
	<-ctx.Done()

	return nil
}

func runTelegram(ctx context.Context, b *backends) error {
	token, err := b.tokens.Get(domain.TelegramToken)
	if err != nil {
		return err
	}

	var h *handler.Telegram
	tg, err := bot.New(token, bot.WithDefaultHandler(func(ctx context.Context, tg *bot.Bot, update *models.Update) {
		h.Handle(ctx, tg, update)
	}))
	if err != nil {
		return fmt.Errorf("failed initializing telegram bot: %w", err)
	}

	gw := sender.NewTelegramSender(tg, viper.GetInt("telegram.history_size"))

	me, err := tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch telegram bot user: %w", err)
	}
	gw.SetSelf(me)

	st, err := newStack(ctx, "telegram", gw, b)
	if err != nil {
		return err
	}
	defer st.stop()

	h = handler.NewTelegram(st.command, gw)

	log.Info().Str("gateway", "telegram").Str("username", me.Username).Msg("bot listening")
	tg.Start(ctx)

	return nil
}

func runMatrix(ctx context.Context, b *backends) error {
	token, err := b.tokens.Get(domain.MatrixToken)
	if err != nil {
		return err
	}

	homeserver := viper.GetString("matrix.homeserver")
	userID := id.UserID(viper.GetString("matrix.user_id"))
	if homeserver == "" || userID == "" {
		return errors.New("matrix.homeserver and matrix.user_id must be set")
	}

	client, err := mautrix.NewClient(homeserver, userID, token)
	if err != nil {
		return fmt.Errorf("failed initializing matrix client: %w", err)
	}

	gw := sender.NewMatrixSender(client, userID)

	st, err := newStack(ctx, "matrix", gw, b)
	if err != nil {
		return err
	}
	defer st.stop()

	var rooms []id.RoomID
	for _, room := range viper.GetStringSlice("matrix.rooms") {
		roomID := id.RoomID(room)
		if _, err := client.JoinRoomByID(ctx, roomID); err != nil {
			return fmt.Errorf("failed to join room %s: %w", room, err)
		}
		rooms = append(rooms, roomID)
	}

	h := handler.NewMatrix(handler.MatrixParams{
		Command: st.command,
		Self:    userID,
		Rooms:   rooms,
		Since:   time.Now(),
	})

	syncer := client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, h.OnMessage)

	log.Info().Str("gateway", "matrix").Stringer("user", userID).Msg("bot listening")

	if err := client.SyncWithContext(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("matrix sync stopped: %w", err)
	}

	return nil
}
