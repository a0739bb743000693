// Package launcher is the Telegram bot that hands users the Mini App button.
package launcher

import (
	"errors"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"
)

const (
	DefaultGreeting   = "Добро пожаловать! Жми кнопку ниже:"
	DefaultButtonText = "Открыть приложение"
)

type Config struct {
	Token       string
	WebAppURL   string
	PollTimeout time.Duration
	Greeting    string
	ButtonText  string
}

type Launcher struct {
	bot    *tele.Bot
	cfg    Config
	logger zerolog.Logger
}

// New connects to the Bot API and registers the /start handler.
func New(cfg Config, logger zerolog.Logger) (*Launcher, error) {
	if cfg.Token == "" {
		return nil, errors.New("launcher: bot token is required")
	}
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	if cfg.ButtonText == "" {
		cfg.ButtonText = DefaultButtonText
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Second
	}

	l := &Launcher{cfg: cfg, logger: logger}
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
		OnError: func(err error, c tele.Context) {
			event := logger.Error().Err(err)
			if c != nil && c.Sender() != nil {
				event = event.Int64("tg_id", c.Sender().ID)
			}
			event.Msg("Bot handler failed")
		},
	})
	if err != nil {
		return nil, err
	}

	l.bot = bot
	bot.Use(l.recover)
	bot.Handle("/start", l.HandleStart)
	return l, nil
}

// Start polls for updates until Stop is called.
func (l *Launcher) Start() {
	l.logger.Info().
		Str("username", l.bot.Me.Username).
		Dur("poll_timeout", l.cfg.PollTimeout).
		Msg("Launcher bot polling")
	l.bot.Start()
}

func (l *Launcher) Stop() {
	l.bot.Stop()
}

// HandleStart answers /start with the Mini App keyboard.
func (l *Launcher) HandleStart(c tele.Context) error {
	if sender := c.Sender(); sender != nil {
		l.logger.Info().
			Int64("tg_id", sender.ID).
			Str("username", sender.Username).
			Msg("Start command")
	}
	return c.Send(l.cfg.Greeting, StartMarkup(l.cfg.ButtonText, l.cfg.WebAppURL))
}

func (l *Launcher) recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error().
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")
				err = errors.New("launcher: handler panicked")
			}
		}()
		return next(c)
	}
}

// StartMarkup is a resized reply keyboard with one button opening the Mini App.
func StartMarkup(text, webAppURL string) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{
		ResizeKeyboard: true,
		ReplyKeyboard: [][]tele.ReplyButton{
			{{Text: text, WebApp: &tele.WebApp{URL: webAppURL}}},
		},
	}
}
