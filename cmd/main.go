package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"toncheck-telegram-bot/config"
	"toncheck-telegram-bot/internal/checker"
	"toncheck-telegram-bot/internal/matcher"
	"toncheck-telegram-bot/internal/price"
	"toncheck-telegram-bot/internal/store"
	"toncheck-telegram-bot/internal/telegram"
)

type BotMetrics struct {
	CommandsProcessed prometheus.Counter
	MessagesHandled   prometheus.Counter
}

var (
	metrics = NewBotMetrics()
)

func init() {
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	metrics := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toncheck",
			Subsystem: "telegram_bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toncheck",
			Subsystem: "telegram_bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
	}

	prometheus.MustRegister(metrics.CommandsProcessed)
	prometheus.MustRegister(metrics.MessagesHandled)

	return metrics
}

func main() {
	st, closeStore, err := newStore()
	if err != nil {
		log.Fatalf("Failed to open alert store: %v", err)
	}
	defer closeStore()

	oracle, err := newOracle()
	if err != nil {
		log.Fatalf("Failed to create price oracle: %v", err)
	}

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	}, st, oracle)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// The mode is resolved exactly once: a launch is either a one-shot
	// batch check or a long-running command handler, never both.
	switch mode := config.GetString("mode"); mode {
	case "check":
		runCheck(st, oracle, bot)
	case "serve":
		runServe(bot)
	default:
		log.Fatalf("Unknown mode %q, want \"serve\" or \"check\"", mode)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting toncheck bot...")
}

func newStore() (store.Store, func(), error) {
	switch backend := config.GetString("storage_backend"); backend {
	case "file":
		s, err := store.NewFileStore(config.GetString("alerts_file"))
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(config.GetString("sqlite_path"))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, errors.Errorf("unknown storage backend %q", backend)
	}
}

func newOracle() (price.Oracle, error) {
	switch oracle := config.GetString("oracle"); oracle {
	case "coingecko":
		return price.NewCoinGeckoClient(config.GetString("asset_id"), config.GetString("vs_currency")), nil
	case "coinpaprika":
		return price.NewCoinPaprikaClient(config.GetString("paprika_ticker_id"), config.GetString("api_pro_key")), nil
	default:
		return nil, errors.Errorf("unknown oracle %q", oracle)
	}
}

// runCheck performs one batch sweep and exits. A failed store write is
// fatal so the cron scheduler surfaces it.
func runCheck(st store.Store, oracle price.Oracle, bot *telegram.Bot) {
	policy, err := matcher.ParsePolicy(config.GetString("match_policy"))
	if err != nil {
		log.Fatalf("Bad match policy: %v", err)
	}

	c := &checker.Checker{Oracle: oracle, Store: st, Notifier: bot, Policy: policy}
	stats, err := c.Run(context.Background())
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	if stats.Skipped {
		log.Warn("Sweep skipped: price unavailable.")
		return
	}
	log.Infof("Sweep completed: %d users checked, %d alerts fired, %d delivery failures, %d users removed",
		stats.UsersChecked, stats.TargetsFired, stats.DeliveryFailures, stats.UsersRemoved)
}

func runServe(bot *telegram.Bot) {
	var (
		updates tgbotapi.UpdatesChannel
		err     error
		port    = config.GetInt("metrics_port")
	)

	if webhookURL := config.GetString("webhook_url"); webhookURL != "" {
		updates, err = bot.ListenForWebhook(webhookURL)
		if err != nil {
			log.Fatalf("Failed to register webhook: %v", err)
		}
		port = config.GetInt("port")
	} else {
		updates, err = bot.GetUpdatesChannel()
		if err != nil {
			log.Fatalf("Failed to get updates channel: %v", err)
		}
	}

	go handleUpdates(bot, updates)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(port); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func handleUpdates(bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			log.Debug("Received non-message or non-command")
			continue
		}

		metrics.MessagesHandled.Inc()

		handleCommand(bot, update)
	}
}

func handleCommand(bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	err := bot.SendMessage(telegram.Message{
		ChatID:    update.Message.Chat.ID,
		Text:      bot.HandleUpdate(update),
		MessageID: update.Message.MessageID,
	})

	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		metrics.CommandsProcessed.Inc()
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}
