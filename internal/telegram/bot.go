package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"toncheck-telegram-bot/internal/price"
	"toncheck-telegram-bot/internal/store"
	"toncheck-telegram-bot/lib/helpers"
)

// Bot wires the Telegram transport to the alert store and the price
// oracle.
type Bot struct {
	Bot    *tgbotapi.BotAPI
	Config BotConfig

	store  store.Store
	oracle price.Oracle
}

// NewBot creates new telegram bot
func NewBot(c BotConfig, st store.Store, oracle price.Oracle) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{Bot: bot, Config: c, store: st, oracle: oracle}, nil
}

// GetUpdatesChannel gets new updates via long polling
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// ListenForWebhook registers the webhook with Telegram and returns the
// update channel served under /<token> on the default HTTP mux.
func (b *Bot) ListenForWebhook(publicURL string) (tgbotapi.UpdatesChannel, error) {
	wh, err := tgbotapi.NewWebhook(publicURL + "/" + b.Bot.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not build webhook config")
	}
	if _, err := b.Bot.Request(wh); err != nil {
		return nil, errors.Wrap(err, "could not register webhook")
	}
	return b.Bot.ListenForWebhook("/" + b.Bot.Token), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// NotifyTargetReached sends the alert-fired message for one target.
func (b *Bot) NotifyTargetReached(chatID int64, target, current decimal.Decimal) error {
	text := fmt.Sprintf(
		"🚨 *ALERT FIRED\\!* 🚨\nTON has reached *$%s*\\!\nCurrent price: *$%s*",
		helpers.EscapeMarkdownV2(target.StringFixed(store.TargetPrecision)),
		helpers.FormatPriceUS(current.InexactFloat64(), true),
	)
	return b.SendMessage(Message{ChatID: chatID, Text: text})
}

// HandleUpdate processes one Telegram command and returns the reply text.
func (b *Bot) HandleUpdate(u tgbotapi.Update) string {
	log.Debugf("received command: %s", u.Message.Command())

	switch u.Message.Command() {
	case "start":
		return helpers.EscapeMarkdownV2(
			"Hi! I am the TONCHECK bot. To set an alert, use:\n" +
				"/set_alert <price>\n" +
				"For example: /set_alert 7.50")
	case "set_alert":
		return b.handleSetAlert(u)
	case "my_alerts":
		return b.handleMyAlerts(u)
	}

	return helpers.EscapeMarkdownV2("Unknown command. Try /set_alert <price> or /my_alerts.")
}

func (b *Bot) handleSetAlert(u tgbotapi.Update) string {
	userID := strconv.FormatInt(u.Message.From.ID, 10)
	chatID := u.Message.Chat.ID

	args := strings.TrimSpace(u.Message.CommandArguments())
	if args == "" {
		return helpers.EscapeMarkdownV2("Please provide a price! Example: /set_alert 7.50")
	}

	target, err := decimal.NewFromString(args)
	if err != nil {
		return helpers.EscapeMarkdownV2("Invalid price format. Use a number.")
	}
	target = target.Round(store.TargetPrecision)

	if err := b.registerTarget(userID, chatID, target); err != nil {
		switch errors.Cause(err) {
		case store.ErrInvalidPrice:
			return helpers.EscapeMarkdownV2("The price must be a positive number.")
		case store.ErrDuplicateTarget:
			return helpers.EscapeMarkdownV2(fmt.Sprintf("You already have an alert at $%s.", target.StringFixed(store.TargetPrecision)))
		}
		log.Errorf("could not register target: %v", err)
		return helpers.EscapeMarkdownV2("Could not save the alert. Please try again later.")
	}

	currentText := helpers.EscapeMarkdownV2("...")
	if current, err := b.oracle.FetchCurrentPrice(context.Background()); err == nil {
		currentText = "$" + helpers.FormatPriceUS(current.InexactFloat64(), true)
	}

	return fmt.Sprintf(
		"🔔 Alert set at *$%s*\\.\nCurrent TON price: %s",
		helpers.EscapeMarkdownV2(target.StringFixed(store.TargetPrecision)),
		currentText,
	)
}

// registerTarget runs one lock→load→add→save cycle against the store.
func (b *Bot) registerTarget(userID string, chatID int64, target decimal.Decimal) error {
	if err := b.store.Lock(); err != nil {
		return errors.Wrap(err, "alert book busy")
	}
	defer func() {
		if err := b.store.Unlock(); err != nil {
			log.Warnf("unlock alert book: %v", err)
		}
	}()

	book, err := b.store.Load()
	if err != nil {
		return errors.Wrap(err, "load alert book")
	}
	if err := store.AddTarget(book, userID, chatID, target); err != nil {
		return err
	}
	return errors.Wrap(b.store.Save(book), "save alert book")
}

func (b *Bot) handleMyAlerts(u tgbotapi.Update) string {
	userID := strconv.FormatInt(u.Message.From.ID, 10)

	book, err := b.store.Load()
	if err != nil {
		log.Errorf("could not load alert book: %v", err)
		return helpers.EscapeMarkdownV2("Could not read your alerts. Please try again later.")
	}

	targets := store.ListTargets(book, userID)
	if len(targets) == 0 {
		return helpers.EscapeMarkdownV2("You have no active alerts.")
	}

	var list strings.Builder
	list.WriteString(helpers.EscapeMarkdownV2("Your active alerts:\n"))
	for _, t := range targets {
		list.WriteString(helpers.EscapeMarkdownV2(fmt.Sprintf("- $%s\n", t.StringFixed(store.TargetPrecision))))
	}
	return list.String()
}
