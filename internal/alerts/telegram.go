package alerts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Image types accepted by TelegramSender
const (
	ImagePhoto     = "photo"
	ImageAnimation = "animation"
)

// TelegramSender posts alerts to a chat through the Bot API
type TelegramSender struct {
	apiEndpoint string // format string taking the token and the method
	botToken    string
	chatID      string
	imageURL    string
	imageType   string
	style       Style
	httpClient  *http.Client
}

// NewTelegramSender creates a new Telegram sender. When imageURL is set
// the alert is sent as the caption of a photo or animation.
func NewTelegramSender(apiURL, botToken, chatID, imageURL, imageType string, style Style) *TelegramSender {
	return &TelegramSender{
		apiEndpoint: apiURL + "/bot%s/%s",
		botToken:    botToken,
		chatID:      chatID,
		imageURL:    imageURL,
		imageType:   imageType,
		style:       style,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Named
func (s *TelegramSender) Name() string { return "telegram" }

// Send sends the alert to Telegram
func (s *TelegramSender) Send(ctx context.Context, payload *BuyPayload) error {
	text := HTMLMessage(payload, s.style)

	var msg tgbotapi.Chattable
	method := "sendMessage"
	switch {
	case s.imageURL != "" && s.imageType == ImageAnimation:
		anim := tgbotapi.NewAnimation(0, tgbotapi.FileURL(s.imageURL))
		setChat(&anim.BaseChat, s.chatID)
		anim.Caption = text
		anim.ParseMode = tgbotapi.ModeHTML
		msg, method = anim, "sendAnimation"
	case s.imageURL != "":
		photo := tgbotapi.NewPhoto(0, tgbotapi.FileURL(s.imageURL))
		setChat(&photo.BaseChat, s.chatID)
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeHTML
		msg, method = photo, "sendPhoto"
	default:
		m := tgbotapi.NewMessage(0, text)
		setChat(&m.BaseChat, s.chatID)
		m.ParseMode = tgbotapi.ModeHTML
		m.DisableWebPagePreview = true
		msg = m
	}

	if _, err := s.bot(ctx).Send(msg); err != nil {
		// the request URL carries the bot token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%s: %w", method, err)
	}

	return nil
}

// bot returns a client bound to ctx. The struct is built directly so no
// getMe round trip happens per alert.
func (s *TelegramSender) bot(ctx context.Context) *tgbotapi.BotAPI {
	bot := &tgbotapi.BotAPI{
		Token:  s.botToken,
		Client: contextClient{ctx: ctx, client: s.httpClient},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(s.apiEndpoint)
	return bot
}

// setChat addresses numeric chat ids and @channel usernames
func setChat(chat *tgbotapi.BaseChat, chatID string) {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		chat.ChatID = id
		return
	}
	chat.ChannelUsername = chatID
}

type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}
