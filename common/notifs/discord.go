package notifs

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"github.com/Helioviewer-Project/go-movies/common"
	"github.com/Helioviewer-Project/go-movies/models"
)

type DiscordColor int

const (
	DiscordColor_None    = iota
	DiscordColor_Info    = 3447003
	DiscordColor_Ok      = 3581519
	DiscordColor_Warning = 16776960
	DiscordColor_Alert   = 16711712
)

const DiscordPacing = 2 * time.Second

// DiscordHandler is the notification collaborator: every user-visible message
// from the movie workflow (processing ETA, queue full, movie ready) lands in
// a webhook channel instead of halting anything.
type DiscordHandler struct {
	infoWebhook    webhook.Client
	warningWebhook webhook.Client
	logger         models.Logger
}

var _ models.Notifier = &DiscordHandler{}

func NewDiscordHandler(logger models.Logger) (*DiscordHandler, error) {
	if i, err := parseDiscordWebhookUrl("DISCORD_INFO_WEBHOOK"); err != nil {
		return nil, err
	} else if w, err := parseDiscordWebhookUrl("DISCORD_WARNING_WEBHOOK"); err != nil {
		return nil, err
	} else {
		return &DiscordHandler{i, w, logger}, nil
	}
}

func parseDiscordWebhookUrl(urlEnv string) (webhook.Client, error) {
	webhookUrl := os.Getenv(urlEnv)
	if len(webhookUrl) > 0 {
		if parsedUrl, err := url.Parse(webhookUrl); err != nil {
			return nil, err
		} else {
			urlParts := strings.Split(parsedUrl.Path, "/")
			if id, err := snowflake.Parse(urlParts[len(urlParts)-2]); err != nil {
				return nil, err
			} else {
				return webhook.New(id, urlParts[len(urlParts)-1]), nil
			}
		}
	}
	return nil, nil
}

func (d DiscordHandler) SendInfo(content string) error {
	if d.infoWebhook != nil {
		return d.sendNotif(d.infoWebhook, models.NotifTitle, content, DiscordColor_Info)
	}
	return nil
}

func (d DiscordHandler) SendWarning(content string) error {
	if d.warningWebhook != nil {
		return d.sendNotif(d.warningWebhook, models.NotifTitle, content, DiscordColor_Warning)
	}
	// Fall back to the info channel so warnings are not silently dropped
	if d.infoWebhook != nil {
		return d.sendNotif(d.infoWebhook, models.NotifTitle, content, DiscordColor_Warning)
	}
	return nil
}

func (d DiscordHandler) sendNotif(wh webhook.Client, title, desc string, color DiscordColor) error {
	messageEmbed := discord.Embed{
		Title:       title,
		Description: desc,
		Type:        discord.EmbedTypeRich,
		Color:       int(color),
	}
	_, err := wh.CreateMessage(discord.NewWebhookMessageCreateBuilder().
		SetEmbeds(messageEmbed).
		SetUsername(common.ServiceName).
		Build(),
		rest.WithDelay(DiscordPacing),
	)
	if err != nil {
		d.logger.Errorf("sendNotif: error sending discord notification: %v, %s, %s", err, title, desc)
		return err
	}
	return nil
}
