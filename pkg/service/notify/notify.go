package notify

import (
	"context"
	"fmt"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Service delivers operator notifications for sync failures
type Service interface {
	// NotifySyncFailure reports a dead-lettered sync task
	NotifySyncFailure(ctx context.Context, eventID types.EventID, roleID types.RoleID, action types.SyncAction, attempts int, cause error) error
}

// client implements Service interface
type client struct {
	api     *slack.Client
	channel string
}

// New creates a Slack notifier posting to the given channel
func New(token, channel string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channel == "" {
		return nil, goerr.New("Slack channel is required")
	}

	return &client{
		api:     slack.New(token),
		channel: channel,
	}, nil
}

func (c *client) NotifySyncFailure(ctx context.Context, eventID types.EventID, roleID types.RoleID, action types.SyncAction, attempts int, cause error) error {
	header := slack.NewHeaderBlock(
		slack.NewTextBlockObject(slack.PlainTextType, "Calendar sync failure", false, false),
	)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Event:*\n%s", eventID), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Role:*\n%s", roleID), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Action:*\n%s", action), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Attempts:*\n%d", attempts), false, false),
	}
	section := slack.NewSectionBlock(nil, fields, nil)

	reason := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("```%s```", cause.Error()), false, false),
		nil, nil,
	)

	_, _, err := c.api.PostMessageContext(ctx, c.channel,
		slack.MsgOptionBlocks(header, section, reason),
		slack.MsgOptionText(fmt.Sprintf("Calendar sync failed for event %s", eventID), false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post sync failure notification",
			goerr.V("channel", c.channel), goerr.V("eventID", eventID))
	}

	return nil
}
