package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"

	"outlookdraftsync/internal/common/security"
	"outlookdraftsync/internal/drafts"
)

// DraftCreator is the single Graph operation the sync loop depends on.
type DraftCreator interface {
	CreateDraft(ctx context.Context, d drafts.Draft) (string, error)
}

// Client creates draft messages via the Graph SDK.
// With an empty mailbox drafts land in the signed-in user's mailbox (/me);
// app-only credentials must name a target mailbox.
type Client struct {
	sdk     *msgraphsdk.GraphServiceClient
	mailbox string
	logger  *slog.Logger
}

// NewClient initializes a Graph SDK client with the given credential.
func NewClient(cred azcore.TokenCredential, scopes []string, logger *slog.Logger) (*Client, error) {
	sdk, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, scopes)
	if err != nil {
		return nil, fmt.Errorf("graph client initialization failed: %w", err)
	}
	return &Client{sdk: sdk, logger: logger}, nil
}

// WithMailbox targets a specific mailbox instead of the signed-in user.
func (c *Client) WithMailbox(mailbox string) *Client {
	c.mailbox = mailbox
	return c
}

// CreateDraft creates one draft message and returns its Graph message ID.
// The message is saved to the Drafts folder; nothing is sent.
func (c *Client) CreateDraft(ctx context.Context, d drafts.Draft) (string, error) {
	message := buildMessage(d)

	var (
		created models.Messageable
		err     error
	)
	if c.mailbox != "" {
		created, err = c.sdk.Users().ByUserId(c.mailbox).Messages().Post(ctx, message, nil)
	} else {
		created, err = c.sdk.Me().Messages().Post(ctx, message, nil)
	}
	if err != nil {
		return "", EnrichError(err, "create draft")
	}

	id := ""
	if created != nil && created.GetId() != nil {
		id = *created.GetId()
	}
	c.logger.Debug("draft created",
		"company", d.Company,
		"to", security.MaskEmail(d.To),
		"messageID", id)
	return id, nil
}
