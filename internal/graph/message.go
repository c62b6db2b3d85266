package graph

import (
	"github.com/microsoftgraph/msgraph-sdk-go/models"

	"outlookdraftsync/internal/drafts"
)

// DefaultSubject is used when a draft row has no subject.
const DefaultSubject = "(No subject)"

// buildMessage maps a draft record onto a Graph message payload.
// The body is always plain text. Drafts without a recipient are created
// with no toRecipients so the address can be added by hand.
func buildMessage(d drafts.Draft) models.Messageable {
	message := models.NewMessage()

	subject := d.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	message.SetSubject(&subject)

	body := models.NewItemBody()
	contentType := models.TEXT_BODYTYPE
	body.SetContentType(&contentType)
	content := d.Body
	body.SetContent(&content)
	message.SetBody(body)

	if d.To != "" {
		message.SetToRecipients(createRecipients([]string{d.To}))
	}

	return message
}

// createRecipients converts email addresses to Graph recipient objects.
func createRecipients(addresses []string) []models.Recipientable {
	recipients := make([]models.Recipientable, 0, len(addresses))
	for _, addr := range addresses {
		addr := addr
		emailAddress := models.NewEmailAddress()
		emailAddress.SetAddress(&addr)

		recipient := models.NewRecipient()
		recipient.SetEmailAddress(emailAddress)
		recipients = append(recipients, recipient)
	}
	return recipients
}
