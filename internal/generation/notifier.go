// internal/generation/notifier.go
package generation

import (
	"context"
	"fmt"

	awsclient "starterforge/internal/common/aws"
	"starterforge/internal/common/logger"
	"starterforge/internal/models"
)

// Notifier tells the customer their generated project is ready.
type Notifier interface {
	GenerationCompleted(ctx context.Context, order models.OrderDetails, projectName string) error
}

// SESNotifier sends the download-ready email through AWS SES.
type SESNotifier struct {
	client *awsclient.SESClient
	from   string
	logger logger.Logger
}

func NewSESNotifier(client *awsclient.SESClient, from string, log logger.Logger) *SESNotifier {
	return &SESNotifier{
		client: client,
		from:   from,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (n *SESNotifier) GenerationCompleted(ctx context.Context, order models.OrderDetails, projectName string) error {
	downloadToken := ""
	if order.License != nil {
		downloadToken = order.License.DownloadToken
	}

	subject := fmt.Sprintf("Your project %s is ready", projectName)
	body := fmt.Sprintf(
		"Hi,\n\nYour project for order %s has been generated.\n\n"+
			"Download it from your account using token %s.\n\n"+
			"Thanks for your purchase!\n",
		order.OrderNumber, downloadToken,
	)

	if err := n.client.SendText(ctx, n.from, order.CustomerEmail, subject, body); err != nil {
		n.logger.Error("failed to send completion email", map[string]interface{}{
			"orderId": order.ID,
			"error":   err.Error(),
		})
		return err
	}

	return nil
}

// NoopNotifier is used when email notifications are disabled.
type NoopNotifier struct{}

func (NoopNotifier) GenerationCompleted(context.Context, models.OrderDetails, string) error {
	return nil
}
