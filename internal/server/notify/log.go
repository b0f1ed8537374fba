package notify

import (
	"context"

	"github.com/dmitrijs2005/democracy365/internal/logging"
)

// LogNotifier writes messages to the logger instead of sending them.
// Meant for local development only: the text body contains the code.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{logger: l.With("module", "notifier")}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Info(ctx, "notification", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
