package notify

import (
	"context"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Change describes a watched thesis whose winner moved between two passes
type Change struct {
	Thesis   contracts.Thesis
	Previous *contracts.RouteResult // nil on the first pass
	Current  *contracts.RouteResult
}

// WinnerName returns the winner's name or "" when there is none
func WinnerName(r *contracts.RouteResult) string {
	if !r.HasWinner() {
		return ""
	}
	return r.Winner.Name
}

// Changed reports whether the recommended instrument differs between passes
func (c Change) Changed() bool {
	return WinnerName(c.Previous) != WinnerName(c.Current)
}

// Notifier delivers winner changes to a human
type Notifier interface {
	NotifyChange(ctx context.Context, change Change) error
}

// LogNotifier writes changes to the log when no chat is configured
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.Module("notify")}
}

// NotifyChange implements Notifier
func (n *LogNotifier) NotifyChange(_ context.Context, change Change) error {
	n.logger.WithFields(map[string]interface{}{
		"thesis_id": change.Thesis.ID,
		"previous":  WinnerName(change.Previous),
		"current":   WinnerName(change.Current),
		"reason":    change.Current.Reason,
	}).Info("Winner changed")
	return nil
}
