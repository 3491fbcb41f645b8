package alert

import (
	"context"

	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

// ZapNotifier escribe el evento al log estructurado. Es el notifier mínimo:
// siempre está configurado, aunque no haya SMTP.
type ZapNotifier struct{}

func (ZapNotifier) Notify(ctx context.Context, ev Event) {
	logger.From(ctx).Warn("security alert",
		logger.String("kind", ev.Kind),
		logger.Principal(ev.Principal),
		logger.Series(ev.Series),
		logger.String("detail", ev.Detail),
		logger.String("action", ev.Action),
	)
}
