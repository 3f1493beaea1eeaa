// Package notification emails the shop about new orders, quote requests and
// contact messages. Delivery is best effort and never fails the request that
// triggered it.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/observability/metrics"
	"github.com/smallbiznis/confeitaria/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

type Params struct {
	fx.In

	Log      *zap.Logger
	Email    email.Provider
	Settings *config.StoreSettingsHolder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Notifier struct {
	log      *zap.Logger
	email    email.Provider
	settings *config.StoreSettingsHolder
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

func New(p Params) *Notifier {
	return &Notifier{
		log:      p.Log.Named("notification"),
		email:    p.Email,
		settings: p.Settings,
		metrics:  p.Metrics,
	}
}

func (n *Notifier) OrderPlaced(ctx context.Context, data email.OrderEmail) {
	if n == nil || !n.settings.Get().OrderNotify {
		return
	}
	n.dispatch(ctx, "order", email.TemplateOrderPlaced, data)
}

func (n *Notifier) QuoteRequested(ctx context.Context, data email.QuoteEmail) {
	if n == nil {
		return
	}
	n.dispatch(ctx, "quote", email.TemplateQuoteRequested, data)
}

func (n *Notifier) ContactReceived(ctx context.Context, data email.ContactEmail) {
	if n == nil {
		return
	}
	n.dispatch(ctx, "contact", email.TemplateContactMessage, data)
}

// Wait blocks until in-flight deliveries finish.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *Notifier) dispatch(ctx context.Context, kind, templateName string, data any) {
	recipients := n.settings.Get().NotifyRecipients()
	if len(recipients) == 0 {
		n.log.Debug("no notification recipients configured", zap.String("kind", kind))
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if err := n.email.SendTemplate(sendCtx, recipients, templateName, data); err != nil {
			n.log.Warn("notification email failed", zap.String("kind", kind), zap.Error(err))
			n.metrics.RecordNotificationFailed(sendCtx, kind)
		}
	}()
}

var Module = fx.Module("notification",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, n *Notifier) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				n.Wait()
				return nil
			},
		})
	}),
)
