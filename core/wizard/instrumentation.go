package wizard

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-helper/core/wizard"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	messagesDelivered, _ = meter.Int64Counter("wizard.messages.delivered",
		metric.WithDescription("Assistant and wizard messages delivered from polling"))
)
