package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-helper/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	stateTransitions, _ = meter.Int64Counter("engine.state.transitions",
		metric.WithDescription("Conversation state transitions by target state"))
	pipelineFailures, _ = meter.Int64Counter("engine.pipeline.failures",
		metric.WithDescription("Pipelines returned to idle because of a failure"))
)
