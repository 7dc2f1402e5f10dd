package clova

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/ema-helper/core/speech/clova"

var tracer = otel.Tracer(scopeName)
