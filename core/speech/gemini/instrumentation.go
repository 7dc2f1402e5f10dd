package gemini

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-helper/core/speech/gemini"

var tracer = otel.Tracer(scopeName)
