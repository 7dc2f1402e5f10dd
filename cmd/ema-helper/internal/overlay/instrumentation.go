package overlay

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-helper/cmd/ema-helper/internal/overlay"

var logger = otelslog.NewLogger(scopeName)
