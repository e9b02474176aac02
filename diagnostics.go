package dotted

import "go.uber.org/zap"

// Diagnostics receives notes, warnings and errors from a Store. It never
// changes what a Store does, except that a missing sink makes an otherwise
// silent accelerator failure an error.
type Diagnostics interface {
	Note(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

type zapDiagnostics struct {
	log *zap.Logger
}

// NewZapDiagnostics reports notes at debug level, and warnings and errors at
// their own levels.
func NewZapDiagnostics(log *zap.Logger) Diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	return zapDiagnostics{log: log.Named("dotted")}
}

func (d zapDiagnostics) Note(msg string, fields ...zap.Field)  { d.log.Debug(msg, fields...) }
func (d zapDiagnostics) Warn(msg string, fields ...zap.Field)  { d.log.Warn(msg, fields...) }
func (d zapDiagnostics) Error(msg string, fields ...zap.Field) { d.log.Error(msg, fields...) }
