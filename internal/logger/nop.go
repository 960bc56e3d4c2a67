package logger

// NoOpLogger discards everything. Tests use it where log output is irrelevant.
type NoOpLogger struct{}

// NewNop returns a logger that drops all entries.
func NewNop() Logger {
	return NoOpLogger{}
}

func (NoOpLogger) Debug(string, ...Field) {}
func (NoOpLogger) Info(string, ...Field)  {}
func (NoOpLogger) Warn(string, ...Field)  {}
func (NoOpLogger) Error(string, ...Field) {}

func (n NoOpLogger) With(...Field) Logger { return n }

func (NoOpLogger) Sync() error { return nil }
