package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySource     = "source"
	KeyPath       = "path"
	KeyTemplate   = "template"
	KeyPhase      = "phase"
	KeyGenerator  = "generator"
	KeyLang       = "lang"
	KeySignal     = "signal"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Generator(name string) slog.Attr { return slog.String(KeyGenerator, name) }
func Lang(code string) slog.Attr      { return slog.String(KeyLang, code) }
func Signal(name string) slog.Attr    { return slog.String(KeySignal, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
