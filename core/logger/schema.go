package logger

import "strings"

// Level names as written to the log.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

var allowedLevels = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"fatal":   LevelFatal,
}

// status describes how an operation went; unknown values pass through.
var allowedStatus = map[string]string{
	"ok":           "ok",
	"fail":         "fail",
	"skip":         "skip",
	"retry":        "retry",
	"rate_limited": "rate_limited",
	"canceled":     "canceled",
	"cancelled":    "canceled",
	"timed_out":    "timed_out",
	"timeout":      "timed_out",
}

// outcome is the terminal state of a handler or session; unknown values
// are dropped.
var allowedOutcome = map[string]string{
	"ok":           "ok",
	"fail":         "fail",
	"success":      "success",
	"canceled":     "canceled",
	"cancelled":    "canceled",
	"timed_out":    "timed_out",
	"superseded":   "superseded",
	"rate_limited": "rate_limited",
}

// kind is the interactive event family; unknown values are dropped.
var allowedKind = map[string]string{
	"reaction":  "reaction",
	"component": "component",
	"message":   "message",
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func lookupEnum(table map[string]string, v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	if mapped, ok := table[v]; ok {
		return mapped, true
	}
	return v, false
}

func normalizeStatus(status string) (string, bool) { return lookupEnum(allowedStatus, status) }

func normalizeOutcome(outcome string) (string, bool) { return lookupEnum(allowedOutcome, outcome) }

func normalizeKind(kind string) (string, bool) { return lookupEnum(allowedKind, kind) }

// defaultKeyOrder puts correlation fields first and errors last; keys
// not listed follow in alphabetical order.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"session_id",
	"message",
	"kind",
	"action",
	"emote",
	"input",
	"run_mode",
	"op",
	"cb_key",
	"outcome",
	"duration_ms",
	"timeout_ms",
	"elapsed_ms",
	"delay_ms",
	"page",
	"pages",
	"candidates",
	"count",
	"command",
	"payload",
	"username",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"from_ver",
	"to_ver",
	"files",
	"attempt",
	"attempts",
	"err",
	"err_code",
	"error_kind",
	"cause",
	"rate_limited",
	"rid_full",
	"ts_unix_nano",
}
