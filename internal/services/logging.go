package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

type contextKey string

// Request metadata the handlers attach to the context.
const (
	ContextRequestID contextKey = "request_id"
	ContextClientIP  contextKey = "client_ip"
	ContextUserAgent contextKey = "user_agent"
)

func contextString(ctx context.Context, key contextKey) string {
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}

// ServiceLogger writes one structured line per write operation, plus an audit
// line for each change it applied.
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service   string
	Component string
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// kindLevels is the log level of a failed operation by error kind. Kinds not
// listed are logged as errors.
var kindLevels = map[ErrorKind]slog.Level{
	KindLoading:      slog.LevelDebug,
	KindNotFound:     slog.LevelInfo,
	KindValidation:   slog.LevelWarn,
	KindBusinessRule: slog.LevelWarn,
	KindUnauthorized: slog.LevelWarn,
	KindForbidden:    slog.LevelWarn,
	KindConflict:     slog.LevelWarn,
}

// Operation times one service call.
type Operation struct {
	logger  *ServiceLogger
	ctx     context.Context
	name    string
	userID  string
	started time.Time
}

func (l *ServiceLogger) WithOperation(ctx context.Context, name, userID string) *Operation {
	return &Operation{logger: l, ctx: ctx, name: name, userID: userID, started: time.Now()}
}

// LogResult logs the outcome of the operation on resourceType/resourceID.
func (op *Operation) LogResult(resourceID, resourceType string, err error) {
	kind := Classify(err)
	level, ok := kindLevels[kind]
	switch {
	case err == nil:
		level = slog.LevelInfo
	case !ok:
		level = slog.LevelError
	}
	if !op.logger.logger.Enabled(op.ctx, level) {
		return
	}

	status := "success"
	if err != nil {
		status = string(kind)
	}
	attrs := []slog.Attr{
		slog.String("operation", op.name),
		slog.String("user_id", op.userID),
		slog.String("resource_type", resourceType),
		slog.String("resource_id", resourceID),
		slog.String("status", status),
		slog.Duration("duration", time.Since(op.started)),
	}
	if requestID := contextString(op.ctx, ContextRequestID); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		attrs = append(attrs, errorDetails(err)...)
	}

	op.logger.logger.LogAttrs(op.ctx, level, op.name+" "+status, attrs...)
}

func errorDetails(err error) []slog.Attr {
	var ve ValidationErrors
	var bre *BusinessRuleError
	var pe *PermissionError
	switch {
	case errors.As(err, &ve):
		return []slog.Attr{slog.Any("fields", ve.Fields())}
	case errors.As(err, &bre):
		return []slog.Attr{slog.String("business_rule", bre.Rule)}
	case errors.As(err, &pe):
		return []slog.Attr{
			slog.String("action", pe.Action),
			slog.String("reason", pe.Reason),
		}
	}
	return nil
}

// LogPermissionDenied records a rejected management action with the caller's
// address.
func (l *ServiceLogger) LogPermissionDenied(ctx context.Context, operation string, pe *PermissionError) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", pe.UserID),
		slog.String("resource_type", pe.Resource),
		slog.String("resource_id", pe.ResourceID),
		slog.String("reason", pe.Reason),
	}
	if ip := contextString(ctx, ContextClientIP); ip != "" {
		attrs = append(attrs, slog.String("ip_address", ip))
	}
	l.logger.LogAttrs(ctx, slog.LevelWarn, "Permission denied", attrs...)
}

type AuditEventType string

const (
	AuditEventCreate AuditEventType = "create"
	AuditEventUpdate AuditEventType = "update"
	AuditEventDelete AuditEventType = "delete"
)

// LogAudit records a change applied by the operation. Values under
// credential-like keys are redacted.
func (op *Operation) LogAudit(eventType AuditEventType, resourceID, resourceType string, oldValue, newValue interface{}) {
	attrs := []slog.Attr{
		slog.String("event_type", string(eventType)),
		slog.String("action", op.name),
		slog.String("user_id", op.userID),
		slog.String("resource_type", resourceType),
		slog.String("resource_id", resourceID),
	}
	if oldValue != nil {
		attrs = append(attrs, slog.Any("old_value", redact(oldValue)))
	}
	if newValue != nil {
		attrs = append(attrs, slog.Any("new_value", redact(newValue)))
	}
	if ip := contextString(op.ctx, ContextClientIP); ip != "" {
		attrs = append(attrs, slog.String("ip_address", ip))
	}
	if ua := contextString(op.ctx, ContextUserAgent); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}

	op.logger.logger.LogAttrs(op.ctx, slog.LevelInfo, "audit "+string(eventType)+" "+resourceType, attrs...)
}

var sensitiveKeys = []string{"password", "token", "secret", "credential"}

func redact(value interface{}) interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = redact(v)
		lower := strings.ToLower(k)
		for _, key := range sensitiveKeys {
			if strings.Contains(lower, key) {
				out[k] = "[REDACTED]"
				break
			}
		}
	}
	return out
}
