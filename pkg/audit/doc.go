// Package audit records access decisions and catalog administration as an
// append-only trail.
//
// Events are JSON lines written by FileLogger, which rotates the file once it
// reaches MaxSize and keeps MaxFiles rotated copies:
//
//	logger, err := audit.NewFileLogger(audit.FileLoggerConfig{
//		BasePath: "/var/log/tenantgate/audit",
//		Rotate:   true,
//	})
//	event := audit.NewEvent(ctx, r, audit.EventTypeAccessDenied, audit.EventStatusDenied)
//	event.CompanyID = "c-1"
//	logger.Log(ctx, event)
//
// NewEvent pulls the request and user IDs from the context keys set by the
// HTTP middleware. Audit writes never change a decision: callers log failures
// and carry on.
package audit
