// Package logging builds the agent's structured logger on log/slog.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Request-scoped fields travel in the context and are added to every
// record logged with a *Context method:
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "fault injected") // carries request_id=req-123
package logging
