// Package logging provides structured logging for secondbrain.
//
// It wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Dual output (stdout + optional OpenTelemetry bridge)
//   - Automatic context field injection (request id, thread key, channel)
//   - Secret redaction at the encoder layer
//
// Create a logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithRequestID(ctx, requestID)
//	ctx = logging.WithThreadKey(ctx, event.TS)
//	logger.Info(ctx, "capture filed", zap.String("category", cat.String()))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2026-08-31T07:15:30Z",
//	  "level": "info",
//	  "msg": "capture filed",
//	  "request.id": "1c7f...",
//	  "thread.ts": "1756623330.000200",
//	  "category": "admin"
//	}
package logging
