// Package logger builds *slog.Logger values for docrelay.
//
// New takes functional options selecting the output format, level and static
// attributes. Every logger is wrapped in a LogHandlerDecorator that runs the
// registered ContextExtractor callbacks on each record, which is how the
// per-invocation id ends up on every line written while a blob is relayed.
//
// The attribute helpers in attr.go (InvocationID, Blob, Stage, Outcome,
// StatusCode and friends) keep key names consistent between the relay
// pipeline, the trigger adapter and the CLI.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "docrelay"),
//	    logger.WithLevelName(os.Getenv("LOG_LEVEL")),
//	    logger.WithContextExtractors(relay.InvocationIDExtractor),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "upload finished",
//	    logger.Blob("report.pdf"),
//	    logger.StatusCode(201),
//	)
package logger
