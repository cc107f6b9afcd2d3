// Package logger builds *slog.Logger values with environment defaults and
// context-driven attributes.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, cfg.Name),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "two-factor enabled", logger.IdentityID(id))
//
// Attribute helpers such as IdentityID and Error return an empty slog.Attr for
// zero values, which slog omits from output.
package logger
