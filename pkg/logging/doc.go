// Package logging builds the log/slog loggers used across routeset.
//
// Components accept a *slog.Logger and fall back to Nop when given nil:
//
//	log := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	m, err := matcher.Build(routes, nil, matcher.Config{Logger: log})
//
// Matching decisions are logged at debug level, so a router is quiet unless
// asked otherwise. WithAccessLog tees those decisions into a JSON access log
// while the base logger keeps its own level.
package logging
