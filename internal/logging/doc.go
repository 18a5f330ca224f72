// Package logging provides structured logging utilities for the inboxdraft application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Process logger construction (text or JSON, always off stdout)
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface so packages can be tested with a recording fake
//
// # Usage Patterns
//
// Attach standard attributes:
//
//	logger.Info("fetched unread messages",
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("draft saved",
//	    logging.UserHash(recipient))
//
// # Security Considerations
//
// Mail addresses are hashed to prevent PII leakage while allowing correlation.
// Secrets (the mailbox password, the generation API key, OAuth tokens) are never logged.
package logging
