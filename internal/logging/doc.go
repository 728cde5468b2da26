// Package logging configures slog output for the CLI and core components.
package logging
