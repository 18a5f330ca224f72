// Package cmd implements the command-line interface for inboxdraft.
//
// This package provides the following commands:
//   - serve: Start the MCP server with the reply drafting tools
//   - auth: Authorize read access to the guidelines Google Doc
//   - credentials: Store or remove the mailbox password in the system keyring
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
