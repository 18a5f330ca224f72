// Package assistant implements the reply drafting workflows behind the MCP
// tools: listing unseen mail, drafting one reply and drafting replies to
// every unseen message addressed to the account.
//
// Every workflow returns text for the caller. Failures are rendered into
// that text and never returned as errors. Writing guidelines are read from a
// document when one is configured; a missing or unreadable document only
// removes the guidelines from the prompt.
package assistant
