// Package config loads the startup configuration of inboxdraft.
//
// Settings come from, in increasing order of precedence: a ".env" file in the
// working directory, an optional YAML config file, and the process
// environment. The mailbox address, the mailbox secret and the Anthropic API
// key are required; Load fails without them and the server refuses to start.
//
// The mailbox secret may instead live in the system keyring (see the
// "credentials" command) when EMAIL_USE_KEYRING=true.
package config
