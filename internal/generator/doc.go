// Package generator produces reply text from a prompt using the Anthropic
// messages API.
package generator
