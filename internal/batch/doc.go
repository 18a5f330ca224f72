// Package batch runs one operation per item of a list and collects the
// per-item outcomes, so a failing item never aborts its siblings.
package batch
