package mailbox

import (
	"context"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// submission is an authenticated SMTP submission session.
type submission interface {
	Quit() error
}

// submitFunc dials addr and authenticates as username.
type submitFunc func(ctx context.Context, addr, username, password string) (submission, error)

func dialSubmission(ctx context.Context, addr, username, password string) (submission, error) {
	type result struct {
		c   *smtp.Client
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := smtp.DialTLS(addr, nil)
		if err != nil {
			done <- result{nil, err}
			return
		}
		if err := c.Auth(sasl.NewPlainClient("", username, password)); err != nil {
			_ = c.Close()
			done <- result{nil, fmt.Errorf("authenticating: %w", err)}
			return
		}
		done <- result{c, nil}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return r.c, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.c != nil {
				_ = r.c.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
