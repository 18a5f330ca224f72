package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// session is the subset of an IMAP connection the client needs. Every method
// blocks until the server answers or ctx is done.
type session interface {
	Login(ctx context.Context, username, password string) error
	Select(ctx context.Context, mailbox string) error
	SearchUnseen(ctx context.Context) ([]uint32, error)
	Fetch(ctx context.Context, seqNum uint32) ([]byte, error)
	Append(ctx context.Context, mailbox string, raw []byte, flags []imap.Flag, t time.Time) error
	Logout(ctx context.Context) error
}

// dialFunc opens an unauthenticated session to addr.
type dialFunc func(ctx context.Context, addr string) (session, error)

// imapSession adapts an imapclient.Client to session.
type imapSession struct {
	c *imapclient.Client
}

func dialIMAP(ctx context.Context, addr string) (session, error) {
	type result struct {
		c   *imapclient.Client
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := imapclient.DialTLS(addr, nil)
		done <- result{c, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return &imapSession{c: r.c}, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.c != nil {
				_ = r.c.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// wait runs fn and closes the connection if ctx ends first, which unblocks
// the pending command.
func (s *imapSession) wait(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = s.c.Close()
		<-done
		return ctx.Err()
	}
}

func (s *imapSession) Login(ctx context.Context, username, password string) error {
	return s.wait(ctx, func() error {
		return s.c.Login(username, password).Wait()
	})
}

func (s *imapSession) Select(ctx context.Context, mailbox string) error {
	return s.wait(ctx, func() error {
		_, err := s.c.Select(mailbox, nil).Wait()
		return err
	})
}

func (s *imapSession) SearchUnseen(ctx context.Context) ([]uint32, error) {
	var nums []uint32
	err := s.wait(ctx, func() error {
		data, err := s.c.Search(&imap.SearchCriteria{
			NotFlag: []imap.Flag{imap.FlagSeen},
		}, nil).Wait()
		if err != nil {
			return err
		}
		nums = data.AllSeqNums()
		return nil
	})
	return nums, err
}

func (s *imapSession) Fetch(ctx context.Context, seqNum uint32) ([]byte, error) {
	// BODY.PEEK[] leaves the \Seen flag untouched
	section := &imap.FetchItemBodySection{Peek: true}
	var raw []byte
	err := s.wait(ctx, func() error {
		msgs, err := s.c.Fetch(imap.SeqSetNum(seqNum), &imap.FetchOptions{
			BodySection: []*imap.FetchItemBodySection{section},
		}).Collect()
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("message %d not found", seqNum)
		}
		raw = msgs[0].FindBodySection(section)
		if raw == nil {
			return fmt.Errorf("message %d has no body", seqNum)
		}
		return nil
	})
	return raw, err
}

func (s *imapSession) Append(ctx context.Context, mailbox string, raw []byte, flags []imap.Flag, t time.Time) error {
	return s.wait(ctx, func() error {
		cmd := s.c.Append(mailbox, int64(len(raw)), &imap.AppendOptions{
			Flags: flags,
			Time:  t,
		})
		if _, err := io.Copy(cmd, bytes.NewReader(raw)); err != nil {
			_ = cmd.Close()
			return fmt.Errorf("writing message: %w", err)
		}
		if err := cmd.Close(); err != nil {
			return fmt.Errorf("closing append: %w", err)
		}
		_, err := cmd.Wait()
		return err
	})
}

func (s *imapSession) Logout(ctx context.Context) error {
	err := s.wait(ctx, func() error {
		return s.c.Logout().Wait()
	})
	_ = s.c.Close()
	return err
}
