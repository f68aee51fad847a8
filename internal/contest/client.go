package contest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"yacontest/internal/assert"
	"yacontest/internal/components/chrono"
	"yacontest/internal/components/prompt"
	"yacontest/internal/components/telemetry"
	"yacontest/internal/state"

	"github.com/PuerkitoBio/goquery"
)

type Options struct {
	Session SessionOptions
	// PollTimeout bounds waiting for a verdict, <= 0 waits until ctx is done.
	PollTimeout time.Duration
	// PageCache is optional.
	PageCache *PageCache
	Clock     chrono.API
	Out       io.Writer
}

// Client bundles everything a command needs to talk to the active contest.
// One Client is built per invocation.
type Client struct {
	Session   *Session
	Directory *Directory

	contest     ContestContext
	state       *state.Handle
	prompt      prompt.Prompter
	tel         telemetry.API
	clock       chrono.API
	out         io.Writer
	pollTimeout time.Duration
	cache       *PageCache
}

func NewClient(h *state.Handle, prompter prompt.Prompter, tel telemetry.API, opts Options) (*Client, error) {
	assert.NotNil(h)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("contest", tel)

	record := h.Record()
	contest, err := NewContestContext(record.Domain, record.ContestId)
	if err != nil {
		return nil, err
	}

	session, err := NewSession(contest, h, prompter, tel, opts.Session)
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = chrono.StandardImpl{}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &Client{
		Session:     session,
		Directory:   NewDirectory(session, h, tel),
		contest:     contest,
		state:       h,
		prompt:      prompter,
		tel:         tel,
		clock:       clock,
		out:         out,
		pollTimeout: opts.PollTimeout,
		cache:       opts.PageCache,
	}, nil
}

func (c *Client) Contest() ContestContext {
	return c.contest
}

func (c *Client) fetchDocument(ctx context.Context, req Request) (*goquery.Document, error) {
	res, err := c.Session.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.Url, err)
	}
	doc.Url = FinalUrl(res)
	return doc, nil
}

// fetchCachedDocument is fetchDocument for pages that rarely change, it goes
// through the page cache when one is configured.
func (c *Client) fetchCachedDocument(ctx context.Context, locator string) (*goquery.Document, error) {
	if c.cache == nil {
		return c.fetchDocument(ctx, Get(locator))
	}

	body, err := c.cache.Get(ctx, locator)
	if err == nil {
		return goquery.NewDocumentFromReader(bytes.NewReader(body))
	}
	if !errors.Is(err, ErrPageNotCached) {
		c.tel.ReportWarning(report_page_cache_get, err, locator)
	}

	res, err := c.Session.Do(ctx, Get(locator))
	if err != nil {
		return nil, err
	}
	err = c.cache.Set(ctx, locator, res.Body())
	if err != nil {
		c.tel.ReportWarning(report_page_cache_set, err, locator)
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
}
