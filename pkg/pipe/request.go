package pipe

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/sorales/go-httpipe/pkg/constants"
	"github.com/sorales/go-httpipe/pkg/errors"
	"github.com/sorales/go-httpipe/pkg/header"
	"github.com/sorales/go-httpipe/pkg/timing"
	"github.com/sorales/go-httpipe/pkg/transport"
	"github.com/sorales/go-httpipe/pkg/uri"
)

// HTTP version selectors. The zero value defaults to HTTP/1.1; anything
// outside this set fails with an invalid-version error.
const (
	Version10 = 10
	Version11 = 11
)

// Options describes one request.
type Options struct {
	// Method defaults to GET and is upper-cased.
	Method string

	// Path defaults to "/" and is percent-encoded segment-wise.
	Path string

	// Query is serialized into the query string. RawQuery, when set, is
	// appended verbatim instead.
	Query    url.Values
	RawQuery string

	// Headers are normalized and merged with the injected defaults.
	// Caller names emit in sorted order; values repeat the name line.
	Headers map[string][]string

	// Body is sent as-is; when non-nil, Content-Length is forced to its
	// length. BodyProducer is consulted otherwise: it is pulled until the
	// declared Content-Length budget is exhausted or it yields an empty
	// chunk. A producer yielding fewer bytes than declared truncates the
	// send; the caller must supply exactly the declared length.
	Body         []byte
	BodyProducer func() ([]byte, error)

	// Version selects the HTTP version: Version10, Version11, or 0 for the
	// HTTP/1.1 default.
	Version int

	// Stream makes Request return immediately after sending, leaving the
	// caller to drive Read/ReadBody manually.
	Stream bool

	// HeaderFilter and BodyFilter hook the response drain loop.
	HeaderFilter HeaderFilter
	BodyFilter   BodyFilter

	// Timeouts. ConnectTimeout defaults to 5s; SendTimeout bounds the
	// request write; ReadTimeout is stashed on the pipe and reapplied
	// before every read.
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	ReadTimeout    time.Duration
}

func protoLine(version int) (string, error) {
	switch version {
	case Version11, 0:
		return " HTTP/1.1\r\n", nil
	case Version10:
		return " HTTP/1.0\r\n", nil
	default:
		return "", errors.NewInvalidVersionError(version)
	}
}

// encode builds the request line and canonical header block. The upper-cased
// method is recorded on the pipe for later body handling; no bytes hit the
// wire here.
func (p *Pipe) encode(opts *Options) ([]byte, *header.Map, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = "GET"
	}
	p.method = method

	path := uri.EscapePath(opts.Path)
	if opts.RawQuery != "" {
		path += "?" + opts.RawQuery
	} else if len(opts.Query) > 0 {
		path += "?" + uri.EncodeQuery(opts.Query)
	}

	proto, err := protoLine(opts.Version)
	if err != nil {
		return nil, nil, err
	}

	hdrs := header.NewMap()
	names := make([]string, 0, len(opts.Headers))
	for name := range opts.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, nil, errors.NewInvalidArgumentError("invalid header name " + strconv.Quote(name))
		}
		for _, value := range opts.Headers[name] {
			if !httpguts.ValidHeaderFieldValue(value) {
				return nil, nil, errors.NewInvalidArgumentError("invalid value for header " + name)
			}
		}
		hdrs.Set(name, opts.Headers[name]...)
	}

	if opts.Body != nil {
		hdrs.Set("Content-Length", strconv.Itoa(len(opts.Body)))
	}
	if method == "PUT" || method == "POST" {
		n, err := strconv.ParseInt(strings.TrimSpace(hdrs.Get("Content-Length")), 10, 64)
		if err != nil || n < 0 {
			n = 0
		}
		hdrs.Set("Content-Length", strconv.FormatInt(n, 10))
	}

	if !hdrs.Has("Host") {
		hdrs.Set("Host", p.target.HostHeader())
	}
	if !hdrs.Has("User-Agent") {
		hdrs.Set("User-Agent", constants.UserAgent)
	}
	if !hdrs.Has("Accept") {
		hdrs.Set("Accept", "*/*")
	}
	if opts.Version == Version10 && !hdrs.Has("Connection") {
		hdrs.Set("Connection", "Keep-Alive")
	}

	var b strings.Builder
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(proto)
	hdrs.Each(func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	})
	b.WriteString("\r\n")
	return []byte(b.String()), hdrs, nil
}

// Request dispatches one request: dials (or reuses) the connection, sends
// the encoded request and body, and, unless Stream is set, drains the
// response. On return from a Stream request the pipe is positioned at the
// status line.
func (p *Pipe) Request(ctx context.Context, target transport.Target, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if _, err := protoLine(opts.Version); err != nil {
		return nil, err
	}

	p.timer = timing.NewTimer()
	if p.conn == nil || p.eof {
		if p.dialer == nil {
			return nil, errors.NewNotInitializedError("request")
		}
		connectTimeout := opts.ConnectTimeout
		if connectTimeout <= 0 {
			connectTimeout = constants.DefaultConnectTimeout
		}
		p.timer.StartConnect()
		conn, err := p.dialer.Dial(ctx, target, connectTimeout)
		p.timer.EndConnect()
		if err != nil {
			return nil, err
		}
		p.conn = conn
	}
	p.target = target
	p.line = nil
	p.eof = false
	p.chunked = false
	p.remaining = 0
	p.keepalive = true
	p.state = stateNotReady
	if opts.ReadTimeout > 0 {
		p.readTimeout = opts.ReadTimeout
	}

	head, hdrs, err := p.encode(opts)
	if err != nil {
		return nil, err
	}

	if opts.SendTimeout > 0 {
		p.conn.SetTimeout(opts.SendTimeout)
	}
	if _, err := p.conn.Send(head); err != nil {
		return nil, err
	}
	if err := p.sendBody(opts, hdrs); err != nil {
		return nil, err
	}
	p.state = stateBegin

	if opts.Stream {
		return nil, nil
	}
	return p.Response(opts.HeaderFilter, opts.BodyFilter)
}

// sendBody writes the request body: a literal body as-is, or a producer
// pulled until the Content-Length budget runs out or it stops yielding.
func (p *Pipe) sendBody(opts *Options, hdrs *header.Map) error {
	if opts.Body != nil {
		if len(opts.Body) == 0 {
			return nil
		}
		_, err := p.conn.Send(opts.Body)
		return err
	}
	if opts.BodyProducer == nil {
		return nil
	}
	budget, err := strconv.ParseInt(hdrs.Get("Content-Length"), 10, 64)
	if err != nil || budget <= 0 {
		return nil
	}
	for budget > 0 {
		chunk, err := opts.BodyProducer()
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			break
		}
		if int64(len(chunk)) > budget {
			chunk = chunk[:budget]
		}
		if _, err := p.conn.Send(chunk); err != nil {
			return err
		}
		budget -= int64(len(chunk))
	}
	return nil
}
