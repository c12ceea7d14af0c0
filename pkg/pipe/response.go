package pipe

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sorales/go-httpipe/pkg/buffer"
	"github.com/sorales/go-httpipe/pkg/errors"
	"github.com/sorales/go-httpipe/pkg/header"
	"github.com/sorales/go-httpipe/pkg/timing"
)

// Response is the assembled result of one request/response cycle.
type Response struct {
	// Status is the numeric status code, 0 when the status line was
	// malformed.
	Status int

	// RawStatus holds the literal status line when it did not parse.
	RawStatus string

	// Headers holds the normalized response headers.
	Headers *header.Map

	// Body accumulates the response body unless a body filter consumed it.
	Body *buffer.Buffer

	// EOF reports whether the cycle completed and the connection was
	// finalized.
	EOF bool

	// Metrics carries the cycle timings when the cycle was driven by
	// Request.
	Metrics timing.Metrics
}

var statusLineRe = regexp.MustCompile(`^HTTP/(\d)\.(\d) (\d{3})`)

// readStatusLine handles the Begin state. Interim 100 responses are consumed
// here, so the caller only ever observes the final status line.
func (p *Pipe) readStatusLine() (Event, error) {
	if p.line == nil {
		p.line = p.conn.ReceiveUntil("\r\n")
	}
	for {
		line, err := p.line.ReadLine()
		if err != nil {
			return Event{}, err
		}
		if p.timer != nil {
			p.timer.EndTTFB()
		}
		m := statusLineRe.FindStringSubmatch(line)
		if m == nil {
			// Surfaced as data so the caller can inspect the literal line.
			p.state = stateReadingHeader
			return Event{Kind: EventStatusLine, Raw: line}, errors.NewMalformedStatusError(line)
		}
		code, _ := strconv.Atoi(m[3])
		if m[1] != "1" || m[2] == "0" {
			// HTTP/1.0 and older default to close; an explicit keep-alive
			// header can still turn reuse back on.
			p.keepalive = false
		}
		if code == 100 {
			// Interim response: discard the blank line and parse the real
			// status line that follows.
			if _, err := p.line.ReadLine(); err != nil {
				return Event{}, err
			}
			continue
		}
		p.state = stateReadingHeader
		return Event{Kind: EventStatusLine, Status: code}, nil
	}
}

// readHeaderLine handles the ReadingHeader state, one line per call.
func (p *Pipe) readHeaderLine() (Event, error) {
	line, err := p.line.ReadLine()
	if err != nil {
		return Event{}, err
	}
	if line == "" {
		p.state = stateReadingBody
		return Event{Kind: EventHeaderEnd}, nil
	}
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		// No colon: pass the line through verbatim in the value slot.
		return Event{Kind: EventHeader, Field: Field{Value: line, Raw: line}}, nil
	}
	name := header.Canonical(strings.TrimSpace(line[:i]))
	value := strings.TrimLeft(line[i+1:], " \t")

	switch name {
	case "Content-Length":
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil && n >= 0 {
			p.remaining = n
		}
	case "Transfer-Encoding":
		if !strings.EqualFold(value, "identity") {
			p.chunked = true
		}
	case "Connection":
		if strings.EqualFold(value, "close") {
			p.keepalive = false
		} else if strings.EqualFold(value, "keep-alive") {
			p.keepalive = true
		}
	}
	return Event{Kind: EventHeader, Field: Field{Name: name, Value: value, Raw: line}}, nil
}

// readBodyData handles the ReadingBody state: chunk framing, fixed-length
// reads, and closed-connection reconciliation.
func (p *Pipe) readBodyData() (Event, error) {
	if p.method == "HEAD" {
		// HEAD responses never carry a body regardless of headers.
		return p.finishBody()
	}

	if p.chunked && p.remaining == 0 {
		size, err := p.readChunkSize()
		if err != nil {
			return Event{}, err
		}
		if size == 0 {
			// Final chunk: skip the trailer line.
			if _, err := p.line.ReadLine(); err != nil {
				return Event{}, err
			}
			return p.finishBody()
		}
		p.remaining = size
	}

	if p.remaining == 0 {
		return p.finishBody()
	}

	max := p.remaining
	if max > int64(p.chunkSize) {
		max = int64(p.chunkSize)
	}
	data, err := p.conn.Receive(int(max))
	if err != nil {
		if errors.IsClosed(err) {
			// A peer may legally close right after the last body byte.
			p.keepalive = false
			if len(data) > 0 {
				if int64(len(data)) == p.remaining {
					p.remaining = 0
					return Event{Kind: EventBody, Data: data}, nil
				}
				return Event{}, errors.NewClosedError("connection closed with truncated body", err)
			}
			return p.finishBody()
		}
		return Event{}, err
	}
	p.remaining -= int64(len(data))
	return Event{Kind: EventBody, Data: data}, nil
}

// readChunkSize reads the next hex chunk-size line, tolerating one blank
// line left over from the previous chunk's CRLF boundary.
func (p *Pipe) readChunkSize() (int64, error) {
	line, err := p.line.ReadLine()
	if err != nil {
		return 0, err
	}
	if line == "" {
		line, err = p.line.ReadLine()
		if err != nil {
			return 0, err
		}
	}
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	size, err := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
	if err != nil || size < 0 {
		return 0, errors.NewProtocolError("invalid chunk size line "+strconv.Quote(line), err)
	}
	return size, nil
}

func (p *Pipe) finishBody() (Event, error) {
	p.state = stateEOF
	return Event{Kind: EventBodyEnd}, nil
}

// readEOF finalizes the connection exactly once and reports eof thereafter.
func (p *Pipe) readEOF() (Event, error) {
	if !p.eof {
		if err := p.finalize(); err != nil {
			return Event{}, err
		}
	}
	return Event{Kind: EventEOF}, nil
}

// HeaderFilter inspects the assembled status and headers at header_end. A
// true return stops the drain loop so the caller can take over body reads.
type HeaderFilter func(status int, headers *header.Map) bool

// BodyFilter consumes one body chunk in place of the internal buffer. A true
// return stops the drain loop.
type BodyFilter func(chunk []byte) bool

// Response drains the state machine until eof, assembling the result. With
// a header filter the drain can stop at header_end; with a body filter the
// chunks bypass the internal buffer.
func (p *Pipe) Response(headerFilter HeaderFilter, bodyFilter BodyFilter) (*Response, error) {
	resp := &Response{
		Headers: header.NewMap(),
		Body:    buffer.New(p.bodyMemLimit),
	}
	if p.timer != nil {
		p.timer.StartTTFB()
	}
	for {
		ev, err := p.Read()
		if err != nil {
			if errors.IsMalformedStatus(err) {
				resp.RawStatus = ev.Raw
			}
			resp.EOF = p.eof
			return resp, err
		}
		switch ev.Kind {
		case EventStatusLine:
			resp.Status = ev.Status
		case EventHeader:
			if ev.Field.Name != "" {
				resp.Headers.Add(ev.Field.Name, ev.Field.Value)
			}
		case EventHeaderEnd:
			if headerFilter != nil && headerFilter(resp.Status, resp.Headers) {
				return resp, nil
			}
		case EventBody:
			if bodyFilter != nil {
				if bodyFilter(ev.Data) {
					return resp, nil
				}
			} else if _, err := resp.Body.Write(ev.Data); err != nil {
				return resp, err
			}
		case EventEOF:
			resp.EOF = true
			if p.timer != nil {
				resp.Metrics = p.timer.Metrics()
			}
			return resp, nil
		}
	}
}

// ReadBody returns the next raw body chunk for manual streaming. A nil chunk
// with nil error means the body is done and the connection was finalized.
func (p *Pipe) ReadBody() ([]byte, error) {
	if p.conn == nil {
		return nil, errors.NewNotInitializedError("read body")
	}
	if p.state < stateReadingBody {
		return nil, errors.NewNotReadyError()
	}
	ev, err := p.Read()
	if err != nil {
		return nil, err
	}
	switch ev.Kind {
	case EventBody:
		return ev.Data, nil
	case EventBodyEnd:
		if _, err := p.Read(); err != nil {
			return nil, err
		}
		return nil, nil
	case EventEOF:
		return nil, nil
	default:
		return nil, errors.NewBadStateError(int(p.state))
	}
}
