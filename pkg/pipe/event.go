package pipe

// EventKind tags the variants the state machine yields.
type EventKind uint8

const (
	// EventStatusLine carries the parsed status code, or the raw line when
	// the status line did not parse.
	EventStatusLine EventKind = iota + 1
	// EventHeader carries one header line.
	EventHeader
	// EventHeaderEnd marks the blank line ending the header block.
	EventHeaderEnd
	// EventBody carries one chunk of body bytes.
	EventBody
	// EventBodyEnd marks the end of the body.
	EventBodyEnd
	// EventEOF marks the end of the response cycle; the connection has been
	// finalized.
	EventEOF
)

func (k EventKind) String() string {
	switch k {
	case EventStatusLine:
		return "statusline"
	case EventHeader:
		return "header"
	case EventHeaderEnd:
		return "header_end"
	case EventBody:
		return "body"
	case EventBodyEnd:
		return "body_end"
	case EventEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Field is one parsed header line. Name is empty for lines with no colon;
// Raw always holds the literal line.
type Field struct {
	Name  string
	Value string
	Raw   string
}

// Event is the unit the state machine yields from Read.
type Event struct {
	Kind   EventKind
	Status int
	Raw    string
	Field  Field
	Data   []byte
}
