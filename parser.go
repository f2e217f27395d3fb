package gnats

import (
	"fmt"

	"github.com/gowire/gnats/internal"
)

// Op identifies a completed server operation.
type Op int

const (
	// OpNone means the parser needs more input.
	OpNone Op = iota
	OpInfo
	OpPing
	OpPong
)

func (op Op) String() string {
	switch op {
	case OpInfo:
		return "INFO"
	case OpPing:
		return "PING"
	case OpPong:
		return "PONG"
	default:
		return "none"
	}
}

type opState int

const (
	opStart opState = iota
	opEnd
	opCRLF
	opCRLFCR
	opI
	opIN
	opINF
	opINFO
	opInfoArg
	opP
	opPI
	opPIN
	opPO
	opPON
)

// OpParser scans the inbound byte stream for complete server operations:
// INFO with a JSON payload, PING and PONG. It is resumable at any byte
// boundary; op names are matched case-insensitively. Completed operations are
// returned to the caller rather than dispatched from inside the parser, so
// the connection decides what each op means.
type OpParser struct {
	state          opState
	nextState      opState
	completedOp    Op
	skipWhitespace bool

	pool       *Pool
	jsonParser *JSONParser
	json       *JSON
}

// NewOpParser creates a parser that allocates INFO payloads out of pool.
func NewOpParser(pool *Pool) *OpParser {
	return &OpParser{pool: pool}
}

// ExpectingNewOp reports whether the parser is between operations, which is
// when the connection may safely recycle the op pool.
func (ps *OpParser) ExpectingNewOp() bool {
	return ps == nil || ps.state == opStart
}

// SetPool swaps the pool used for the next INFO payload. Only legal between
// operations.
func (ps *OpParser) SetPool(pool *Pool) error {
	if !ps.ExpectingNewOp() {
		return fmt.Errorf("%w: op in progress", ErrInvalidArg)
	}
	ps.pool = pool
	return nil
}

func opErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrProtocol}, args...)...)
}

// ParseOp consumes bytes from data until one operation completes or data is
// exhausted. It returns the completed op (OpNone if more input is needed),
// the INFO payload for OpInfo, and the number of bytes consumed. After a
// completed op the parser is reset; unconsumed bytes belong to the next
// call.
func (ps *OpParser) ParseOp(data []byte) (Op, *JSON, int, error) {
	i := 0
	for i < len(data) && ps.state != opEnd {
		// INFO's payload is handed to the JSON parser wholesale; it keeps
		// its own cursor and does its own whitespace handling.
		if ps.state == opInfoArg {
			json, n, err := ps.jsonParser.Parse(data[i:])
			i += n
			if err != nil {
				return OpNone, nil, i, err
			}
			if json != nil {
				ps.json = json
				ps.jsonParser = nil
				ps.state = opCRLF
				ps.nextState = opEnd
				ps.completedOp = OpInfo
				ps.skipWhitespace = false
			}
			continue
		}

		b := data[i]
		if ps.skipWhitespace && (b == ' ' || b == '\t') {
			i++
			continue
		}

		i++
		if err := ps.processByte(b); err != nil {
			return OpNone, nil, i, err
		}
	}

	if ps.state == opEnd {
		op, json := ps.completedOp, ps.json
		ps.state = opStart
		ps.completedOp = OpNone
		ps.json = nil
		return op, json, i, nil
	}
	return OpNone, nil, i, nil
}

func (ps *OpParser) processByte(b byte) error {
	switch ps.state {
	case opStart:
		ps.skipWhitespace = false
		switch internal.ToLower(b) {
		case 'i':
			ps.state = opI
		case 'p':
			ps.state = opP
		default:
			return opErrorf("expected an operation, got: '%c'", b)
		}

	case opCRLF:
		if b != '\r' {
			return opErrorf("expected a CRLF, got: '%x'", b)
		}
		ps.state = opCRLFCR

	case opCRLFCR:
		if b != '\n' {
			return opErrorf("expected a CRLF, got: '%x'", b)
		}
		ps.state = ps.nextState
		ps.nextState = opStart

	case opI:
		if internal.ToLower(b) != 'n' {
			return opErrorf("expected INFO, got: '%c'", b)
		}
		ps.state = opIN

	case opIN:
		if internal.ToLower(b) != 'f' {
			return opErrorf("expected INFO, got: '%c'", b)
		}
		ps.state = opINF

	case opINF:
		if internal.ToLower(b) != 'o' {
			return opErrorf("expected INFO, got: '%c'", b)
		}
		ps.state = opINFO

	case opINFO:
		if b != ' ' && b != '\t' {
			return opErrorf("expected a space, got: '%c'", b)
		}
		jp, err := NewJSONParser(ps.pool)
		if err != nil {
			return err
		}
		ps.jsonParser = jp
		ps.json = nil
		ps.state = opInfoArg
		ps.skipWhitespace = true

	case opP:
		switch internal.ToLower(b) {
		case 'i':
			ps.state = opPI
		case 'o':
			ps.state = opPO
		default:
			return opErrorf("expected a PING or PONG, got: '%c'", b)
		}

	case opPI:
		if internal.ToLower(b) != 'n' {
			return opErrorf("expected a PING, got: '%c'", b)
		}
		ps.state = opPIN

	case opPIN:
		if internal.ToLower(b) != 'g' {
			return opErrorf("expected a PING, got: '%c'", b)
		}
		ps.state = opCRLF
		ps.nextState = opEnd
		ps.completedOp = OpPing

	case opPO:
		if internal.ToLower(b) != 'n' {
			return opErrorf("expected a PONG, got: '%c'", b)
		}
		ps.state = opPON

	case opPON:
		if internal.ToLower(b) != 'g' {
			return opErrorf("expected a PONG, got: '%c'", b)
		}
		ps.state = opCRLF
		ps.nextState = opEnd
		ps.completedOp = OpPong

	default:
		return opErrorf("invalid state: %d", ps.state)
	}
	return nil
}
