package gnats

import (
	"fmt"
	"strconv"
)

type jsonState int

const (
	jsonStateStart jsonState = iota
	jsonStateEnd
	jsonStateFields
	jsonStateElements
	jsonStateColon
	jsonStateString
	jsonStateStringEscape
	jsonStateStringUTF16
	jsonStateValue
	jsonStateValueString
	jsonStateValueTrue
	jsonStateValueFalse
	jsonStateValueNull
	jsonStateValueArray
	jsonStateValueObject
	jsonStateValueNumeric
)

const jsonScratchSize = 64

// arrayElemName is the placeholder field name given to array elements.
const arrayElemName = "array"

// JSONParser is a resumable byte-at-a-time JSON scanner. Feed it chunks with
// Parse; it returns the finished document once the closing brace or bracket
// has been consumed, and holds its state across calls split at any byte
// boundary. Nested objects and arrays get their own frame, chained off the
// parent; the chain is bounded by MemOptions.MaxNested.
type JSONParser struct {
	state jsonState

	// The document being built by this frame.
	json *JSON

	// One character can be pushed back and re-processed.
	undoCh byte

	skipWhitespace bool

	// The current field (or array element) being parsed.
	field *Field

	// Frame chain for nested values. The root frame owns strBuf; children
	// borrow it.
	nestedLevel int
	nested      *JSONParser
	parent      *JSONParser

	// Scratch for numbers and the literals true/false/null.
	scratch    [jsonScratchSize]byte
	scratchLen int

	// String accumulation; nextState is entered once the closing quote is
	// consumed.
	strBuf    *Buf
	nextState jsonState

	// One-shot flags while scanning a number. The sign flag is re-armed
	// after an exponent marker.
	numErrorOnSign bool
	numErrorOnDot  bool
	numErrorOnE    bool

	// Position in the input, for error reporting.
	line int
	pos  int

	maxNested int
}

// NewJSONParser creates a parser for a top-level object, allocating out of
// pool.
func NewJSONParser(pool *Pool) (*JSONParser, error) {
	return newJSONParser(pool, false, nil)
}

func newJSONParser(pool *Pool, isArray bool, from *JSONParser) (*JSONParser, error) {
	nestedLevel := 0
	maxNested := pool.opts.MaxNested
	if from != nil {
		nestedLevel = from.nestedLevel + 1
		maxNested = from.maxNested
	}
	if nestedLevel >= maxNested {
		return nil, fmt.Errorf("%w: reached maximum of %d", ErrNestedTooDeep, maxNested)
	}

	json := &JSON{pool: pool}
	if isArray {
		json.array = &Array{}
	} else {
		fields, err := NewStrHash[*Field](pool, 4)
		if err != nil {
			return nil, err
		}
		json.fields = fields
	}

	p := &JSONParser{
		json:           json,
		skipWhitespace: true,
		nestedLevel:    nestedLevel,
		maxNested:      maxNested,
	}
	if from != nil {
		if isArray {
			p.state = jsonStateElements
		} else {
			p.state = jsonStateFields
		}
		p.parent = from
		p.line = from.line
		p.pos = from.pos
		p.strBuf = from.strBuf
		p.strBuf.Reset()
	} else {
		p.state = jsonStateStart
		buf, err := pool.GetGrowableBuf(0)
		if err != nil {
			return nil, err
		}
		p.strBuf = buf
	}
	return p, nil
}

// deepest returns the innermost active frame.
func (p *JSONParser) deepest() *JSONParser {
	cur := p
	for cur.nested != nil {
		cur = cur.nested
	}
	return cur
}

func (p *JSONParser) errorf(format string, args ...any) error {
	return &ParseError{
		Msg:  fmt.Sprintf(format, args...),
		Line: p.line,
		Pos:  p.pos,
	}
}

// Parse consumes bytes from data and returns (doc, consumed, nil) once the
// document is complete, or (nil, len(data), nil) when more input is needed.
// On a complete document, consumed counts up to and including the closing
// brace or bracket; trailing bytes are left for the caller. Parse must be
// called on the root parser only.
func (p *JSONParser) Parse(data []byte) (*JSON, int, error) {
	consumed := 0
	cur := p.deepest()

	for {
		if cur.state == jsonStateEnd {
			par := cur.parent
			if par == nil {
				return cur.json, consumed, nil
			}
			par.line, par.pos = cur.line, cur.pos
			if err := par.finishNestedValue(cur.json); err != nil {
				return nil, consumed, err
			}
			par.nested = nil
			cur = par
			continue
		}

		ch := cur.undoCh
		if ch == 0 {
			if consumed == len(data) {
				return nil, consumed, nil
			}
			ch = data[consumed]
			consumed++
			cur.pos++
		} else {
			cur.undoCh = 0
		}

		if ch == '\n' {
			cur.line++
			cur.pos = 0
			continue
		}
		if cur.skipWhitespace && (ch == ' ' || ch == '\t' || ch == '\r') {
			continue
		}

		next, err := cur.processByte(ch)
		if err != nil {
			return nil, consumed, err
		}
		if next != nil {
			cur = next
		}
	}
}

// processByte advances the frame by one byte. It returns a non-nil frame
// when a nested value opens and the caller must hand subsequent bytes to the
// child.
func (p *JSONParser) processByte(ch byte) (*JSONParser, error) {
	switch p.state {
	case jsonStateStart:
		switch {
		case p.json.array != nil && ch == '[':
			p.state = jsonStateElements
		case p.json.fields != nil && ch == '{':
			p.state = jsonStateFields
		default:
			return nil, p.errorf("invalid character '%c', expected '{' or '[' at the start of JSON", ch)
		}
		return nil, nil

	case jsonStateFields:
		switch ch {
		case '}':
			p.state = jsonStateEnd
			p.skipWhitespace = false // leave trailing bytes to the caller
			return nil, nil
		case ',':
			return nil, nil
		case '"':
			p.startString(jsonStateColon)
			return nil, nil
		default:
			return nil, p.errorf("invalid character '%c', expected start of a named field", ch)
		}

	case jsonStateElements:
		switch ch {
		case ']':
			p.state = jsonStateEnd
			p.skipWhitespace = false
			return nil, nil
		case ',':
			p.field = &Field{Name: arrayElemName}
			p.state = jsonStateValue
			return nil, nil
		default:
			p.undoCh = ch
			p.field = &Field{Name: arrayElemName}
			p.state = jsonStateValue
			return nil, nil
		}

	case jsonStateColon:
		if ch != ':' {
			return nil, p.errorf("invalid character '%c', expected a ':'", ch)
		}
		p.field = &Field{Name: p.strBuf.String()}
		p.state = jsonStateValue
		return nil, nil

	case jsonStateValue:
		switch ch {
		case '"':
			p.startString(jsonStateValueString)
			p.field.typ = TypeStr
			return nil, nil
		case 'n':
			p.startValue(jsonStateValueNull, TypeNull, ch)
			return nil, nil
		case 't':
			p.startValue(jsonStateValueTrue, TypeBool, ch)
			return nil, nil
		case 'f':
			p.startValue(jsonStateValueFalse, TypeBool, ch)
			return nil, nil
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-', '+', '.':
			p.startValue(jsonStateValueNumeric, TypeNum, ch)
			switch ch {
			case '-', '+':
				p.field.numTyp = TypeInt
				p.numErrorOnSign = true
			case '.':
				p.field.numTyp = TypeDouble
				p.numErrorOnDot = true
			default:
				p.field.numTyp = TypeUint
			}
			return nil, nil
		case '[':
			p.state = jsonStateValueArray
			child, err := newJSONParser(p.json.pool, true, p)
			if err != nil {
				return nil, err
			}
			p.nested = child
			return child, nil
		case '{':
			p.state = jsonStateValueObject
			child, err := newJSONParser(p.json.pool, false, p)
			if err != nil {
				return nil, err
			}
			p.nested = child
			return child, nil
		default:
			return nil, p.errorf("invalid character '%c', expected a start of a value", ch)
		}

	case jsonStateValueNull:
		switch ch {
		case 'u', 'l':
			if err := p.addToScratch(ch); err != nil {
				return nil, err
			}
			if p.scratchLen == len("null") {
				if string(p.scratch[:p.scratchLen]) != "null" {
					return nil, p.errorf("invalid string '%s', expected 'null'", p.scratch[:p.scratchLen])
				}
				return nil, p.finishValue()
			}
			return nil, nil
		default:
			return nil, p.errorf("invalid character '%c', expected 'null'", ch)
		}

	case jsonStateValueTrue:
		switch ch {
		case 'r', 'u', 'e':
			if err := p.addToScratch(ch); err != nil {
				return nil, err
			}
			if p.scratchLen == len("true") {
				return nil, p.finishBoolValue()
			}
			return nil, nil
		default:
			return nil, p.errorf("invalid character '%c', expected 'true'", ch)
		}

	case jsonStateValueFalse:
		switch ch {
		case 'a', 'l', 's', 'e':
			if err := p.addToScratch(ch); err != nil {
				return nil, err
			}
			if p.scratchLen == len("false") {
				return nil, p.finishBoolValue()
			}
			return nil, nil
		default:
			return nil, p.errorf("invalid character '%c', expected 'false'", ch)
		}

	case jsonStateValueNumeric:
		switch ch {
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-', '+', '.', 'e', 'E':
			if ch == '+' || ch == '-' {
				if p.numErrorOnSign {
					return nil, p.errorf("error parsing a number: unexpected sign after %s", p.scratch[:p.scratchLen])
				}
				p.numErrorOnSign = true
			}
			if ch == '.' {
				if p.numErrorOnDot {
					return nil, p.errorf("error parsing a number: unexpected '.' after %s", p.scratch[:p.scratchLen])
				}
				p.numErrorOnDot = true
				p.field.numTyp = TypeDouble
			}
			if ch == 'e' || ch == 'E' {
				if p.numErrorOnE {
					return nil, p.errorf("error parsing a number: unexpected 'e' after %s", p.scratch[:p.scratchLen])
				}
				p.numErrorOnE = true
				p.numErrorOnSign = false // allow a sign in the exponent
				p.field.numTyp = TypeDouble
			}
			if err := p.addToScratch(ch); err != nil {
				return nil, err
			}
			return nil, nil
		default:
			// Any other character ends the number; push it back for
			// re-processing.
			p.undoCh = ch
			return nil, p.finishNumericValue()
		}

	case jsonStateString:
		switch ch {
		case '"':
			return nil, p.finishString()
		case '\\':
			p.state = jsonStateStringEscape
			return nil, nil
		default:
			return nil, p.strBuf.AppendByte(ch)
		}

	case jsonStateStringEscape:
		// Whatever comes, the next character is not escaped, except the
		// \uXXXX form handled below.
		p.state = jsonStateString
		switch ch {
		case 'b':
			return nil, p.strBuf.AppendByte('\b')
		case 'f':
			return nil, p.strBuf.AppendByte('\f')
		case 'n':
			return nil, p.strBuf.AppendByte('\n')
		case 'r':
			return nil, p.strBuf.AppendByte('\r')
		case 't':
			return nil, p.strBuf.AppendByte('\t')
		case 'u':
			p.state = jsonStateStringUTF16
			p.resetScratch()
			return nil, nil
		case '"', '\\', '/':
			return nil, p.strBuf.AppendByte(ch)
		default:
			return nil, p.errorf("error parsing string: invalid control character '%c'", ch)
		}

	case jsonStateStringUTF16:
		if err := p.addToScratch(ch); err != nil {
			return nil, err
		}
		if p.scratchLen == 4 {
			val, ok := decodeUTF16(p.scratch[:4])
			if !ok {
				return nil, p.errorf("error parsing string '%s': invalid unicode character", p.scratch[:4])
			}
			if err := p.strBuf.AppendByte(val); err != nil {
				return nil, err
			}
			p.state = jsonStateString
			p.resetScratch()
		}
		return nil, nil

	default:
		return nil, p.errorf("invalid state %d", p.state)
	}
}

func (p *JSONParser) resetScratch() {
	clear(p.scratch[:])
	p.scratchLen = 0
}

func (p *JSONParser) addToScratch(ch byte) error {
	if p.scratchLen >= jsonScratchSize-1 {
		return p.errorf("insufficient scratch buffer, got '%s'", p.scratch[:p.scratchLen])
	}
	p.scratch[p.scratchLen] = ch
	p.scratchLen++
	return nil
}

func (p *JSONParser) startString(nextState jsonState) {
	p.strBuf.Reset()
	p.state = jsonStateString
	p.nextState = nextState
	p.skipWhitespace = false
}

func (p *JSONParser) startValue(state jsonState, typ ValueType, firstCh byte) {
	p.resetScratch()
	if firstCh != 0 {
		p.scratch[0] = firstCh
		p.scratchLen = 1
	}
	p.state = state
	p.skipWhitespace = false
	p.field.typ = typ

	p.numErrorOnSign = false
	p.numErrorOnDot = false
	p.numErrorOnE = false
}

func (p *JSONParser) finishString() error {
	if p.nextState == jsonStateValueString {
		p.field.str = p.strBuf.String()
		return p.finishValue()
	}
	p.state = p.nextState
	p.skipWhitespace = true
	return nil
}

// finishValue stores the completed field in the frame's document and rearms
// the frame for the next field or element.
func (p *JSONParser) finishValue() error {
	if p.json.array != nil {
		if err := p.json.array.append(p.field); err != nil {
			return err
		}
		p.state = jsonStateElements
	} else {
		if err := p.json.fields.Set(p.field.Name, p.field); err != nil {
			return err
		}
		p.state = jsonStateFields
	}
	p.field = nil
	p.skipWhitespace = true
	return nil
}

func (p *JSONParser) finishBoolValue() error {
	p.field.typ = TypeBool
	switch string(p.scratch[:p.scratchLen]) {
	case "true":
		p.field.b = true
	case "false":
		p.field.b = false
	default:
		return p.errorf("error parsing boolean '%s'", p.scratch[:p.scratchLen])
	}
	return p.finishValue()
}

func (p *JSONParser) finishNumericValue() error {
	var err error
	lit := string(p.scratch[:p.scratchLen])

	p.field.typ = TypeNum
	// numTyp was classified while scanning for sign, '.' and 'e'.
	switch p.field.numTyp {
	case TypeInt:
		p.field.i, err = strconv.ParseInt(lit, 10, 64)
	case TypeUint:
		p.field.u, err = strconv.ParseUint(lit, 10, 64)
	default:
		p.field.f, err = strconv.ParseFloat(lit, 64)
	}
	if err != nil {
		return p.errorf("error parsing number '%s'", lit)
	}
	return p.finishValue()
}

// finishNestedValue attaches a completed child document to the frame's
// pending field.
func (p *JSONParser) finishNestedValue(doc *JSON) error {
	switch p.state {
	case jsonStateValueArray:
		if doc.array == nil {
			return p.errorf("unexpected error parsing array")
		}
		if doc.array.typ == TypeNotSet {
			doc.array.typ = TypeNull
		}
		p.field.typ = TypeArray
		p.field.arr = doc.array
	case jsonStateValueObject:
		if doc.fields == nil {
			return p.errorf("unexpected error parsing object")
		}
		p.field.typ = TypeObject
		p.field.obj = doc
	default:
		return p.errorf("unexpected error parsing nested value '%s'", p.field.Name)
	}
	return p.finishValue()
}

func decodeUTF16(hex []byte) (byte, bool) {
	res := 0
	for _, c := range hex {
		switch {
		case c >= '0' && c <= '9':
			res = res<<4 + int(c-'0')
		case c >= 'a' && c <= 'f':
			res = res<<4 + int(c-'a'+10)
		case c >= 'A' && c <= 'F':
			res = res<<4 + int(c-'A'+10)
		default:
			return 0, false
		}
	}
	return byte(res), true
}
