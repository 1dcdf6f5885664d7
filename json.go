package asteria

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatReal renders a real Value's textual form (§3.1/§9's Open
// Question note): infinities print as "infinity"/"-infinity", and NaN
// keeps the sign of its bit pattern rather than always printing "nan",
// because the test suite distinguishes `-nan` from `+nan`.
func formatReal(r float64) string {
	switch {
	case math.IsInf(r, 1):
		return "infinity"
	case math.IsInf(r, -1):
		return "-infinity"
	case math.IsNaN(r):
		if math.Signbit(r) {
			return "-nan"
		}
		return "nan"
	default:
		return strconv.FormatFloat(r, 'g', -1, 64)
	}
}

// PrintValue implements §4.1's `print(fmt, escape)`: surface-syntax
// emission of a single Value, one line, no recursion into containers
// beyond their literal syntax. Strings are quoted iff escape is true.
func PrintValue(v Value, escape bool) string {
	switch v.Type() {
	case TypeNull:
		return "null"
	case TypeBoolean:
		return strconv.FormatBool(v.AsBoolean())
	case TypeInteger:
		return strconv.FormatInt(v.AsInteger(), 10)
	case TypeReal:
		return formatReal(v.AsReal())
	case TypeString:
		if escape {
			return strconv.Quote(v.AsString())
		}
		return v.AsString()
	case TypeArray:
		return fmt.Sprintf("array(%d)", len(v.AsArray()))
	case TypeObject:
		return fmt.Sprintf("object(%d)", v.obj.Len())
	case TypeFunction:
		return fmt.Sprintf("function(`%s`)", v.AsFunction().Name)
	case TypeOpaque:
		return fmt.Sprintf("opaque(`%s`)", v.AsOpaque().Kind)
	default:
		return "?"
	}
}

// DumpValue implements §4.1's `dump(fmt, indent, hanging)`: structured
// debug emission recursing into arrays/objects, indenting by `indent`
// spaces per level starting at `hanging` (the caller's current column,
// so a dump embedded after a label lines up under it). `format` is
// either "compact" (single line, used by the disassembler's literal
// payload column) or "pretty" (one element per line).
func DumpValue(v Value, format string, indent, hanging int) string {
	var b strings.Builder
	dumpValue(&b, v, format == "pretty", indent, hanging)
	return b.String()
}

func dumpValue(b *strings.Builder, v Value, pretty bool, indent, col int) {
	switch v.Type() {
	case TypeArray:
		items := v.AsArray()
		if len(items) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteByte('[')
		for i, it := range items {
			if i > 0 {
				b.WriteByte(',')
			}
			if pretty {
				b.WriteByte('\n')
				b.WriteString(strings.Repeat(" ", col+indent))
			}
			dumpValue(b, it, pretty, indent, col+indent)
		}
		if pretty {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", col))
		}
		b.WriteByte(']')

	case TypeObject:
		keys := v.obj.Keys()
		if len(keys) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			if pretty {
				b.WriteByte('\n')
				b.WriteString(strings.Repeat(" ", col+indent))
			}
			fmt.Fprintf(b, "%s: ", strconv.Quote(k))
			dumpValue(b, v.obj.Get(k), pretty, indent, col+indent)
		}
		if pretty {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", col))
		}
		b.WriteByte('}')

	default:
		b.WriteString(PrintValue(v, true))
	}
}

// JSONFormat selects the serialization flavor for EncodeJSON: Strict
// is plain RFC 8259 JSON (non-finite reals become `null`); Format5 is
// the JSON5-like relaxed variant (unquoted keys where safe, trailing
// commas never emitted but accepted on decode, and non-finite reals
// spelled as bare `Infinity`/`-Infinity`/`NaN` tokens rather than
// collapsing to `null`).
type JSONFormat int

const (
	JSONStrict JSONFormat = iota
	JSONFormat5
)

// EncodeJSON implements §6's `std.json` serialization surface. Object
// keys are emitted in the Value's own insertion order (never sorted),
// so round-tripping through EncodeJSON/DecodeJSON is deterministic,
// the guarantee named in spec §6.
func EncodeJSON(v Value, format JSONFormat) (string, error) {
	var b strings.Builder
	if err := encodeJSON(&b, v, format); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeJSON(b *strings.Builder, v Value, format JSONFormat) error {
	switch v.Type() {
	case TypeNull:
		b.WriteString("null")
	case TypeBoolean:
		b.WriteString(strconv.FormatBool(v.AsBoolean()))
	case TypeInteger:
		b.WriteString(strconv.FormatInt(v.AsInteger(), 10))
	case TypeReal:
		r := v.AsReal()
		if math.IsNaN(r) || math.IsInf(r, 0) {
			if format == JSONStrict {
				b.WriteString("null")
			} else if math.IsNaN(r) {
				b.WriteString("NaN")
			} else if r > 0 {
				b.WriteString("Infinity")
			} else {
				b.WriteString("-Infinity")
			}
			return nil
		}
		b.WriteString(strconv.FormatFloat(r, 'g', -1, 64))
	case TypeString:
		b.WriteString(strconv.Quote(v.AsString()))
	case TypeArray:
		b.WriteByte('[')
		for i, it := range v.AsArray() {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeJSON(b, it, format); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case TypeObject:
		b.WriteByte('{')
		for i, k := range v.obj.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			if format == JSONFormat5 && isBareKey(k) {
				b.WriteString(k)
			} else {
				b.WriteString(strconv.Quote(k))
			}
			b.WriteByte(':')
			if err := encodeJSON(b, v.obj.Get(k), format); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return newException(StringValue("value of type `" + v.Type().String() + "` is not JSON-serializable"))
	}
	return nil
}

func isBareKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// DecodeJSON implements the read side of `std.json`: a small recursive
// descent parser producing Values directly, without going through
// `encoding/json`'s Go-typed intermediate (`interface{}`/`float64`
// would lose the integer/real distinction the core's Value type
// preserves). Format5's relaxed token set (`Infinity`/`-Infinity`/
// `NaN`, unquoted identifier keys) is accepted regardless of format,
// since a permissive reader never breaks a strict document.
func DecodeJSON(s string) (Value, error) {
	p := &jsonParser{s: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return Value{}, newException(StringValue("trailing data after JSON value"))
	}
	return v, nil
}

type jsonParser struct {
	s   string
	pos int
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r', ',':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *jsonParser) parseValue() (Value, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'':
		s, err := p.parseString()
		return StringValue(s), err
	case c == 't':
		return p.parseLiteral("true", BoolValue(true))
	case c == 'f':
		return p.parseLiteral("false", BoolValue(false))
	case c == 'n':
		return p.parseLiteral("null", NullValue)
	case c == 'N':
		return p.parseLiteral("NaN", RealValue(math.NaN()))
	case c == 'I':
		return p.parseLiteral("Infinity", RealValue(math.Inf(1)))
	case c == '-' && strings.HasPrefix(p.s[p.pos:], "-Infinity"):
		return p.parseLiteral("-Infinity", RealValue(math.Inf(-1)))
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return Value{}, newException(StringValue("unexpected character in JSON input"))
	}
}

func (p *jsonParser) parseLiteral(lit string, v Value) (Value, error) {
	if !strings.HasPrefix(p.s[p.pos:], lit) {
		return Value{}, newException(StringValue("invalid JSON literal"))
	}
	p.pos += len(lit)
	return v, nil
}

func (p *jsonParser) parseNumber() (Value, error) {
	start := p.pos
	isReal := false
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c >= '0' && c <= '9':
			p.pos++
		case c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-':
			isReal = true
			p.pos++
		default:
			goto done
		}
	}
done:
	text := p.s[start:p.pos]
	if isReal {
		r, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, newException(StringValue("invalid JSON number"))
		}
		return RealValue(r), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Value{}, newException(StringValue("invalid JSON number"))
	}
	return IntValue(i), nil
}

func (p *jsonParser) parseString() (string, error) {
	quote := p.s[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == quote {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' && p.pos+1 < len(p.s) {
			p.pos++
			switch esc := p.s[p.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(esc)
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", newException(StringValue("unterminated JSON string"))
}

func (p *jsonParser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || (p.pos > start && c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.s[start:p.pos]
}

func (p *jsonParser) parseArray() (Value, error) {
	p.pos++ // '['
	var items []Value
	p.skipSpace()
	for p.peek() != ']' {
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		p.skipSpace()
	}
	p.pos++ // ']'
	return ArrayValue(items), nil
}

func (p *jsonParser) parseObject() (Value, error) {
	p.pos++ // '{'
	obj := ObjectValue()
	p.skipSpace()
	for p.peek() != '}' {
		var key string
		var err error
		if c := p.peek(); c == '"' || c == '\'' {
			key, err = p.parseString()
			if err != nil {
				return Value{}, err
			}
		} else {
			key = p.parseIdent()
			if key == "" {
				return Value{}, newException(StringValue("expected object key in JSON input"))
			}
		}
		p.skipSpace()
		if p.peek() != ':' {
			return Value{}, newException(StringValue("expected `:` in JSON object"))
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		obj.MutObject().Set(key, v)
		p.skipSpace()
	}
	p.pos++ // '}'
	return obj, nil
}
