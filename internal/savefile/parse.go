package savefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse decodes exactly one table from src.
func Parse(src string) (Table, error) {
	p := &parser{src: src}
	p.skipSpace()
	t, err := p.table()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("%w: trailing data at offset %d", ErrSyntax, p.pos)
	}
	return t, nil
}

// Decoder reads successive top-level tables, one per line.
// Blank lines and lines starting with "--" are skipped.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Decoder{sc: sc}
}

// Next returns the next table, or io.EOF when the input is exhausted.
func (d *Decoder) Next() (Table, error) {
	for d.sc.Scan() {
		d.line++
		text := strings.TrimSpace(d.sc.Text())
		if text == "" || strings.HasPrefix(text, "--") {
			continue
		}
		t, err := Parse(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		return t, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Encoder writes one table per line.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes t followed by a newline.
func (e *Encoder) Encode(t Table) error {
	_, err := io.WriteString(e.w, t.String()+"\n")
	return err
}

// Comment writes a "--" comment line.
func (e *Encoder) Comment(text string) error {
	_, err := io.WriteString(e.w, "-- "+text+"\n")
	return err
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n', ',':
			p.pos++
		case '-':
			if strings.HasPrefix(p.src[p.pos:], "--") {
				for p.pos < len(p.src) && p.src[p.pos] != '\n' {
					p.pos++
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (p *parser) table() (Table, error) {
	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		return nil, fmt.Errorf("%w: expected '{' at offset %d", ErrSyntax, p.pos)
	}
	p.pos++
	t := Table{}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("%w: unterminated table", ErrSyntax)
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return t, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		t = append(t, v)
	}
}

func (p *parser) value() (Value, error) {
	c := p.src[p.pos]
	switch {
	case c == '{':
		t, err := p.table()
		return Tab(t), err
	case c == '"':
		s, err := p.quoted()
		return Str(s), err
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	case c >= 'a' && c <= 'z':
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= 'a' && p.src[p.pos] <= 'z' {
			p.pos++
		}
		switch word := p.src[start:p.pos]; word {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		default:
			return Value{}, fmt.Errorf("%w: unknown word %q at offset %d", ErrSyntax, word, start)
		}
	default:
		return Value{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, c, p.pos)
	}
}

func (p *parser) quoted() (string, error) {
	start := p.pos
	p.pos++
	escaped := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return "", fmt.Errorf("%w: bad string at offset %d: %v", ErrSyntax, start, err)
			}
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unterminated string at offset %d", ErrSyntax, start)
}

func (p *parser) number() (Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return Value{}, fmt.Errorf("%w: bad number at offset %d", ErrSyntax, start)
	}
	return Int(n), nil
}
