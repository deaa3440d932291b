// Package tokenizer splits decoded text lines into fields.
//
// Quoting follows the usual spreadsheet convention: a quote character at the
// start of a field opens quoting, a doubled quote inside a quoted field is a
// literal quote, and text after the closing quote continues the same field
// unquoted. The line
//
//	12.3,"New York, NY","3'2""","ABC"DEF
//
// yields `12.3`, `New York, NY`, `3'2"` and `ABCDEF`. A quote anywhere other
// than the start of a field is an ordinary character.
package tokenizer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/source"
)

const (
	// DefaultMaxFields caps the number of fields in one row
	DefaultMaxFields = 2000
	// DefaultMaxFieldChars caps the byte length of one field
	DefaultMaxFieldChars = 4000
)

// Config controls how lines are split
type Config struct {
	// Delimiter separates fields. ' ' or 0 selects whitespace mode, where runs
	// of spaces and tabs separate fields and surrounding whitespace is dropped.
	Delimiter rune
	// Quote opens and closes quoted fields. 0 disables quoting.
	Quote rune
	// Comment starts a comment that runs to the end of the line. It may be one
	// or two characters long; empty disables comments.
	Comment string
	// AllowEmbeddedNewline lets a quoted field continue on the next line.
	// Without it an unterminated quote is an error.
	AllowEmbeddedNewline bool
	// IgnoreLeadingSpaces drops spaces at the start of unquoted fields
	IgnoreLeadingSpaces bool
	// IgnoreTrailingSpaces drops spaces at the end of fields
	IgnoreTrailingSpaces bool
	// MaxFields limits fields per row; 0 means DefaultMaxFields, negative means no limit
	MaxFields int
	// MaxFieldChars limits bytes per field; 0 means DefaultMaxFieldChars, negative means no limit
	MaxFieldChars int
}

// DefaultConfig returns comma-separated, double-quoted, '#'-commented settings
func DefaultConfig() Config {
	return Config{
		Delimiter: ',',
		Quote:     '"',
		Comment:   "#",
	}
}

// Validate checks the settings for conflicts
func (c Config) Validate() error {
	if utf8.RuneCountInString(c.Comment) > 2 {
		return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			"comment marker must be at most two characters").WithDetail("comment", c.Comment)
	}
	if c.Quote != 0 && c.Quote == c.Delimiter {
		return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			"quote and delimiter must differ").WithDetail("quote", string(c.Quote))
	}
	if c.Comment != "" {
		first, _ := utf8.DecodeRuneInString(c.Comment)
		if first == c.Delimiter || (c.Quote != 0 && first == c.Quote) {
			return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
				"comment marker collides with delimiter or quote").WithDetail("comment", c.Comment)
		}
	}
	if c.Delimiter == '\n' || c.Delimiter == '\r' || c.Quote == '\n' || c.Quote == '\r' {
		return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			"line terminators cannot be delimiter or quote")
	}
	return nil
}

// Whitespace reports whether the delimiter selects whitespace mode
func (c Config) Whitespace() bool {
	return c.Delimiter == ' ' || c.Delimiter == 0
}

// Token is the text of one field and the column it occupies
type Token struct {
	Text   string
	Column int
}

// Texts returns just the field texts
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// mark is a delimiter, quote or comment marker encoded as UTF-8
type mark struct {
	s string
}

func newMark(r rune) mark {
	if r == 0 {
		return mark{}
	}
	return mark{s: string(r)}
}

func (m mark) at(line string, i int) bool {
	switch len(m.s) {
	case 0:
		return false
	case 1:
		return line[i] == m.s[0]
	}
	return strings.HasPrefix(line[i:], m.s)
}

type state uint8

const (
	stateInit state = iota
	stateUnquoted
	stateQuoted
	stateWhitespace
)

// Tokenizer splits lines into tokens. A Tokenizer is not safe for concurrent use.
type Tokenizer struct {
	cfg       Config
	delim     mark
	quote     mark
	comment   mark
	maxFields int
	maxChars  int

	// row being assembled
	buf        []byte
	ends       []int
	tokens     []Token
	state      state
	fieldStart int
	trailing   int
	sawQuote   bool

	rowLine   int
	rowOffset int64
}

// New returns a Tokenizer for cfg
func New(cfg Config) (*Tokenizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tokenizer{
		cfg:       cfg,
		delim:     newMark(cfg.Delimiter),
		quote:     newMark(cfg.Quote),
		comment:   mark{s: cfg.Comment},
		maxFields: cfg.MaxFields,
		maxChars:  cfg.MaxFieldChars,
	}
	if t.maxFields == 0 {
		t.maxFields = DefaultMaxFields
	}
	if t.maxChars == 0 {
		t.maxChars = DefaultMaxFieldChars
	}
	return t, nil
}

// Config returns the settings the tokenizer was built with
func (t *Tokenizer) Config() Config {
	return t.cfg
}

// RowLine is the 1-based line number where the last returned row started
func (t *Tokenizer) RowLine() int {
	return t.rowLine
}

// RowOffset is the approximate byte offset where the last returned row started
func (t *Tokenizer) RowOffset() int64 {
	return t.rowOffset
}

// IsBlank reports whether line holds only whitespace or a comment
func (t *Tokenizer) IsBlank(line string) bool {
	i := 0
	for i < len(line) {
		switch line[i] {
		case ' ', '\t', '\r', '\n', '\v', '\f':
			i++
			continue
		}
		break
	}
	return i == len(line) || t.comment.at(line, i)
}

// TokenizeLine splits a single line. It returns nil for blank and comment-only
// lines. The returned slice is reused by the next call; the strings are not.
func (t *Tokenizer) TokenizeLine(line string) ([]Token, error) {
	line = trimTerminator(line)
	if t.IsBlank(line) {
		return nil, nil
	}
	t.reset()
	done, err := t.feed(line)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, errors.Wrap(errors.ErrUnterminatedQuote, errors.ErrorTypeStructure,
			"quoted field not closed before end of line")
	}
	return t.finish(), nil
}

// LineReader is the part of a source the tokenizer reads from
type LineReader interface {
	NextLine() (string, error)
	LineNumber() int
	Position() int64
}

// Next reads lines from src until it has a complete, non-blank row. At the end
// of input it returns source.ErrEndOfInput. The returned slice is reused by
// the next call; the strings are not.
func (t *Tokenizer) Next(src LineReader) ([]Token, error) {
	for {
		offset := src.Position()
		line, err := src.NextLine()
		if err != nil {
			return nil, err
		}
		line = trimTerminator(line)
		if t.IsBlank(line) {
			continue
		}

		t.reset()
		t.rowLine = src.LineNumber()
		t.rowOffset = offset
		for {
			done, err := t.feed(line)
			if err != nil {
				return nil, t.annotate(err)
			}
			if done {
				return t.finish(), nil
			}
			// Inside quotes with embedded newlines allowed: keep the line break.
			t.buf = append(t.buf, '\n')
			next, err := src.NextLine()
			if err == source.ErrEndOfInput {
				return nil, t.annotate(errors.Wrap(errors.ErrUnterminatedQuote, errors.ErrorTypeStructure,
					"end of input inside quoted field"))
			}
			if err != nil {
				return nil, err
			}
			line = trimTerminator(next)
		}
	}
}

func (t *Tokenizer) annotate(err error) error {
	var e *errors.Error
	if errors.As(err, &e) {
		e.Message = e.Message + " at line " + strconv.Itoa(t.rowLine)
		e.WithDetail("line", t.rowLine).WithDetail("offset", t.rowOffset)
	}
	return err
}

func trimTerminator(line string) string {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
		if n > 1 && line[n-2] == '\r' {
			line = line[:n-2]
		}
	}
	return line
}

func (t *Tokenizer) reset() {
	t.buf = t.buf[:0]
	t.ends = t.ends[:0]
	t.fieldStart = 0
	t.trailing = 0
	t.sawQuote = false
	if t.cfg.Whitespace() {
		t.state = stateWhitespace
	} else {
		t.state = stateInit
	}
}

// finish turns the assembled row into tokens backed by one string
func (t *Tokenizer) finish() []Token {
	row := string(t.buf)
	t.tokens = t.tokens[:0]
	start := 0
	for i, end := range t.ends {
		t.tokens = append(t.tokens, Token{Text: row[start:end], Column: i})
		start = end
	}
	return t.tokens
}

func (t *Tokenizer) endField() error {
	if t.cfg.IgnoreTrailingSpaces && t.trailing > 0 {
		t.buf = t.buf[:len(t.buf)-t.trailing]
	}
	if len(t.ends) >= t.maxFields && t.maxFields > 0 {
		return errors.Wrap(errors.ErrTooManyFields, errors.ErrorTypeStructure,
			"row has more than "+strconv.Itoa(t.maxFields)+" fields").
			WithDetail("max_fields", t.maxFields)
	}
	t.ends = append(t.ends, len(t.buf))
	t.fieldStart = len(t.buf)
	t.trailing = 0
	return nil
}

func (t *Tokenizer) appendText(s string) error {
	t.buf = append(t.buf, s...)
	if t.maxChars > 0 && len(t.buf)-t.fieldStart > t.maxChars {
		return errors.Wrap(errors.ErrTooManyChars, errors.ErrorTypeStructure,
			"field longer than "+strconv.Itoa(t.maxChars)+" bytes").
			WithDetail("max_field_chars", t.maxChars)
	}
	return nil
}

// charAt returns the full UTF-8 sequence starting at line[i]
func charAt(line string, i int) string {
	if line[i] < utf8.RuneSelf {
		return line[i : i+1]
	}
	_, n := utf8.DecodeRuneInString(line[i:])
	return line[i : i+n]
}

// feed consumes one line of content. It reports done=false only when the line
// ends inside a quoted field and embedded newlines are allowed.
func (t *Tokenizer) feed(line string) (bool, error) {
	if t.cfg.Whitespace() {
		return t.feedWhitespace(line)
	}
	return t.feedDelimited(line)
}

func (t *Tokenizer) feedDelimited(line string) (bool, error) {
	i := 0
	for i < len(line) {
		switch t.state {
		case stateInit, stateUnquoted:
			switch {
			case t.state == stateInit && t.quote.at(line, i):
				t.state = stateQuoted
				t.sawQuote = true
				i += len(t.quote.s)
				continue
			case t.state == stateInit && t.cfg.IgnoreLeadingSpaces && line[i] == ' ':
				i++
				continue
			case t.delim.at(line, i):
				if err := t.endField(); err != nil {
					return false, err
				}
				t.state = stateInit
				i += len(t.delim.s)
				continue
			case t.comment.at(line, i):
				return true, t.endField()
			}
			ch := charAt(line, i)
			if err := t.appendText(ch); err != nil {
				return false, err
			}
			if ch == " " {
				t.trailing++
			} else {
				t.trailing = 0
			}
			t.state = stateUnquoted
			i += len(ch)

		case stateQuoted:
			if t.quote.at(line, i) {
				n := len(t.quote.s)
				if i+n < len(line) && t.quote.at(line, i+n) {
					if err := t.appendText(t.quote.s); err != nil {
						return false, err
					}
					i += 2 * n
					continue
				}
				t.state = stateUnquoted
				t.trailing = 0
				i += n
				continue
			}
			ch := charAt(line, i)
			if err := t.appendText(ch); err != nil {
				return false, err
			}
			i += len(ch)
		}
	}
	return t.endOfLine()
}

func (t *Tokenizer) feedWhitespace(line string) (bool, error) {
	i := 0
	for i < len(line) {
		c := line[i]
		switch t.state {
		case stateWhitespace:
			switch {
			case c == ' ' || c == '\t':
				i++
				continue
			case t.comment.at(line, i):
				return true, nil
			case t.quote.at(line, i):
				t.state = stateQuoted
				t.sawQuote = true
				i += len(t.quote.s)
				continue
			}
			ch := charAt(line, i)
			if err := t.appendText(ch); err != nil {
				return false, err
			}
			t.state = stateUnquoted
			i += len(ch)

		case stateUnquoted:
			switch {
			case c == ' ' || c == '\t':
				if err := t.endField(); err != nil {
					return false, err
				}
				t.state = stateWhitespace
				i++
				continue
			case t.comment.at(line, i):
				return true, t.endField()
			}
			ch := charAt(line, i)
			if err := t.appendText(ch); err != nil {
				return false, err
			}
			i += len(ch)

		case stateQuoted:
			if t.quote.at(line, i) {
				n := len(t.quote.s)
				if i+n < len(line) && t.quote.at(line, i+n) {
					if err := t.appendText(t.quote.s); err != nil {
						return false, err
					}
					i += 2 * n
					continue
				}
				t.state = stateUnquoted
				i += n
				continue
			}
			ch := charAt(line, i)
			if err := t.appendText(ch); err != nil {
				return false, err
			}
			i += len(ch)
		}
	}
	return t.endOfLine()
}

func (t *Tokenizer) endOfLine() (bool, error) {
	switch t.state {
	case stateQuoted:
		if t.cfg.AllowEmbeddedNewline {
			return false, nil
		}
		return false, errors.Wrap(errors.ErrUnterminatedQuote, errors.ErrorTypeStructure,
			"quoted field not closed before end of line")
	case stateWhitespace:
		return true, nil
	}
	return true, t.endField()
}
