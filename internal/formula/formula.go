// Package formula parses R-style model formulas and expands them into
// design matrices. The grammar covers exactly the operators the UI
// documents: additive terms with +, interactions with :, categorical
// coding with C(...), a small set of named transforms, and Q('...')
// quoting for column names the bare syntax cannot express.
package formula

import (
	"fmt"
	"strings"
	"unicode"

	"gostat/internal/errors"
)

// Parsed is the syntax tree of one formula: a response and its
// right-hand terms, duplicates already removed.
type Parsed struct {
	Source   string
	Response node
	Terms    []node
}

// node is one factor or interaction in the tree
type node interface {
	canonical() string
}

// colRef references a dataset column, optionally via Q('...')
type colRef struct {
	name   string
	quoted bool
}

func (c *colRef) canonical() string {
	if c.quoted {
		return fmt.Sprintf("Q('%s')", c.name)
	}
	return c.name
}

// catNode forces categorical coding of a column
type catNode struct {
	arg *colRef
}

func (c *catNode) canonical() string {
	return fmt.Sprintf("C(%s)", c.arg.canonical())
}

// funcNode applies a named numeric transform
type funcNode struct {
	fn  string
	arg node
}

func (f *funcNode) canonical() string {
	return fmt.Sprintf("%s(%s)", f.fn, f.arg.canonical())
}

// interNode multiplies the expansions of two or more factors
type interNode struct {
	parts []node
}

func (n *interNode) canonical() string {
	parts := make([]string, len(n.parts))
	for i, p := range n.parts {
		parts[i] = p.canonical()
	}
	return strings.Join(parts, ":")
}

// Parse turns a formula string into a syntax tree. Errors carry enough
// wording for the UI to show them directly.
func Parse(source string) (*Parsed, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, errors.FormulaParse("formula is empty: write something like y ~ x1 + x2")
	}

	toks, err := lex(trimmed)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}

	response, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	if _, ok := p.accept(tokTilde); !ok {
		return nil, errors.FormulaParse("formula needs a ~ separating the response from the predictors, like y ~ x1")
	}

	terms, err := p.parseTerms()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, errors.FormulaParse(fmt.Sprintf("unexpected %q after the last term", tok.text))
	}

	return &Parsed{Source: trimmed, Response: response, Terms: dedupeTerms(terms)}, nil
}

// Canonical reconstructs the formula from the tree in normalized form
func (p *Parsed) Canonical() string {
	terms := make([]string, len(p.Terms))
	for i, t := range p.Terms {
		terms[i] = t.canonical()
	}
	return p.Response.canonical() + " ~ " + strings.Join(terms, " + ")
}

func dedupeTerms(terms []node) []node {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		key := t.canonical()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// ---- lexer ----

type tokKind int

const (
	tokIdent tokKind = iota
	tokString
	tokTilde
	tokPlus
	tokColon
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokKind
	text string
}

func lex(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '~':
			toks = append(toks, token{tokTilde, "~"})
			i++
		case r == '+':
			toks = append(toks, token{tokPlus, "+"})
			i++
		case r == ':':
			toks = append(toks, token{tokColon, ":"})
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, errors.FormulaParse("unterminated quoted name")
			}
			toks = append(toks, token{tokString, string(runes[i+1 : j])})
			i = j + 1
		case isIdentStart(r):
			j := i + 1
			for j < len(runes) && isIdentPart(runes[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, string(runes[i:j])})
			i = j
		default:
			return nil, errors.FormulaParse(fmt.Sprintf("unexpected character %q in formula", string(r)))
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

// QuoteIfNeeded wraps a column name in Q('...') when the bare formula
// syntax could not reference it, such as names with spaces. Reserved
// call names also need quoting so they are not read as functions.
func QuoteIfNeeded(name string) string {
	if name == "" {
		return quoteName(name)
	}
	if name == "C" || name == "Q" {
		return quoteName(name)
	}
	if _, reserved := transforms[name]; reserved {
		return quoteName(name)
	}
	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return quoteName(name)
		}
		if i > 0 && !isIdentPart(r) {
			return quoteName(name)
		}
	}
	return name
}

// quoteName picks whichever quote character the name does not contain,
// since quoted strings have no escape syntax
func quoteName(name string) string {
	if strings.Contains(name, "'") {
		return fmt.Sprintf("Q(\"%s\")", name)
	}
	return fmt.Sprintf("Q('%s')", name)
}

// ---- parser ----

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(kind tokKind) (token, bool) {
	if p.peek().kind == kind {
		return p.next(), true
	}
	return token{}, false
}

func (p *parser) expect(kind tokKind, what string) (token, error) {
	tok, ok := p.accept(kind)
	if !ok {
		return token{}, errors.FormulaParse(fmt.Sprintf("expected %s, found %q", what, p.peek().text))
	}
	return tok, nil
}

func (p *parser) parseTerms() ([]node, error) {
	var terms []node
	for {
		term, err := p.parseInteraction()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
		if _, ok := p.accept(tokPlus); !ok {
			return terms, nil
		}
	}
}

func (p *parser) parseInteraction() (node, error) {
	first, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	parts := []node{first}
	for {
		if _, ok := p.accept(tokColon); !ok {
			break
		}
		next, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	if len(parts) == 1 {
		return first, nil
	}
	return &interNode{parts: parts}, nil
}

func (p *parser) parseFactor() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(tok.text)
		}
		return &colRef{name: tok.text}, nil
	case tokString:
		return nil, errors.FormulaParse(fmt.Sprintf("quoted name '%s' must be wrapped as Q('%s')", tok.text, tok.text))
	case tokEOF:
		return nil, errors.FormulaParse("formula ends where a column was expected")
	default:
		return nil, errors.FormulaParse(fmt.Sprintf("expected a column or function, found %q", tok.text))
	}
}

func (p *parser) parseCall(name string) (node, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}

	switch name {
	case "Q":
		str, err := p.expect(tokString, "a quoted column name like Q('col name')")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return &colRef{name: str.text, quoted: true}, nil

	case "C":
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		ref, ok := inner.(*colRef)
		if !ok {
			return nil, errors.FormulaParse("C(...) takes a single column reference")
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return &catNode{arg: ref}, nil

	default:
		if _, ok := transforms[name]; !ok {
			return nil, errors.FormulaParse(fmt.Sprintf("unknown function %q: supported transforms are %s", name, transformList()))
		}
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		switch inner.(type) {
		case *colRef, *funcNode:
		default:
			return nil, errors.FormulaParse(fmt.Sprintf("%s(...) takes a numeric column or another transform", name))
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return &funcNode{fn: name, arg: inner}, nil
	}
}
