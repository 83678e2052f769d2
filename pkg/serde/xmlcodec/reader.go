/*
Copyright The Serde Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package xmlcodec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/k8s-serde/serde/pkg/serde/buffer"
)

// InvalidReferenceError reports an entity reference, DOCTYPE
// declaration, or external reference the reader refuses to resolve.
// The reader never performs network or filesystem I/O; this is the
// only defense it offers against entity-expansion and SSRF classes of
// attack (§4.4.1, §7).
type InvalidReferenceError struct {
	Reference string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("xmlcodec: invalid or unsupported reference %q", e.Reference)
}

// elemNode is the intermediate parse tree built by the lexer before
// depth/whitespace rules are applied and the flat Token stream is
// produced. The reader is a two-phase tokenizer (parse the whole
// payload into this tree, then flatten it applying the whitespace and
// depth rules) rather than a truly incremental one; both phases run
// eagerly against the in-memory Buffer so the externally observable
// contract (peek, subtree bounds, lastToken) is identical to a
// single-pass reader.
type elemNode struct {
	name       QName
	attrs      []Attribute
	nsDecls    []NSDeclaration
	children   []any // *elemNode or textRun
	selfClosed bool
}

type textRun string

// parser turns raw bytes into an elemNode tree with a single root
// element; a document with no root element is an error.
type parser struct {
	buf *buffer.Buffer
}

func parseDocument(data []byte) (*elemNode, error) {
	p := &parser{buf: buffer.NewFromBytes(data)}
	if err := p.skipProlog(); err != nil {
		return nil, err
	}
	root, err := p.parseElement()
	if err != nil {
		return nil, err
	}
	return root, nil
}

func (p *parser) peekByte() (byte, bool) {
	b, err := p.buf.Peek(1)
	if err != nil {
		return 0, false
	}
	return b[0], true
}

func (p *parser) skipWS() {
	for {
		b, ok := p.peekByte()
		if !ok || (b != ' ' && b != '\t' && b != '\n' && b != '\r') {
			return
		}
		p.buf.ReadByte()
	}
}

// skipProlog consumes an optional <?xml ...?> declaration, any
// comments/PIs, and rejects a DOCTYPE declaration outright.
func (p *parser) skipProlog() error {
	for {
		p.skipWS()
		rest := p.buf.Unread()
		switch {
		case strings.HasPrefix(string(rest), "<?"):
			end := indexOf(rest, "?>")
			if end < 0 {
				return fmt.Errorf("xmlcodec: unterminated processing instruction")
			}
			p.buf.ReadByteArray(end + 2)
		case strings.HasPrefix(string(rest), "<!--"):
			end := indexOf(rest, "-->")
			if end < 0 {
				return fmt.Errorf("xmlcodec: unterminated comment")
			}
			p.buf.ReadByteArray(end + 3)
		case strings.HasPrefix(string(rest), "<!DOCTYPE"):
			return &InvalidReferenceError{Reference: "<!DOCTYPE ...>"}
		default:
			return nil
		}
	}
}

func indexOf(b []byte, sub string) int {
	return strings.Index(string(b), sub)
}

// parseElement parses exactly one element (the caller has already
// skipped any prolog/whitespace preceding it).
func (p *parser) parseElement() (*elemNode, error) {
	if c, err := p.buf.ReadByte(); err != nil || c != '<' {
		return nil, fmt.Errorf("xmlcodec: expected '<' to start an element")
	}
	name, err := p.readQName()
	if err != nil {
		return nil, err
	}
	node := &elemNode{name: name}
	for {
		p.skipWS()
		b, ok := p.peekByte()
		if !ok {
			return nil, fmt.Errorf("xmlcodec: truncated start tag for <%s>", name)
		}
		if b == '/' {
			p.buf.ReadByte()
			if c, _ := p.buf.ReadByte(); c != '>' {
				return nil, fmt.Errorf("xmlcodec: malformed self-closing tag for <%s>", name)
			}
			node.selfClosed = true
			p.splitNamespaceDecls(node)
			return node, nil
		}
		if b == '>' {
			p.buf.ReadByte()
			break
		}
		attrName, err := p.readQName()
		if err != nil {
			return nil, err
		}
		p.skipWS()
		if c, _ := p.buf.ReadByte(); c != '=' {
			return nil, fmt.Errorf("xmlcodec: expected '=' after attribute %s on <%s>", attrName, name)
		}
		p.skipWS()
		val, err := p.readQuotedAttrValue()
		if err != nil {
			return nil, err
		}
		node.attrs = append(node.attrs, Attribute{Name: attrName, Value: val})
	}
	p.splitNamespaceDecls(node)

	if err := p.parseContent(node); err != nil {
		return nil, err
	}
	return node, nil
}

// splitNamespaceDecls pulls xmlns / xmlns:prefix attributes out of
// node.attrs and into node.nsDecls.
func (p *parser) splitNamespaceDecls(node *elemNode) {
	var kept []Attribute
	for _, a := range node.attrs {
		switch {
		case a.Name.Prefix == "" && a.Name.Local == "xmlns":
			node.nsDecls = append(node.nsDecls, NSDeclaration{Prefix: "", URI: a.Value})
		case a.Name.Prefix == "xmlns":
			node.nsDecls = append(node.nsDecls, NSDeclaration{Prefix: a.Name.Local, URI: a.Value})
		default:
			kept = append(kept, a)
		}
	}
	node.attrs = kept
}

func (p *parser) parseContent(node *elemNode) error {
	for {
		rest := p.buf.Unread()
		if len(rest) == 0 {
			return fmt.Errorf("xmlcodec: unexpected end of input inside <%s>", node.name)
		}
		switch {
		case strings.HasPrefix(string(rest), "</"):
			p.buf.ReadByteArray(2)
			endName, err := p.readQName()
			if err != nil {
				return err
			}
			p.skipWS()
			if c, _ := p.buf.ReadByte(); c != '>' {
				return fmt.Errorf("xmlcodec: malformed end tag </%s>", endName)
			}
			if endName != node.name {
				return fmt.Errorf("xmlcodec: mismatched end tag: expected </%s>, got </%s>", node.name, endName)
			}
			return nil
		case strings.HasPrefix(string(rest), "<![CDATA["):
			end := indexOf(rest, "]]>")
			if end < 0 {
				return fmt.Errorf("xmlcodec: unterminated CDATA section")
			}
			literal := string(rest[len("<![CDATA[") : end])
			p.buf.ReadByteArray(end + 3)
			node.children = append(node.children, textRun(literal))
		case strings.HasPrefix(string(rest), "<!--"):
			end := indexOf(rest, "-->")
			if end < 0 {
				return fmt.Errorf("xmlcodec: unterminated comment")
			}
			p.buf.ReadByteArray(end + 3)
		case strings.HasPrefix(string(rest), "<?"):
			end := indexOf(rest, "?>")
			if end < 0 {
				return fmt.Errorf("xmlcodec: unterminated processing instruction")
			}
			p.buf.ReadByteArray(end + 2)
		case strings.HasPrefix(string(rest), "<!DOCTYPE"):
			return &InvalidReferenceError{Reference: "<!DOCTYPE ...>"}
		case rest[0] == '<':
			child, err := p.parseElement()
			if err != nil {
				return err
			}
			node.children = append(node.children, child)
		default:
			text, err := p.readText()
			if err != nil {
				return err
			}
			node.children = append(node.children, textRun(text))
		}
	}
}

func (p *parser) readText() (string, error) {
	var sb strings.Builder
	for {
		b, ok := p.peekByte()
		if !ok || b == '<' {
			return sb.String(), nil
		}
		p.buf.ReadByte()
		if b == '&' {
			decoded, err := p.readEntity()
			if err != nil {
				return "", err
			}
			sb.WriteRune(decoded)
			continue
		}
		sb.WriteByte(b)
	}
}

// readEntity decodes one entity reference. Only the five predefined
// entities and numeric character references are accepted; anything
// else is an InvalidReferenceError (§4.4.1, §8 scenario 6).
func (p *parser) readEntity() (rune, error) {
	var sb strings.Builder
	for {
		b, err := p.buf.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("xmlcodec: truncated entity reference: %w", err)
		}
		if b == ';' {
			break
		}
		sb.WriteByte(b)
	}
	ref := sb.String()
	switch ref {
	case "lt":
		return '<', nil
	case "gt":
		return '>', nil
	case "amp":
		return '&', nil
	case "quot":
		return '"', nil
	case "apos":
		return '\'', nil
	}
	if strings.HasPrefix(ref, "#x") || strings.HasPrefix(ref, "#X") {
		v, err := strconv.ParseInt(ref[2:], 16, 32)
		if err != nil {
			return 0, &InvalidReferenceError{Reference: "&" + ref + ";"}
		}
		return rune(v), nil
	}
	if strings.HasPrefix(ref, "#") {
		v, err := strconv.ParseInt(ref[1:], 10, 32)
		if err != nil {
			return 0, &InvalidReferenceError{Reference: "&" + ref + ";"}
		}
		return rune(v), nil
	}
	return 0, &InvalidReferenceError{Reference: "&" + ref + ";"}
}

func (p *parser) readQuotedAttrValue() (string, error) {
	quote, err := p.buf.ReadByte()
	if err != nil || (quote != '"' && quote != '\'') {
		return "", fmt.Errorf("xmlcodec: expected quoted attribute value")
	}
	var sb strings.Builder
	for {
		b, err := p.buf.ReadByte()
		if err != nil {
			return "", fmt.Errorf("xmlcodec: truncated attribute value: %w", err)
		}
		if b == quote {
			return sb.String(), nil
		}
		if b == '&' {
			r, err := p.readEntity()
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte(b)
	}
}

func (p *parser) readQName() (QName, error) {
	var sb strings.Builder
	for {
		b, ok := p.peekByte()
		if !ok || isNameBoundary(b) {
			break
		}
		p.buf.ReadByte()
		sb.WriteByte(b)
	}
	s := sb.String()
	if s == "" {
		return QName{}, fmt.Errorf("xmlcodec: expected a name")
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return QName{Prefix: s[:i], Local: s[i+1:]}, nil
	}
	return QName{Local: s}, nil
}

func isNameBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '>', '/', '=':
		return true
	}
	return false
}

// flatten walks the parse tree and appends the Token stream, resolving
// namespaces against the element stack and applying the whitespace
// rule: whitespace-only text is dropped when its element also has
// child elements (it is then pure formatting), and kept verbatim
// otherwise (§4.4.1).
func flatten(node *elemNode, depth int, parent nsScope, out *[]Token) {
	scope := parent.child(node.nsDecls)
	resolved := scope.resolve(node.name.Prefix)

	*out = append(*out, Token{
		Kind:           BeginElement,
		Depth:          depth,
		Name:           node.name,
		ResolvedURI:    resolved,
		Attributes:     node.attrs,
		NSDeclarations: node.nsDecls,
	})

	hasChildElements := false
	for _, c := range node.children {
		if _, ok := c.(*elemNode); ok {
			hasChildElements = true
			break
		}
	}

	var pendingText strings.Builder
	havePending := false
	flushText := func() {
		if !havePending {
			return
		}
		text := pendingText.String()
		if !(hasChildElements && strings.TrimSpace(text) == "") {
			*out = append(*out, Token{Kind: Text, Depth: depth, Value: text})
		}
		pendingText.Reset()
		havePending = false
	}

	for _, c := range node.children {
		switch v := c.(type) {
		case textRun:
			pendingText.WriteString(string(v))
			havePending = true
		case *elemNode:
			flushText()
			flatten(v, depth+1, scope, out)
		}
	}
	flushText()

	*out = append(*out, Token{
		Kind:        EndElement,
		Depth:       depth,
		Name:        node.name,
		ResolvedURI: resolved,
	})
}

// SubtreeStartDepth controls where Reader.Subtree begins: at the
// BeginElement token itself (SubtreeStartCurrent) or just past it,
// i.e. at the element's first child token (SubtreeStartChild).
type SubtreeStartDepth int

const (
	SubtreeStartCurrent SubtreeStartDepth = iota
	SubtreeStartChild
)

// cursor is the mutable read position shared by a Reader and every
// subtree reader carved out of it via Subtree, so that consuming a
// child reader is observably the same as consuming the parent: both
// hold the same *cursor.
type cursor struct {
	pos       int
	lastToken *Token
}

// Reader is a peekable, depth-tracked XML token stream. It parses the
// entire payload eagerly into a flat token slice (see elemNode/flatten
// above) and serves Peek/Next/Subtree as slice operations, so the
// externally observed streaming contract never differs from a true
// incremental tokenizer.
//
// A Reader returned by Subtree shares its parent's tokens and cursor,
// restricted to the bounds of one element; consuming the child reader
// advances the same cursor the parent sees.
type Reader struct {
	tokens []Token
	cur    *cursor

	// end bounds how far this reader's view of tokens extends: Peek,
	// Next, and AtEnd never look past it.
	end int

	// closeTok is set only for a SubtreeStartChild subtree: the
	// element's own matching EndElement, which this reader's content
	// view ends just before. AtEnd consumes it implicitly the first
	// time the subtree is found to be exhausted, so the parent's
	// lastToken advances to it without the caller ever seeing it as a
	// content token (spec.md:103's CHILD-variant contract).
	closeTok *Token
}

// NewReader parses data and returns a Reader positioned before the
// first token. DOCTYPE declarations and any entity reference other
// than the five predefined entities or a numeric character reference
// are rejected with InvalidReferenceError without performing any I/O.
func NewReader(data []byte) (*Reader, error) {
	if stripped, err := buffer.StripBOM(data); err == nil {
		data = stripped
	}
	root, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	var tokens []Token
	flatten(root, 1, nsScope{}, &tokens)
	return &Reader{tokens: tokens, end: len(tokens), cur: &cursor{}}, nil
}

// Peek returns the next token without consuming it. Repeated calls
// with no intervening Next return the identical token.
func (r *Reader) Peek() (Token, error) { return r.PeekAt(0) }

// PeekAt returns the token k positions ahead of the cursor (k=0 is the
// same as Peek) without consuming anything.
func (r *Reader) PeekAt(k int) (Token, error) {
	i := r.cur.pos + k
	if i < 0 || i >= r.end {
		return Token{}, fmt.Errorf("xmlcodec: read past end of document")
	}
	return r.tokens[i], nil
}

// Next consumes and returns the next token.
func (r *Reader) Next() (Token, error) {
	tok, err := r.PeekAt(0)
	if err != nil {
		return Token{}, err
	}
	r.cur.pos++
	r.cur.lastToken = &tok
	return tok, nil
}

// LastToken returns the most recently consumed token (never a peeked
// one), and false if nothing has been consumed yet.
func (r *Reader) LastToken() (Token, bool) {
	if r.cur.lastToken == nil {
		return Token{}, false
	}
	return *r.cur.lastToken, true
}

// AtEnd reports whether the stream is exhausted. For a SubtreeStartChild
// subtree, reaching the end also implicitly consumes the element's
// matching EndElement, advancing the shared cursor's lastToken to it.
func (r *Reader) AtEnd() bool {
	if r.cur.pos < r.end {
		return false
	}
	if r.closeTok != nil {
		r.cur.pos++
		r.cur.lastToken = r.closeTok
		r.closeTok = nil
	}
	return true
}

// SkipNext consumes the next token; if it is a BeginElement, the
// entire subtree up to and including its matching EndElement is
// skipped as well.
func (r *Reader) SkipNext() error {
	tok, err := r.Next()
	if err != nil {
		return err
	}
	if tok.Kind != BeginElement {
		return nil
	}
	for {
		t, err := r.Next()
		if err != nil {
			return err
		}
		if t.Kind == EndElement && t.Depth == tok.Depth {
			return nil
		}
	}
}

// SeekName advances the cursor, without consuming anything beyond what
// it examines, until the next BeginElement token at the current
// element's child depth matches name, or the enclosing element ends.
// It reports whether a match was found.
func (r *Reader) SeekName(depth int, name QName) (bool, error) {
	for {
		tok, err := r.PeekAt(0)
		if err != nil {
			return false, err
		}
		if tok.Kind == EndElement && tok.Depth < depth {
			return false, nil
		}
		if tok.Kind == BeginElement && tok.Depth == depth && tok.Name == name {
			return true, nil
		}
		if tok.Kind == BeginElement && tok.Depth >= depth {
			if err := r.SkipNext(); err != nil {
				return false, err
			}
			continue
		}
		if _, err := r.Next(); err != nil {
			return false, err
		}
	}
}

// Subtree returns a new Reader bounded to the element most recently
// consumed via Next (which must have been a BeginElement), sharing the
// parent's underlying token slice and cursor: consuming the returned
// reader advances the very same position the parent Reader observes.
// mode selects whether the returned reader's first token is that
// BeginElement itself (SubtreeStartCurrent) or the content immediately
// following it (SubtreeStartChild, which also arranges for AtEnd to
// implicitly consume the matching EndElement — see the closeTok field
// doc on Reader).
func (r *Reader) Subtree(mode SubtreeStartDepth) (*Reader, error) {
	if r.cur.lastToken == nil || r.cur.lastToken.Kind != BeginElement {
		return nil, fmt.Errorf("xmlcodec: Subtree requires the last consumed token to be BeginElement")
	}
	begin := *r.cur.lastToken
	boundary := r.cur.pos
	for boundary < r.end && !(r.tokens[boundary].Kind == EndElement && r.tokens[boundary].Depth == begin.Depth) {
		boundary++
	}
	if boundary >= r.end {
		return nil, fmt.Errorf("xmlcodec: unterminated element <%s>", begin.Name)
	}
	if mode == SubtreeStartCurrent {
		child := &Reader{tokens: r.tokens, end: boundary + 1, cur: r.cur}
		child.cur.pos-- // re-present the already-consumed BeginElement as the child's first token
		return child, nil
	}
	closeTok := r.tokens[boundary]
	return &Reader{tokens: r.tokens, end: boundary, closeTok: &closeTok, cur: r.cur}, nil
}
