package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// wktNode is one KEYWORD[...] element. Quoted strings, numbers and bare
// enumeration tokens land in values; bracketed elements land in children.
type wktNode struct {
	keyword  string
	values   []string
	children []*wktNode
}

func (n *wktNode) name() string {
	if len(n.values) == 0 {
		return ""
	}
	return n.values[0]
}

// authorityCode returns the EPSG code attached directly to the node. Nested
// elements (datum, spheroid, unit) carry their own AUTHORITY entries which
// must not be mistaken for the code of the whole system.
func (n *wktNode) authorityCode() int {
	for _, child := range n.children {
		if child.keyword != "AUTHORITY" && child.keyword != "ID" {
			continue
		}
		if len(child.values) < 2 || !strings.EqualFold(child.values[0], "EPSG") {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(child.values[1]))
		if err == nil && code > 0 {
			return code
		}
	}
	return 0
}

type wktParser struct {
	src string
	pos int
}

func parseWKT(text string) (*wktNode, error) {
	p := &wktParser{src: text}
	node, bracketed, err := p.node()
	if err != nil {
		return nil, err
	}
	if !bracketed {
		return nil, errors.New("root element has no body")
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing content at offset %d", p.pos)
	}
	return node, nil
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *wktParser) node() (*wktNode, bool, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isKeywordByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return nil, false, fmt.Errorf("expected keyword at offset %d", p.pos)
	}
	n := &wktNode{keyword: strings.ToUpper(p.src[start:p.pos])}
	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '[' && p.src[p.pos] != '(') {
		return n, false, nil
	}
	closer := byte(']')
	if p.src[p.pos] == '(' {
		closer = ')'
	}
	p.pos++
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, false, fmt.Errorf("unterminated %s element", n.keyword)
		}
		c := p.src[p.pos]
		switch {
		case c == closer:
			p.pos++
			return n, true, nil
		case c == ',':
			p.pos++
		case c == '"':
			s, err := p.quoted()
			if err != nil {
				return nil, false, err
			}
			n.values = append(n.values, s)
		case isKeywordStart(c):
			child, bracketed, err := p.node()
			if err != nil {
				return nil, false, err
			}
			if bracketed {
				n.children = append(n.children, child)
			} else {
				n.values = append(n.values, child.keyword)
			}
		default:
			start := p.pos
			for p.pos < len(p.src) && !strings.ContainsRune(",])( \t\r\n", rune(p.src[p.pos])) {
				p.pos++
			}
			if start == p.pos {
				return nil, false, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
			}
			n.values = append(n.values, p.src[start:p.pos])
		}
	}
}

// quoted reads a double-quoted string; a doubled quote is a literal quote.
func (p *wktParser) quoted() (string, error) {
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '"' {
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '"' {
				b.WriteByte('"')
				p.pos += 2
				continue
			}
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", errors.New("unterminated quoted string")
}

func isKeywordStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isKeywordByte(c byte) bool {
	return isKeywordStart(c) || (c >= '0' && c <= '9')
}
