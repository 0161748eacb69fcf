// Package sgf reads and writes game records in the Smart Game Format (FF[4]).
package sgf

import (
	"baduk/game"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Game is the subset of a record this package understands: the root
// properties and the main line of moves.
type Game struct {
	Size   int
	Komi   float64
	Black  string // PB
	White  string // PW
	Result string // RE, e.g. "B+3.5"
	Moves  []game.Record
}

// Encode writes g as a single-branch SGF tree.
func Encode(g Game) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(;GM[1]FF[4]SZ[%d]CA[UTF-8]", g.Size)
	sb.WriteString("KM[" + strconv.FormatFloat(g.Komi, 'f', -1, 64) + "]")
	writeProperty(&sb, "PB", g.Black)
	writeProperty(&sb, "PW", g.White)
	writeProperty(&sb, "RE", g.Result)
	sb.WriteString("\n")
	for _, r := range g.Moves {
		fmt.Fprintf(&sb, ";%s[%s]", color(r.Color), point(r.Move))
	}
	sb.WriteString(")\n")
	return sb.String()
}

func writeProperty(sb *strings.Builder, id, value string) {
	if value == "" {
		return
	}
	value = strings.NewReplacer(`\`, `\\`, `]`, `\]`).Replace(value)
	sb.WriteString(id + "[" + value + "]")
}

func color(c game.Color) string {
	if c == game.White {
		return "W"
	}
	return "B"
}

// point encodes a move as column letter then row letter, both counted from
// the top-left corner; a pass is empty.
func point(m game.Move) string {
	if m.IsPass() {
		return ""
	}
	return string([]byte{byte('a' + m.Col), byte('a' + m.Row)})
}

var ErrMalformed = errors.New("malformed sgf")

// Decode parses the root node and main line of an SGF record. Variations
// after the first branch are ignored.
func Decode(text string) (Game, error) {
	g := Game{Size: 19}
	p := parser{text: text}

	p.skipSpace()
	if !p.consume('(') {
		return g, fmt.Errorf("%w: missing '('", ErrMalformed)
	}

	for node := 0; ; node++ {
		p.skipSpace()
		if !p.consume(';') {
			break
		}
		props, err := p.properties()
		if err != nil {
			return g, err
		}
		if node == 0 {
			if err := g.root(props); err != nil {
				return g, err
			}
		}
		for _, prop := range props {
			if prop.id != "B" && prop.id != "W" {
				continue
			}
			move, err := parsePoint(prop.value, g.Size)
			if err != nil {
				return g, err
			}
			c := game.Black
			if prop.id == "W" {
				c = game.White
			}
			g.Moves = append(g.Moves, game.Record{Color: c, Move: move})
		}

		// Follow the first variation only
		p.skipSpace()
		if p.peek() == '(' {
			p.pos++
		}
	}

	if g.Size < 1 || g.Size > game.MaxSize {
		return g, fmt.Errorf("%w: board size %d", ErrMalformed, g.Size)
	}
	return g, nil
}

func (g *Game) root(props []property) error {
	for _, prop := range props {
		var err error
		switch prop.id {
		case "SZ":
			g.Size, err = strconv.Atoi(prop.value)
		case "KM":
			g.Komi, err = strconv.ParseFloat(prop.value, 64)
		case "PB":
			g.Black = prop.value
		case "PW":
			g.White = prop.value
		case "RE":
			g.Result = prop.value
		}
		if err != nil {
			return fmt.Errorf("%w: property %s[%s]", ErrMalformed, prop.id, prop.value)
		}
	}
	return nil
}

func parsePoint(value string, size int) (game.Move, error) {
	if value == "" || (value == "tt" && size <= 19) {
		return game.Pass, nil
	}
	if len(value) != 2 {
		return game.NoMove, fmt.Errorf("%w: point %q", ErrMalformed, value)
	}
	col, row := int(value[0]-'a'), int(value[1]-'a')
	if col < 0 || col >= size || row < 0 || row >= size {
		return game.NoMove, fmt.Errorf("%w: point %q off the board", ErrMalformed, value)
	}
	return game.Place(row, col), nil
}

type property struct {
	id    string
	value string
}

type parser struct {
	text string
	pos  int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.text) {
		return 0
	}
	return p.text[p.pos]
}

func (p *parser) consume(b byte) bool {
	if p.peek() == b {
		p.pos++
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.text) && strings.IndexByte(" \t\r\n", p.text[p.pos]) >= 0 {
		p.pos++
	}
}

// properties reads every property of the current node. Multiple values for
// one identifier become separate properties.
func (p *parser) properties() ([]property, error) {
	var props []property
	for {
		p.skipSpace()
		start := p.pos
		for c := p.peek(); c >= 'A' && c <= 'Z'; c = p.peek() {
			p.pos++
		}
		id := p.text[start:p.pos]
		if id == "" {
			return props, nil
		}

		p.skipSpace()
		if p.peek() != '[' {
			return nil, fmt.Errorf("%w: property %s has no value", ErrMalformed, id)
		}
		for p.consume('[') {
			value, err := p.value()
			if err != nil {
				return nil, err
			}
			props = append(props, property{id: id, value: value})
			p.skipSpace()
		}
	}
}

func (p *parser) value() (string, error) {
	var sb strings.Builder
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		p.pos++
		switch c {
		case '\\':
			if p.pos < len(p.text) {
				sb.WriteByte(p.text[p.pos])
				p.pos++
			}
		case ']':
			return sb.String(), nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", fmt.Errorf("%w: unterminated value", ErrMalformed)
}

// Replay plays the main line on a fresh board.
func (g Game) Replay() (*game.Board, error) {
	board := game.NewBoard(g.Size)
	for i, r := range g.Moves {
		if r.Color != board.ToPlay() {
			return nil, fmt.Errorf("move %d: %s played out of turn", i+1, r.Color)
		}
		if !board.Play(r.Move) {
			return nil, fmt.Errorf("move %d: illegal move %s", i+1, game.FormatMove(g.Size, r.Move))
		}
	}
	return board, nil
}
