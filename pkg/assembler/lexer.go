// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

// The lexer splits one source line into declared labels and instruction
// tokens. It attaches no meaning to the tokens: register names, numerals,
// and quoted literals all pass through verbatim. Parenthesised base
// registers lose their parentheses, so `lw x1, 0(x2)` and `lw x1, 0, x2`
// lex identically.

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', ',', '(', ')':
		return true
	}
	return false
}

// Lex splits a line into (labels, tokens). lineNo and lineByte seed the
// token positions for diagnostics.
func Lex(lineNo int, lineByte int64, line string) ([]Token, []Token, []error) {
	var labels []Token
	var tokens []Token
	var errs []error

	makeToken := func(start, end int) Token {
		return Token{
			Position: Cursor{
				Line:     lineNo,
				Column:   start + 1,
				Byte:     lineByte + int64(start),
				Size:     int64(end - start),
				LineByte: lineByte,
			},
			Value: line[start:end],
		}
	}

	i := 0
	n := len(line)

	for i < n {
		c := line[i]

		switch {
		case c == '#':
			i = n

		case isDelimiter(c):
			i++

		case c == '"':
			start := i
			i++
			closed := false

			for i < n {
				if line[i] == '\\' {
					i += 2
					continue
				}

				if line[i] == '"' {
					i++
					closed = true
					break
				}

				i++
			}

			if i > n {
				i = n
			}

			if !closed {
				errs = append(
					errs, &UnterminatedStringError{makeToken(start, n).Position},
				)
				i = n
				break
			}

			tokens = append(tokens, makeToken(start, i))

		case c == '\'':
			start := i
			i++

			if i < n && line[i] == '\\' {
				i++
			}

			if i < n {
				i++
			}

			if i >= n || line[i] != '\'' {
				errs = append(
					errs,
					&UnterminatedCharacterError{makeToken(start, n).Position},
				)
				i = n
				break
			}

			i++
			tokens = append(tokens, makeToken(start, i))

		case c == ':':
			errs = append(
				errs,
				&UnexpectedCharacterError{makeToken(i, i+1).Position, rune(c)},
			)
			i++

		default:
			start := i

			for i < n && !isDelimiter(line[i]) &&
				line[i] != '#' && line[i] != '"' &&
				line[i] != '\'' && line[i] != ':' {
				i++
			}

			word := makeToken(start, i)

			// A word followed by optional whitespace and a colon declares
			// a label.
			j := i
			for j < n && (line[j] == ' ' || line[j] == '\t') {
				j++
			}

			if j < n && line[j] == ':' {
				if len(tokens) > 0 {
					errs = append(
						errs,
						&MisplacedLabelError{word.Position, word.Value},
					)
				} else {
					labels = append(labels, word)
				}

				i = j + 1
				break
			}

			tokens = append(tokens, word)
		}
	}

	return labels, tokens, errs
}
