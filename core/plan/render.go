package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/mushaf/core/encoding"
)

// Render returns op as a standalone SQL statement with arguments inlined
// as literals, terminated by a semicolon.
func Render(op Op) (string, error) {
	query, args := op.SQL()
	var b strings.Builder
	next := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '?':
			if next >= len(args) {
				return "", fmt.Errorf("render %s: more placeholders than arguments", op.Type)
			}
			lit, err := literal(args[next])
			if err != nil {
				return "", fmt.Errorf("render %s: %w", op.Type, err)
			}
			b.WriteString(lit)
			next++
		default:
			b.WriteByte(c)
		}
	}
	if next != len(args) {
		return "", fmt.Errorf("render %s: %d arguments for %d placeholders", op.Type, len(args), next)
	}

	out := strings.TrimRight(b.String(), "; \n\t")
	return out + ";", nil
}

// RenderStep renders every op of a step, one statement per line.
func RenderStep(s *Step) (string, error) {
	var b strings.Builder
	for _, op := range s.Ops {
		stmt, err := Render(op)
		if err != nil {
			return "", fmt.Errorf("step %s: %w", s.Name, err)
		}
		b.WriteString(stmt)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case string:
		return encoding.QuoteSQLString(x), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("unsupported argument type %T", v)
}
