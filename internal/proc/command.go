package proc

import (
	"fmt"
	"strings"
)

// SplitCommand tokenizes a command string into an executable and argument
// list. Single- and double-quoted substrings are kept as one token with
// the quotes stripped; unquoted whitespace separates tokens. An empty or
// whitespace-only command is an error, as is an unterminated quote.
func SplitCommand(command string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quote   rune // 0 when outside quotes
		started bool
	)

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ' ' || r == '\t' || r == '\n':
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote in command %q", quote, command)
	}
	if started {
		tokens = append(tokens, current.String())
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	return tokens, nil
}
