package queryoptions

import "strings"

// SplitTop splits input on delim, honoring the delimiter only at
// parenthesis depth zero. Characters inside any parenthesized region pass
// through unchanged, including delimiters and nested parentheses. An
// implicit trailing delimiter means the final segment is always emitted.
// Empty and whitespace-only segments are discarded.
//
// Unbalanced parentheses are not an error: the depth counter keeps running
// and the remainder of the stream is carried literally, leaving the caller
// to reject whatever it cannot parse.
func SplitTop(input string, delim byte) []string {
	if input == "" {
		return nil
	}

	var segments []string
	depth := 0
	start := 0

	emit := func(end int) {
		if segment := strings.TrimSpace(input[start:end]); segment != "" {
			segments = append(segments, segment)
		}
	}

	for i := 0; i < len(input); i++ {
		switch input[i] {
		case '(':
			depth++
		case ')':
			depth--
		case delim:
			if depth == 0 {
				emit(i)
				start = i + 1
			}
		}
	}
	emit(len(input))

	return segments
}
