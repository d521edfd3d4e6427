package frame

type scanState uint8

const (
	scanNormal scanState = iota
	scanInString
	scanEscaped
)

// Balanced reports whether s has balanced brackets outside of string
// literals. It rejects truncated fragments without decoding them: at least one
// bracket must open, depth may never go negative, and the scan must end at
// depth zero outside a string.
func Balanced(s string) bool {
	depth := 0
	opened := false
	state := scanNormal

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case scanEscaped:
			state = scanInString
		case scanInString:
			switch c {
			case '\\':
				state = scanEscaped
			case '"':
				state = scanNormal
			}
		default:
			switch c {
			case '"':
				state = scanInString
			case '{', '[':
				depth++
				opened = true
			case '}', ']':
				depth--
				if depth < 0 {
					return false
				}
			}
		}
	}

	return opened && depth == 0 && state == scanNormal
}
