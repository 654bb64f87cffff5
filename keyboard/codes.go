package keyboard

// Key codes delivered by the input surface. Printable keys carry their
// Unicode code point; functional keys use negative codes.
const (
	CodeEnter  = '\n'
	CodeTab    = '\t'
	CodeSpace  = ' '
	CodePeriod = '.'

	CodeSingleQuote = '\''
	CodeDoubleQuote = '"'

	CodeShift             = -1
	CodeSwitchAlphaSymbol = -2
	CodeCapslock          = -3
	CodeDelete            = -5
	CodeSettings          = -100
	CodeShortcut          = -101
)

// IsSpaceCode reports whether code ends a word for snap-back purposes.
func IsSpaceCode(code int) bool {
	return code == CodeSpace || code == CodeEnter
}

// IsQuoteCode reports whether code is an apostrophe or quotation mark.
func IsQuoteCode(code int) bool {
	switch {
	case code == CodeSingleQuote || code == CodeDoubleQuote:
		return true
	// Curly singles and doubles, low-9 and high-reversed-9 variants.
	case code >= '‘' && code <= '‟':
		return true
	// Guillemets.
	case code == '«' || code == '»':
		return true
	}
	return false
}

// Key is a single key of a built layout.
type Key struct {
	Code  int
	Label string
	On    bool
}
