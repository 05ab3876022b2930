package tokenring

import (
	"fmt"
	"strings"
)

// ParseSubmission splits a "destination:message" line. Only the first ':'
// separates; the message is kept verbatim.
func ParseSubmission(line string) (string, []byte, error) {
	dest, msg, found := strings.Cut(line, ":")
	if !found {
		return "", nil, fmt.Errorf("%w %q (expected destination:message)", ErrInvalidSubmission, line)
	}
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "", nil, fmt.Errorf("%w %q: empty destination", ErrInvalidSubmission, line)
	}
	return dest, []byte(msg), nil
}
