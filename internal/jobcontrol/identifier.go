package jobcontrol

import (
	"strconv"
	"strings"
)

// ParsePID parses a user supplied process id. Like strtol with base 0 it
// accepts decimal, hex with a 0x prefix, and octal with a leading 0.
//
// Anything that doesn't parse to a positive pid, including "0", is an
// InvalidIdentifierError. Zero is treated the same as a failed parse, so pid
// 0 can never be addressed.
func ParsePID(s string) (int, error) {
	s = strings.TrimSpace(s)

	pid, err := strconv.ParseInt(s, 0, 32)
	if err != nil || pid <= 0 {
		return 0, InvalidIdentifierError{Value: s}
	}

	return int(pid), nil
}
