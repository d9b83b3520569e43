package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Result orders a local version relative to a remote one.
type Result int

const (
	// Less means the remote version is newer than the local one.
	Less Result = iota - 1
	// Equal means both versions denote the same release.
	Equal
	// Greater means the local version is newer than the remote one.
	Greater
)

// ErrFormat reports a version string whose segments are not all non-negative
// integers.
var ErrFormat = errors.New("version segment is not numeric")

// Compare orders two dot-separated version strings segment by segment, so that
// "2.0" > "1.2" > "1.1.1" rather than the lexicographic ordering. Identical
// strings compare Equal before any parsing happens, which also keeps
// non-numeric version schemes from failing when nothing changed. When all
// overlapping segments are equal, the longer version wins ("2.2.1" is newer
// than "2.2").
func Compare(local, remote string) (Result, error) {
	if local == remote {
		return Equal, nil
	}

	ls, err := segments(local)
	if err != nil {
		return Equal, err
	}
	rs, err := segments(remote)
	if err != nil {
		return Equal, err
	}

	for i := 0; i < len(ls) && i < len(rs); i++ {
		switch {
		case ls[i] > rs[i]:
			return Greater, nil
		case ls[i] < rs[i]:
			return Less, nil
		}
	}

	switch {
	case len(ls) < len(rs):
		return Less, nil
	case len(ls) > len(rs):
		return Greater, nil
	}
	return Equal, nil
}

func segments(v string) ([]int, error) {
	parts := strings.Split(v, ".")
	segs := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q in %q", ErrFormat, part, v)
		}
		segs[i] = n
	}
	return segs, nil
}

func (r Result) String() string {
	switch r {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}
