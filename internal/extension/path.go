package extension

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Path addresses a location in a JSContact card, e.g.
// "addresses/ADR-1/example.com:floorPlan".
type Path struct {
	Segments []string
}

// ParsePath parses a slash-delimited path. Segments may contain "/" and "~"
// escaped as "~1" and "~0".
func ParsePath(path string) (Path, error) {
	if path == "" {
		return Path{}, errors.New("empty path")
	}

	var segments []string

	for part := range strings.SplitSeq(path, "/") {
		if part == "" {
			return Path{}, fmt.Errorf("invalid path %q: empty segment", path)
		}

		seg, err := unescapeSegment(part)
		if err != nil {
			return Path{}, fmt.Errorf("invalid path %q: %w", path, err)
		}

		segments = append(segments, seg)
	}

	return Path{Segments: segments}, nil
}

// MustParsePath is ParsePath that panics on error.
func MustParsePath(path string) Path {
	p, err := ParsePath(path)
	if err != nil {
		panic(err)
	}

	return p
}

// NewPath builds a path from raw segments.
func NewPath(segments ...string) Path {
	return Path{Segments: append([]string(nil), segments...)}
}

// String returns the escaped path.
func (p Path) String() string {
	var sb strings.Builder

	for i, seg := range p.Segments {
		if i > 0 {
			sb.WriteByte('/')
		}

		sb.WriteString(escapeSegment(seg))
	}

	return sb.String()
}

// Root returns the first segment.
func (p Path) Root() string {
	if len(p.Segments) == 0 {
		return ""
	}

	return p.Segments[0]
}

// Leaf returns the last segment.
func (p Path) Leaf() string {
	if len(p.Segments) == 0 {
		return ""
	}

	return p.Segments[len(p.Segments)-1]
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p.Segments) == 0 {
		return p
	}

	return Path{Segments: p.Segments[:len(p.Segments)-1]}
}

// Child returns the path extended by segment.
func (p Path) Child(segment string) Path {
	return NewPath(append(slices.Clone(p.Segments), segment)...)
}

// IsEmpty returns true if the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// Equals returns true if two paths are equal.
func (p Path) Equals(other Path) bool {
	if len(p.Segments) != len(other.Segments) {
		return false
	}

	for i, seg := range p.Segments {
		if seg != other.Segments[i] {
			return false
		}
	}

	return true
}

func escapeSegment(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}

	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

func unescapeSegment(s string) (string, error) {
	if !strings.Contains(s, "~") {
		return s, nil
	}

	var sb strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] != '~' {
			sb.WriteByte(s[i])

			continue
		}

		if i+1 == len(s) {
			return "", fmt.Errorf("dangling escape in segment %q", s)
		}

		switch s[i+1] {
		case '0':
			sb.WriteByte('~')
		case '1':
			sb.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape ~%c in segment %q", s[i+1], s)
		}

		i++
	}

	return sb.String(), nil
}
