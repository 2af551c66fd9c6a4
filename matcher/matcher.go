package matcher

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrNoMatch is returned when an address does not match a registered shape.
var ErrNoMatch = errors.New("no match")

// Kind classifies a resolved address
type Kind int

const (
	NoMatch Kind = iota
	Collection
	SingleRecord
)

func (k Kind) String() string {
	switch k {
	case Collection:
		return "collection"
	case SingleRecord:
		return "single_record"
	default:
		return "no_match"
	}
}

// Match is the result of resolving an address.
// ID is only meaningful when Kind is SingleRecord.
type Match struct {
	Kind Kind
	ID   int64
}

// Matcher resolves content addresses for one authority and collection path.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	scheme     string
	authority  string
	collection []string
}

// New creates a matcher for <scheme>://<authority>/<collectionPath>[/<id>].
func New(scheme, authority, collectionPath string) *Matcher {
	return &Matcher{
		scheme:     scheme,
		authority:  authority,
		collection: segments(collectionPath),
	}
}

// Authority returns the authority this matcher was built for
func (m *Matcher) Authority() string {
	return m.authority
}

// Match classifies an address as a collection or single record.
// The scheme may be omitted, in which case the first segment is the authority.
func (m *Matcher) Match(address string) (Match, error) {
	authority, path, err := m.split(address)
	if err != nil {
		return Match{}, err
	}
	if authority != m.authority {
		return Match{}, fmt.Errorf("%w: unknown authority %q", ErrNoMatch, authority)
	}

	parts := segments(path)
	if len(parts) < len(m.collection) || len(parts) > len(m.collection)+1 {
		return Match{}, fmt.Errorf("%w: %q", ErrNoMatch, address)
	}
	for i, seg := range m.collection {
		if parts[i] != seg {
			return Match{}, fmt.Errorf("%w: %q", ErrNoMatch, address)
		}
	}

	if len(parts) == len(m.collection) {
		return Match{Kind: Collection}, nil
	}

	id, ok := parseID(parts[len(parts)-1])
	if !ok {
		return Match{}, fmt.Errorf("%w: invalid record id in %q", ErrNoMatch, address)
	}
	return Match{Kind: SingleRecord, ID: id}, nil
}

func (m *Matcher) split(address string) (string, string, error) {
	if address == "" {
		return "", "", fmt.Errorf("%w: empty address", ErrNoMatch)
	}

	if !strings.Contains(address, "://") {
		authority, path, _ := strings.Cut(address, "/")
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		return authority, path, nil
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNoMatch, err)
	}
	if u.Scheme != m.scheme {
		return "", "", fmt.Errorf("%w: unsupported scheme %q", ErrNoMatch, u.Scheme)
	}
	return u.Host, u.Path, nil
}

// parseID accepts digits only, like the "#" wildcard of a URI matcher.
func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func segments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
