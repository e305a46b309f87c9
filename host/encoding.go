package host

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// decodeText converts s from the named IANA encoding to UTF-8. An empty name
// or a UTF-8 name returns s unchanged.
func decodeText(s, name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return s, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrUnsupportedEncoding, name, err)
	}
	if enc == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}

	out, err := enc.NewDecoder().String(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrUnsupportedEncoding, name, err)
	}
	return out, nil
}
