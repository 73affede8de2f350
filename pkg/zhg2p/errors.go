package zhg2p

import "errors"

// ErrUnknownSyllable is wrapped with the offending character when a
// Chinese syllable cannot be decomposed into phones.
var ErrUnknownSyllable = errors.New("zhg2p: unknown syllable")
