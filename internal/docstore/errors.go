// internal/docstore/errors.go
package docstore

import "errors"

// ErrNoDocuments is returned by FindOne when nothing matches.
var ErrNoDocuments = errors.New("docstore: no documents in result")

// ErrBadFilter reports a malformed filter or update expression, such as
// a regex condition against a non-string field or a non-equality filter
// passed to an equality-only operation. It signals a programmer error,
// never a business-rule failure.
var ErrBadFilter = errors.New("docstore: malformed filter expression")
