package structurer

import "context"

// Structurer turns a transcript into structured outline text using the
// configured instruction template.
type Structurer interface {
	Structure(ctx context.Context, transcript string) (string, error)
}
