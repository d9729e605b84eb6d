package riskscan

import "github.com/crimson-sun/riskscan/internal/model"

// IsInputError reports whether err rejects the batch because of its content
// (unreadable payload or a required feature that cannot be coerced), as
// opposed to a scoring failure.
func IsInputError(err error) bool {
	switch model.KindOf(err) {
	case model.KindParse, model.KindSchema:
		return true
	default:
		return false
	}
}

// StatusCode maps a non-nil err to the HTTP status the scoring API would
// answer with.
func StatusCode(err error) int {
	return model.KindOf(err).Status()
}
