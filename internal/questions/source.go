// Package questions provides the sources a practice session draws its
// questions from: the built-in bank and the generate-from-material path.
package questions

import (
	"context"
	"errors"

	"github.com/voxscholar/voxscholar/internal/model"
)

// MinMaterialChars is the minimum amount of study material required
// before a generation request is attempted.
const MinMaterialChars = 100

var (
	// ErrUnknownTopic is returned when a source has no questions for the
	// requested topic.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrMaterialTooShort is returned before any network call when a
	// subject's notes and readings do not add up to enough text.
	ErrMaterialTooShort = errors.New("not enough study material")
)

// Source yields the ordered question list for a topic. The session
// machine shuffles; sources return bank order.
type Source interface {
	Questions(ctx context.Context, topic string) ([]model.Question, error)
}
