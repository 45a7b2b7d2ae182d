package questions

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
)

// Generator turns study material into practice questions. The remote
// API client implements it.
type Generator interface {
	GenerateQuestions(ctx context.Context, material string) ([]model.Question, error)
}

// GeneratedSource builds questions from a subject's own notes and PDF
// readings.
type GeneratedSource struct {
	lib Library
	gen Generator
	log zerolog.Logger
}

func NewGeneratedSource(lib Library, gen Generator, log zerolog.Logger) *GeneratedSource {
	return &GeneratedSource{
		lib: lib,
		gen: gen,
		log: log.With().Str("component", "questions").Logger(),
	}
}

// Questions assembles the subject's material and asks the generator for
// questions. Material below MinMaterialChars fails before any network
// call is made.
func (s *GeneratedSource) Questions(ctx context.Context, topic string) ([]model.Question, error) {
	material, err := BuildMaterial(ctx, s.lib, topic, s.log)
	if err != nil {
		return nil, err
	}
	if len(material) < MinMaterialChars {
		return nil, ErrMaterialTooShort
	}
	return s.gen.GenerateQuestions(ctx, material)
}
