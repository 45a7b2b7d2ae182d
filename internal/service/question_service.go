package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
)

// MinMaterialChars is the minimum combined study-material length accepted
// for question generation. Shorter material fails fast without any
// provider call.
const MinMaterialChars = 100

const (
	minGeneratedQuestions = 3
	maxGeneratedQuestions = 8
	questionCacheTTL      = 24 * time.Hour
)

// Generation errors.
var (
	ErrMaterialTooShort = errors.New("study material too short")
	ErrBadGeneration    = errors.New("provider returned no usable questions")
)

var generationInstruction = fmt.Sprintf(`You create oral-exam practice questions.
Derive between %d and %d questions STRICTLY from the study material below.`,
	minGeneratedQuestions, maxGeneratedQuestions) + `
Do not use outside knowledge. Respond with ONLY a JSON object of the form
{"questions":[{"question":"...","keyPoints":["...","..."]}]} and nothing else.
Each question needs 2-4 short keyPoints a good answer should cover.

Study material:
`

// QuestionService turns user study material into practice questions via
// the external provider, and proxies free-form chat. Generated sets are
// cached by material hash since generation is slow and deterministic
// enough for practice purposes.
type QuestionService struct {
	provider *ProviderClient
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewQuestionService creates a QuestionService. rdb may be nil, disabling
// the cache.
func NewQuestionService(provider *ProviderClient, rdb *redis.Client, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		provider: provider,
		rdb:      rdb,
		log:      log.With().Str("component", "question_service").Logger(),
	}
}

// Chat forwards a single user message (with optional prior turns) to the
// provider and returns the reply.
func (s *QuestionService) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	return s.provider.ChatCompletion(ctx, messages)
}

// GenerateQuestions derives practice questions from study material.
// Material below MinMaterialChars is rejected before any network call.
func (s *QuestionService) GenerateQuestions(ctx context.Context, material string) ([]model.Question, error) {
	material = strings.TrimSpace(material)
	if len(material) < MinMaterialChars {
		return nil, fmt.Errorf("%w: %d chars (min %d)", ErrMaterialTooShort, len(material), MinMaterialChars)
	}

	key := s.cacheKey(material)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var questions []model.Question
			if json.Unmarshal(cached, &questions) == nil && len(questions) > 0 {
				return questions, nil
			}
		}
	}

	reply, err := s.provider.ChatCompletion(ctx, []ChatMessage{
		{Role: "user", Content: generationInstruction + material},
	})
	if err != nil {
		return nil, err
	}

	questions, err := ParseGeneratedQuestions(reply)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(questions); err == nil {
			if err := s.rdb.Set(ctx, key, raw, questionCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("question cache write failed")
			}
		}
	}
	return questions, nil
}

// ParseGeneratedQuestions validates a raw provider reply against the
// expected {"questions":[...]} shape. Replies that are not well-formed
// JSON, or that contain zero valid entries, are a hard failure.
func ParseGeneratedQuestions(reply string) ([]model.Question, error) {
	raw := stripCodeFence(reply)

	var parsed struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGeneration, err)
	}

	questions := make([]model.Question, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			continue
		}
		points := make([]string, 0, len(q.KeyPoints))
		for _, p := range q.KeyPoints {
			if p = strings.TrimSpace(p); p != "" {
				points = append(points, p)
			}
		}
		q.KeyPoints = points
		questions = append(questions, q)
		if len(questions) == maxGeneratedQuestions {
			break
		}
	}
	if len(questions) == 0 {
		return nil, ErrBadGeneration
	}
	return questions, nil
}

// stripCodeFence unwraps a ```json ... ``` fenced reply. Models wrap
// output despite instructions often enough that this is required.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (s *QuestionService) cacheKey(material string) string {
	sum := sha256.Sum256([]byte(material))
	return "genq:" + hex.EncodeToString(sum[:])
}
