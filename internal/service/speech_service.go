package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/config"
)

const ttsCacheTTL = 7 * 24 * time.Hour

// SpeechService synthesizes audio via the external provider, with a
// best-effort Redis cache keyed by the text and voice. The same prompt is
// spoken many times across sessions, so cache hits dominate.
type SpeechService struct {
	provider *ProviderClient
	cfg      *config.Config
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewSpeechService creates a SpeechService. rdb may be nil, disabling the
// cache.
func NewSpeechService(provider *ProviderClient, cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *SpeechService {
	return &SpeechService{
		provider: provider,
		cfg:      cfg,
		rdb:      rdb,
		log:      log.With().Str("component", "speech_service").Logger(),
	}
}

// Configured reports whether synthesis is available at all.
func (s *SpeechService) Configured() bool {
	return s.provider.Configured()
}

// Synthesize returns MP3 audio for the given text. voice may be empty to
// use the server default.
func (s *SpeechService) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = s.cfg.TTSVoice
	}
	key := s.cacheKey(text, voice)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Bytes()
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
		if err != nil && err != redis.Nil {
			s.log.Warn().Err(err).Msg("tts cache read failed")
		}
	}

	audio, err := s.provider.Speech(ctx, text, voice)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, key, audio, ttsCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("tts cache write failed")
		}
	}
	return audio, nil
}

func (s *SpeechService) cacheKey(text, voice string) string {
	sum := sha256.Sum256([]byte(s.cfg.TTSModel + "\x00" + voice + "\x00" + text))
	return "tts:" + hex.EncodeToString(sum[:])
}
