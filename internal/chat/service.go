// Package chat is the turn orchestrator: it threads one inbound message
// through the safety gate, the intimacy gate, memory, the prompt builder,
// the model gateway and the image side-channel, with a single transaction
// around the turn's writes.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vitte-ai/vitte-chat/internal/dialog"
	"github.com/vitte-ai/vitte-chat/internal/features"
	"github.com/vitte-ai/vitte-chat/internal/imagegen"
	"github.com/vitte-ai/vitte-chat/internal/llm"
	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/recency"
	"github.com/vitte-ai/vitte-chat/internal/semantic"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

// MaxInputChars bounds one inbound message.
const MaxInputChars = 4000

// Service wires the pipeline components together.
type Service struct {
	store    store.Store
	dialogs  *dialog.Manager
	features *features.Resolver
	recency  *recency.Loader
	semantic *semantic.Memory
	llm      llm.Completer
	images   *imagegen.SideChannel
	log      zerolog.Logger

	greetingModel       string
	greetingTemperature float64
	greetingMaxTokens   int
}

// NewService builds the orchestrator. images may be nil to disable the
// side-channel entirely (e.g., in lightweight deployments).
func NewService(
	st store.Store,
	dialogs *dialog.Manager,
	feats *features.Resolver,
	rec *recency.Loader,
	sem *semantic.Memory,
	completer llm.Completer,
	images *imagegen.SideChannel,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:               st,
		dialogs:             dialogs,
		features:            feats,
		recency:             rec,
		semantic:            sem,
		llm:                 completer,
		images:              images,
		log:                 log.With().Str("component", "chat").Logger(),
		greetingTemperature: 0.9,
		greetingMaxTokens:   512,
	}
}

// ConfigureGreeting overrides the greeting turn's completion parameters.
// An empty model name keeps the client default.
func (s *Service) ConfigureGreeting(modelName string, temperature float64, maxTokens int) {
	s.greetingModel = modelName
	if temperature > 0 {
		s.greetingTemperature = temperature
	}
	if maxTokens > 0 {
		s.greetingMaxTokens = maxTokens
	}
}

// ProcessInput is one inbound user turn.
type ProcessInput struct {
	UserID     int64
	Text       string
	PersonaID  *int64
	Mode       model.Mode
	StoryKey   *string
	Atmosphere *string
}

// ProcessResult is the orchestrator's answer for one turn.
type ProcessResult struct {
	ReplyText     string `json:"replyText"`
	DialogID      int64  `json:"dialogId"`
	ImageURL      string `json:"imageUrl,omitempty"`
	MessageCount  int    `json:"messageCount"`
	SafetyBlocked bool   `json:"safetyBlocked"`
	Decision      string `json:"decision,omitempty"`
}

func (in *ProcessInput) validate() error {
	if in.UserID == 0 {
		return fmt.Errorf("%w: user id is required", model.ErrValidation)
	}
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("%w: text is empty", model.ErrValidation)
	}
	if len([]rune(in.Text)) > MaxInputChars {
		return fmt.Errorf("%w: text exceeds %d characters", model.ErrValidation, MaxInputChars)
	}
	if in.Mode == "" {
		in.Mode = model.ModeDefault
	}
	if !model.KnownMode(in.Mode) {
		return fmt.Errorf("%w: unknown mode %q", model.ErrValidation, in.Mode)
	}
	if in.Atmosphere != nil && !model.KnownAtmosphere(model.Atmosphere(*in.Atmosphere)) {
		return fmt.Errorf("%w: unknown atmosphere %q", model.ErrValidation, *in.Atmosphere)
	}
	return nil
}

// resolvePersona picks the explicit persona, the user's active one, or the
// catalog default, in that order.
func (s *Service) resolvePersona(ctx context.Context, st store.Store, user *model.User, personaID *int64) (*model.Persona, error) {
	switch {
	case personaID != nil:
		return st.Personas().GetByID(ctx, *personaID)
	case user.ActivePersonaID != nil:
		return st.Personas().GetByID(ctx, *user.ActivePersonaID)
	default:
		return st.Personas().Default(ctx)
	}
}

func (s *Service) storyFor(ctx context.Context, st store.Store, persona *model.Persona, key *string) *model.Story {
	if key == nil {
		return nil
	}
	stories, err := st.Personas().Stories(ctx, persona.ID)
	if err != nil {
		s.log.Warn().Err(err).Int64("persona_id", persona.ID).Msg("story lookup failed")
		return nil
	}
	for _, st := range stories {
		if st.Key == *key {
			return st
		}
	}
	return nil
}

// loadGateInputs runs the feature resolver and the recency window
// concurrently. The recency read uses the transactional store; the feature
// resolver deliberately runs on the base store and shared cache, because a
// database/sql transaction must not be used from two goroutines.
func (s *Service) loadGateInputs(ctx context.Context, tx store.Store, userID, dialogID int64) (*features.Resolution, []*model.Message, error) {
	var (
		res     *features.Resolution
		history []*model.Message
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = s.features.Resolve(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.recency.Load(gctx, tx, dialogID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return res, history, nil
}
