package imagegen

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitte-ai/vitte-chat/internal/cache"
	"github.com/vitte-ai/vitte-chat/internal/model"
)

// SideChannel coordinates the ticket mailbox and the cadence decision.
// Everything here is best-effort: failures log and degrade to "no image".
type SideChannel struct {
	generator  Generator
	cache      cache.Cache
	pickupWait time.Duration
	ticketTTL  time.Duration
	cadenceMin int
	cadenceMax int
	log        zerolog.Logger

	// sleep is swapped in tests.
	sleep func(time.Duration)
}

func NewSideChannel(g Generator, c cache.Cache, pickupWait, ticketTTL time.Duration, cadenceMin, cadenceMax int, log zerolog.Logger) *SideChannel {
	return &SideChannel{
		generator:  g,
		cache:      c,
		pickupWait: pickupWait,
		ticketTTL:  ticketTTL,
		cadenceMin: cadenceMin,
		cadenceMax: cadenceMax,
		log:        log.With().Str("component", "imagegen").Logger(),
		sleep:      time.Sleep,
	}
}

func ticketKey(dialogID int64) string { return fmt.Sprintf("imggen:ticket:%d", dialogID) }

// Pickup consumes the dialog's ticket, if any, and polls the job result
// within the bounded wait. The ticket is single-shot: the atomic read-delete
// guarantees it is gone whether or not the image was ready.
func (s *SideChannel) Pickup(ctx context.Context, dialogID int64) string {
	taskID, err := s.cache.GetDel(ctx, ticketKey(dialogID))
	if err != nil {
		return "" // no ticket, or cache unavailable
	}

	deadline := time.Now().Add(s.pickupWait)
	interval := s.pickupWait / 5
	if interval <= 0 {
		interval = time.Second
	}
	for {
		res, err := s.generator.Result(ctx, taskID)
		if err != nil {
			s.log.Warn().Err(err).Int64("dialog_id", dialogID).Str("task_id", taskID).Msg("image result poll failed")
			return ""
		}
		switch res.Status {
		case "done":
			return res.URL
		case "failed":
			s.log.Warn().Int64("dialog_id", dialogID).Str("task_id", taskID).Msg("image generation failed")
			return ""
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			// Not ready in time; the ticket is already consumed.
			return ""
		}
		s.sleep(interval)
	}
}

// ShouldEnqueue applies the cadence window to the projected message count.
func (s *SideChannel) ShouldEnqueue(lastImageAt *int, projected int) bool {
	if lastImageAt == nil {
		return projected >= s.cadenceMin && projected <= s.cadenceMax
	}
	delta := projected - *lastImageAt
	return delta >= s.cadenceMin && delta <= s.cadenceMax
}

// Trigger runs the cadence decision and, when due, enqueues a job and parks
// the task id in the mailbox. Returns the projected count to persist as the
// dialog's last-image marker, or nil when nothing was enqueued.
func (s *SideChannel) Trigger(ctx context.Context, dialog *model.Dialog, personaKey, userText string) *int {
	projected := dialog.MessageCount
	if !s.ShouldEnqueue(dialog.LastImageAt, projected) {
		return nil
	}
	taskID, err := s.generator.Enqueue(ctx, Job{PersonaKey: personaKey, Hint: userText})
	if err != nil {
		s.log.Warn().Err(err).Int64("dialog_id", dialog.ID).Msg("image enqueue failed")
		return nil
	}
	if err := s.cache.Set(ctx, ticketKey(dialog.ID), taskID, s.ticketTTL); err != nil {
		s.log.Warn().Err(err).Int64("dialog_id", dialog.ID).Msg("image ticket write failed")
		return nil
	}
	s.log.Info().Int64("dialog_id", dialog.ID).Str("task_id", taskID).Int("projected", projected).Msg("image job enqueued")
	return &projected
}
