package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.temporal.io/sdk/temporal"

	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/llm"
	"github.com/edvin/doctree/internal/model"
	"github.com/edvin/doctree/internal/platform"
)

// DB is the database surface activities need. *pgxpool.Pool satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

// ScriptGenerator produces podcast scripts. *llm.Client satisfies it.
type ScriptGenerator interface {
	GenerateText(ctx context.Context, system, user string) (string, llm.Usage, error)
	Model() string
}

// SpeechSynthesizer turns text into MP3 audio. *tts.Client satisfies it.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	Model() string
}

// AudioUploader stores audio bytes and returns a public URL.
// *storage.AudioStore satisfies it.
type AudioUploader interface {
	Put(ctx context.Context, key string, audio []byte) (string, error)
}

// PodcastActivities implements the podcast generation pipeline steps.
type PodcastActivities struct {
	db    DB
	llm   ScriptGenerator
	tts   SpeechSynthesizer
	store AudioUploader
	meter billing.Meterer
}

func NewPodcastActivities(db DB, llm ScriptGenerator, tts SpeechSynthesizer, store AudioUploader, meter billing.Meterer) *PodcastActivities {
	return &PodcastActivities{db: db, llm: llm, tts: tts, store: store, meter: meter}
}

// PodcastContext carries everything the workflow needs about a podcast
// and its source node.
type PodcastContext struct {
	PodcastID string
	UserID    string
	Voice     string
	Title     string
	Material  string
}

// GetPodcastContext loads the podcast, its node's material, and the
// owning user.
func (a *PodcastActivities) GetPodcastContext(ctx context.Context, podcastID string) (*PodcastContext, error) {
	var (
		pctx    PodcastContext
		summary string
		content *string
	)
	err := a.db.QueryRow(ctx,
		`SELECT p.id, p.voice, t.user_id, n.title, n.summary, n.content
		 FROM podcasts p
		 JOIN nodes n ON p.node_id = n.id
		 JOIN trees t ON n.tree_id = t.id
		 WHERE p.id = $1`, podcastID,
	).Scan(&pctx.PodcastID, &pctx.Voice, &pctx.UserID, &pctx.Title, &summary, &content)
	if err != nil {
		return nil, fmt.Errorf("get podcast context %s: %w", podcastID, err)
	}

	if content != nil && *content != "" {
		pctx.Material = *content
	} else {
		pctx.Material = fmt.Sprintf("%s: %s", pctx.Title, summary)
	}
	return &pctx, nil
}

// UpdatePodcastStatusParams holds parameters for a status transition.
type UpdatePodcastStatusParams struct {
	ID      string
	Status  string
	Message string
}

// UpdatePodcastStatus moves a podcast to a new status with an optional
// human-readable message.
func (a *PodcastActivities) UpdatePodcastStatus(ctx context.Context, params UpdatePodcastStatusParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE podcasts SET status = $1, status_message = $2, updated_at = now() WHERE id = $3`,
		params.Status, params.Message, params.ID,
	)
	if err != nil {
		return fmt.Errorf("update podcast %s status: %w", params.ID, err)
	}
	return nil
}

const scriptSystemPrompt = `You are a podcast writer. Turn the given material into an engaging 3-5 minute solo podcast script: a hook, the key ideas explained conversationally with examples, and a closing takeaway. Plain spoken prose only, no stage directions or markup.`

// GenerateScriptParams holds parameters for script generation.
type GenerateScriptParams struct {
	UserID string
	Title  string
	// Material is the node content the script is written from.
	Material string
}

// GenerateScript writes the podcast script from the node material. Token
// consumption is metered against the owning user.
func (a *PodcastActivities) GenerateScript(ctx context.Context, params GenerateScriptParams) (string, error) {
	prompt := fmt.Sprintf("Episode topic: %s\n\nMaterial:\n%s", params.Title, params.Material)
	script, _, err := billing.Gated(ctx, a.meter, params.UserID, a.llm.Model(), func(ctx context.Context) (string, int64, error) {
		text, usage, err := a.llm.GenerateText(ctx, scriptSystemPrompt, prompt)
		if err != nil {
			return "", 0, fmt.Errorf("generate script: %w", err)
		}
		return text, int64(usage.TotalTokens), nil
	})
	if err != nil {
		return "", asActivityError(err)
	}
	return script, nil
}

// SynthesizeAudioParams holds parameters for speech synthesis.
type SynthesizeAudioParams struct {
	UserID    string
	PodcastID string
	Script    string
	Voice     string
}

// SynthesizeAudio converts the script to speech, uploads the MP3, and
// returns its public URL. Character consumption is metered against the
// owning user.
func (a *PodcastActivities) SynthesizeAudio(ctx context.Context, params SynthesizeAudioParams) (string, error) {
	audio, _, err := billing.Gated(ctx, a.meter, params.UserID, a.tts.Model(), func(ctx context.Context) ([]byte, int64, error) {
		data, err := a.tts.Synthesize(ctx, params.Script, params.Voice)
		if err != nil {
			return nil, 0, fmt.Errorf("synthesize audio: %w", err)
		}
		return data, int64(len(params.Script)), nil
	})
	if err != nil {
		return "", asActivityError(err)
	}

	key := fmt.Sprintf("podcasts/%s.mp3", platform.NewName(params.PodcastID+"-"))
	url, err := a.store.Put(ctx, key, audio)
	if err != nil {
		return "", fmt.Errorf("upload audio for podcast %s: %w", params.PodcastID, err)
	}
	return url, nil
}

// SetPodcastReadyParams holds parameters for completing a podcast.
type SetPodcastReadyParams struct {
	ID       string
	AudioURL string
}

// SetPodcastReady stores the audio URL and marks the podcast ready.
func (a *PodcastActivities) SetPodcastReady(ctx context.Context, params SetPodcastReadyParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE podcasts SET status = $1, status_message = '', audio_url = $2, updated_at = now() WHERE id = $3`,
		model.StatusReady, params.AudioURL, params.ID,
	)
	if err != nil {
		return fmt.Errorf("set podcast %s ready: %w", params.ID, err)
	}
	return nil
}

// asActivityError marks over-cap failures non-retryable so the workflow
// fails the podcast instead of retrying a generation that can never pass
// the gate.
func asActivityError(err error) error {
	var limitErr *billing.LimitExceededError
	if errors.As(err, &limitErr) {
		return temporal.NewNonRetryableApplicationError(limitErr.Error(), "LimitExceededError", err)
	}
	return err
}
