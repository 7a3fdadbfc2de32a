package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/doctree/internal/activity"
	"github.com/edvin/doctree/internal/model"
)

// GeneratePodcastWorkflow runs the podcast pipeline for a pending
// podcast row: write a script from the node material, synthesize speech,
// upload the audio, and mark the podcast ready. Any step failing marks
// the podcast failed with the error message.
func GeneratePodcastWorkflow(ctx workflow.Context, podcastID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			// Over-cap generations can never succeed on retry.
			NonRetryableErrorTypes: []string{"LimitExceededError"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var pctx activity.PodcastContext
	err := workflow.ExecuteActivity(ctx, "GetPodcastContext", podcastID).Get(ctx, &pctx)
	if err != nil {
		_ = setPodcastFailed(ctx, podcastID, err)
		return err
	}

	err = workflow.ExecuteActivity(ctx, "UpdatePodcastStatus", activity.UpdatePodcastStatusParams{
		ID:     podcastID,
		Status: model.StatusGenerating,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	var script string
	err = workflow.ExecuteActivity(ctx, "GenerateScript", activity.GenerateScriptParams{
		UserID:   pctx.UserID,
		Title:    pctx.Title,
		Material: pctx.Material,
	}).Get(ctx, &script)
	if err != nil {
		_ = setPodcastFailed(ctx, podcastID, err)
		return err
	}

	var audioURL string
	err = workflow.ExecuteActivity(ctx, "SynthesizeAudio", activity.SynthesizeAudioParams{
		UserID:    pctx.UserID,
		PodcastID: podcastID,
		Script:    script,
		Voice:     pctx.Voice,
	}).Get(ctx, &audioURL)
	if err != nil {
		_ = setPodcastFailed(ctx, podcastID, err)
		return err
	}

	err = workflow.ExecuteActivity(ctx, "SetPodcastReady", activity.SetPodcastReadyParams{
		ID:       podcastID,
		AudioURL: audioURL,
	}).Get(ctx, nil)
	if err != nil {
		_ = setPodcastFailed(ctx, podcastID, err)
		return err
	}

	return nil
}

// setPodcastFailed records the failure on the podcast row, best effort.
func setPodcastFailed(ctx workflow.Context, podcastID string, cause error) error {
	return workflow.ExecuteActivity(ctx, "UpdatePodcastStatus", activity.UpdatePodcastStatusParams{
		ID:      podcastID,
		Status:  model.StatusFailed,
		Message: cause.Error(),
	}).Get(ctx, nil)
}
