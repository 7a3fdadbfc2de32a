package request

// CreatePodcast is the request body for generating a podcast episode.
type CreatePodcast struct {
	Voice string `json:"voice" validate:"omitempty,oneof=alloy echo fable onyx nova shimmer"`
}
