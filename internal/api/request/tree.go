package request

// CreateTree is the request body for creating a knowledge tree.
type CreateTree struct {
	Topic       string `json:"topic" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=2000"`
}
