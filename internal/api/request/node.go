package request

// UpdateNodeContent is the request body for storing user-edited content.
type UpdateNodeContent struct {
	Content string `json:"content" validate:"required"`
}

// ChatAsk is the request body for asking a question about a node.
type ChatAsk struct {
	Question string `json:"question" validate:"required,min=1,max=4000"`
}
