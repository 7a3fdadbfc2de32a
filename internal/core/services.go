package core

import (
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/doctree/internal/billing"
)

type Services struct {
	User         *UserService
	APIKey       *APIKeyService
	Tree         *TreeService
	Node         *NodeService
	Quiz         *QuizService
	Flashcard    *FlashcardService
	Resource     *ResourceService
	Chat         *ChatService
	Podcast      *PodcastService
	Subscription *SubscriptionService
}

func NewServices(db DB, tc temporalclient.Client, meter billing.Meterer, llm TextGenerator, web, video Searcher) *Services {
	return &Services{
		User:         NewUserService(db),
		APIKey:       NewAPIKeyService(db),
		Tree:         NewTreeService(db, llm, meter),
		Node:         NewNodeService(db, llm, meter),
		Quiz:         NewQuizService(db, llm, meter),
		Flashcard:    NewFlashcardService(db, llm, meter),
		Resource:     NewResourceService(db, web, video),
		Chat:         NewChatService(db, llm, meter),
		Podcast:      NewPodcastService(db, tc, meter),
		Subscription: NewSubscriptionService(db),
	}
}
