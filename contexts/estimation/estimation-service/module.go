package estimationservice

import (
	"log/slog"

	httpadapter "pointdeck/contexts/estimation/estimation-service/adapters/http"
	"pointdeck/contexts/estimation/estimation-service/adapters/memory"
	"pointdeck/contexts/estimation/estimation-service/application/commands"
	"pointdeck/contexts/estimation/estimation-service/application/queries"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Stories           ports.StoryRepository
	Votes             ports.VoteRepository
	Unlocks           ports.UnlockRepository
	Comments          ports.CommentRepository
	Participants      ports.ParticipantDirectory
	Outbox            ports.OutboxWriter
	OutboxReader      ports.OutboxRepository
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	UnlockThreshold   int
	AutoRevealEnabled bool
	AutoStartEnabled  bool
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	storyUseCase := commands.StoryUseCase{
		Stories:          deps.Stories,
		Votes:            deps.Votes,
		Outbox:           deps.Outbox,
		Clock:            deps.Clock,
		IDGen:            deps.IDGen,
		AutoStartEnabled: deps.AutoStartEnabled,
		Logger:           deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Stories:           deps.Stories,
		Votes:             deps.Votes,
		Participants:      deps.Participants,
		Outbox:            deps.Outbox,
		Clock:             deps.Clock,
		IDGen:             deps.IDGen,
		AutoRevealEnabled: deps.AutoRevealEnabled,
		Logger:            deps.Logger,
	}
	unlockUseCase := commands.UnlockUseCase{
		Stories:   deps.Stories,
		Unlocks:   deps.Unlocks,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Threshold: deps.UnlockThreshold,
		Logger:    deps.Logger,
	}
	commentUseCase := commands.CommentUseCase{
		Stories:  deps.Stories,
		Comments: deps.Comments,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	boardUseCase := queries.BoardUseCase{
		Stories:      deps.Stories,
		Votes:        deps.Votes,
		Unlocks:      deps.Unlocks,
		Comments:     deps.Comments,
		Participants: deps.Participants,
		Logger:       deps.Logger,
	}
	feedUseCase := queries.EventFeedUseCase{
		Outbox: deps.OutboxReader,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Stories:  storyUseCase,
			Votes:    voteUseCase,
			Unlocks:  unlockUseCase,
			Comments: commentUseCase,
			Board:    boardUseCase,
			Feed:     feedUseCase,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Stories:           store,
		Votes:             store,
		Unlocks:           store,
		Comments:          store,
		Participants:      store,
		Outbox:            store,
		OutboxReader:      store,
		Clock:             store,
		IDGen:             store,
		UnlockThreshold:   commands.DefaultUnlockThreshold,
		AutoRevealEnabled: true,
		AutoStartEnabled:  true,
		Logger:            logger,
	})
	module.Store = store
	return module
}
