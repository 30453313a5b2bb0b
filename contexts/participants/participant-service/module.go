package participantservice

import (
	"log/slog"

	httpadapter "pointdeck/contexts/participants/participant-service/adapters/http"
	"pointdeck/contexts/participants/participant-service/adapters/memory"
	"pointdeck/contexts/participants/participant-service/application/commands"
	"pointdeck/contexts/participants/participant-service/application/queries"
	"pointdeck/contexts/participants/participant-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Participants      ports.ParticipantRepository
	Publisher         ports.EventPublisher
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	DisableSpectators bool
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	participantUseCase := commands.ParticipantUseCase{
		Participants:      deps.Participants,
		Publisher:         deps.Publisher,
		Clock:             deps.Clock,
		IDGen:             deps.IDGen,
		DisableSpectators: deps.DisableSpectators,
		Logger:            deps.Logger,
	}
	rosterUseCase := queries.RosterUseCase{
		Participants: deps.Participants,
		Logger:       deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Participants: participantUseCase,
			Roster:       rosterUseCase,
			Logger:       deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Participants: store,
		Clock:        store,
		IDGen:        store,
		Logger:       logger,
	})
	module.Store = store
	return module
}
