package biz

import (
	"log/slog"

	"github.com/replydigest/replydigest/internal/biz/repo"
	"github.com/replydigest/replydigest/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Ingest     *usecase.IngestUsecase
	Query      *usecase.QueryUsecase
	Summarizer *usecase.SummarizerUsecase
	Digest     *usecase.DigestUsecase
	Message    *usecase.MessageUsecase
}

// Deps are the repositories the usecases are built on
type Deps struct {
	Replies   repo.ReplyRepo
	Identity  repo.IdentityRepo
	Generator repo.GeneratorRepo
	Notifier  repo.NotifierRepo
	Messenger repo.MessengerRepo
}

// NewUsecases wires the usecase layer
func NewUsecases(deps Deps, summaryCfg usecase.SummaryConfig, logger *slog.Logger) *Usecases {
	queryUC := usecase.NewQueryUsecase(deps.Replies, logger)
	summarizerUC := usecase.NewSummarizerUsecase(deps.Generator, summaryCfg, logger)

	return &Usecases{
		Ingest:     usecase.NewIngestUsecase(deps.Replies, deps.Identity, logger),
		Query:      queryUC,
		Summarizer: summarizerUC,
		Digest:     usecase.NewDigestUsecase(queryUC, summarizerUC, deps.Notifier, logger),
		Message:    usecase.NewMessageUsecase(deps.Messenger, logger),
	}
}
