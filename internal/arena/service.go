// Package arena is the application service behind the HTTP API: it runs
// games through the session manager, renders boards, archives finished
// games, and pushes state updates to live watchers.
package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/atomic-chess-arena/internal/archive"
	"github.com/park285/atomic-chess-arena/internal/atomic"
	"github.com/park285/atomic-chess-arena/internal/msgcat"
	"github.com/park285/atomic-chess-arena/internal/render"
	"github.com/park285/atomic-chess-arena/internal/session"
	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

const maxArchiveLimit = 50

// Error codes the service emits beyond the engine rejection codes.
const (
	CodeNoSession      = "no_session"
	CodeSessionExists  = "session_exists"
	CodeInvalidRequest = "invalid_request"
	CodeConflict       = "conflict"
)

type Config struct {
	ArchiveLimit int
}

// Publisher receives state updates for live watchers of a room.
type Publisher func(room string, update *atomicdto.StateUpdate)

type Service struct {
	sessions *session.Manager
	repo     archive.Repository
	renderer render.BoardRenderer
	catalog  *msgcat.Catalog
	cfg      Config
	logger   *zap.Logger
	publish  Publisher
}

func NewService(sessions *session.Manager, repo archive.Repository, renderer render.BoardRenderer, catalog *msgcat.Catalog, cfg Config, logger *zap.Logger) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("archive repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("message catalog is required")
	}
	if cfg.ArchiveLimit <= 0 || cfg.ArchiveLimit > maxArchiveLimit {
		cfg.ArchiveLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions: sessions,
		repo:     repo,
		renderer: renderer,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// SetPublisher wires the live-update sink. Call before serving traffic.
func (s *Service) SetPublisher(p Publisher) {
	s.publish = p
}

func (s *Service) notify(room string, update *atomicdto.StateUpdate) {
	if s.publish != nil {
		s.publish(room, update)
	}
}

func (s *Service) Start(ctx context.Context, req atomicdto.StartRequest) (*atomicdto.StartResponse, error) {
	room := strings.TrimSpace(req.Room)
	if room == "" {
		return nil, s.invalidRequest()
	}
	white := strings.TrimSpace(req.White)
	if white == "" {
		white = "White"
	}
	black := strings.TrimSpace(req.Black)
	if black == "" {
		black = "Black"
	}

	sess, resumed, err := s.sessions.Start(ctx, room, white, black)
	if err != nil {
		if errors.Is(err, session.ErrSessionExists) {
			return nil, &atomicdto.DomainError{
				Code:      CodeSessionExists,
				Message:   s.catalog.RenderOr("api.session_exists", nil, "a game is already running in this room"),
				Retryable: true,
			}
		}
		return nil, err
	}
	state := toState(sess)
	if !resumed {
		s.notify(room, &atomicdto.StateUpdate{Event: atomicdto.EventStart, State: state})
	}
	return &atomicdto.StartResponse{State: state, Resumed: resumed}, nil
}

func (s *Service) Play(ctx context.Context, room string, req atomicdto.MoveRequest) (*atomicdto.MoveResponse, error) {
	from, err := atomic.ParseSquare(req.From)
	if err != nil {
		return nil, s.rejection(err, req.From, req.To)
	}
	to, err := atomic.ParseSquare(req.To)
	if err != nil {
		return nil, s.rejection(err, req.From, req.To)
	}

	sess, err := s.sessions.Apply(ctx, room, from, to)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNoSession):
		return nil, s.noSession()
	case atomic.IsRejection(err):
		s.logger.Debug("arena_move_rejected",
			zap.String("room", room),
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.String("reason", atomic.ReasonCode(err)),
		)
		return nil, s.rejection(err, req.From, req.To)
	case errors.Is(err, redis.TxFailedErr):
		return nil, s.conflict()
	default:
		return nil, err
	}

	state := toState(sess)
	finished := !sess.Live()
	s.notify(room, &atomicdto.StateUpdate{
		Event: atomicdto.EventMove,
		State: state,
		From:  from.String(),
		To:    to.String(),
	})
	if finished {
		s.archiveFinished(ctx, sess)
		s.notify(room, &atomicdto.StateUpdate{Event: atomicdto.EventFinish, State: state})
	}
	return &atomicdto.MoveResponse{
		State:    state,
		From:     from.String(),
		To:       to.String(),
		Finished: finished,
	}, nil
}

func (s *Service) Resign(ctx context.Context, room string, req atomicdto.ResignRequest) (*atomicdto.ResignResponse, error) {
	var winner atomic.Color
	switch strings.ToLower(strings.TrimSpace(req.Color)) {
	case "white", "w":
		winner = atomic.Black
	case "black", "b":
		winner = atomic.White
	default:
		return nil, s.invalidRequest()
	}

	sess, err := s.sessions.End(ctx, room, session.StatusResigned, winner.String(), session.EndReasonResigned)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNoSession):
		return nil, s.noSession()
	case errors.Is(err, atomic.ErrGameAlreadyOver):
		return nil, s.rejection(err, "", "")
	case errors.Is(err, redis.TxFailedErr):
		return nil, s.conflict()
	default:
		return nil, err
	}

	state := toState(sess)
	s.archiveFinished(ctx, sess)
	s.notify(room, &atomicdto.StateUpdate{Event: atomicdto.EventResign, State: state})
	return &atomicdto.ResignResponse{State: state}, nil
}

func (s *Service) Status(ctx context.Context, room string) (*atomicdto.StatusResponse, error) {
	sess, err := s.sessions.Get(ctx, room)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, s.noSession()
		}
		return nil, err
	}
	if sess.Live() {
		if terr := s.sessions.Store().Touch(ctx, sess); terr != nil {
			s.logger.Warn("arena_touch_error", zap.String("room", room), zap.Error(terr))
		}
	}
	return &atomicdto.StatusResponse{State: toState(sess)}, nil
}

// StatusByID answers a status lookup through the session id index.
func (s *Service) StatusByID(ctx context.Context, id string) (*atomicdto.StatusResponse, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, s.noSession()
		}
		return nil, err
	}
	return &atomicdto.StatusResponse{State: toState(sess)}, nil
}

// BoardPNG renders the room's current position. A non-nil highlight tints
// the from and to squares of the move the caller wants emphasized.
func (s *Service) BoardPNG(ctx context.Context, room string, highlight *render.MoveHighlight) ([]byte, error) {
	sess, err := s.sessions.Get(ctx, room)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, s.noSession()
		}
		return nil, err
	}
	g, err := atomic.Decode(sess.FEN)
	if err != nil {
		return nil, fmt.Errorf("stored position: %w", err)
	}
	return s.renderer.RenderPNG(ctx, g, render.Options{Highlight: highlight})
}

func (s *Service) Recent(ctx context.Context, room string) (*atomicdto.ArchiveResponse, error) {
	games, err := s.repo.RecentByRoom(ctx, room, s.cfg.ArchiveLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*atomicdto.ArchivedGame, 0, len(games))
	for _, g := range games {
		out = append(out, &atomicdto.ArchivedGame{
			ID:         g.ID,
			Room:       g.Room,
			White:      g.White,
			Black:      g.Black,
			Winner:     g.Winner,
			EndReason:  g.EndReason,
			MoveCount:  g.MoveCount,
			FinalFEN:   g.FinalFEN,
			StartedAt:  g.StartedAt,
			FinishedAt: g.FinishedAt,
		})
	}
	return &atomicdto.ArchiveResponse{Games: out}, nil
}

func (s *Service) archiveFinished(ctx context.Context, sess *session.Session) {
	rec := &archive.Game{
		SessionID:  sess.ID,
		Room:       sess.Room,
		White:      sess.White,
		Black:      sess.Black,
		Winner:     sess.Winner,
		EndReason:  sess.EndReason,
		MoveCount:  sess.MoveCount,
		FinalFEN:   sess.FEN,
		StartedAt:  sess.CreatedAt,
		FinishedAt: sess.UpdatedAt,
	}
	id, err := s.repo.Save(ctx, rec)
	if err != nil {
		if errors.Is(err, archive.ErrDuplicateGame) {
			return
		}
		s.logger.Error("arena_archive_error",
			zap.String("session_id", sess.ID),
			zap.String("room", sess.Room),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("arena_archived",
		zap.Int64("game_id", id),
		zap.String("session_id", sess.ID),
		zap.String("room", sess.Room),
		zap.String("winner", sess.Winner),
		zap.String("end_reason", sess.EndReason),
		zap.Int("move_count", sess.MoveCount),
	)
}

func (s *Service) rejection(err error, from, to string) *atomicdto.DomainError {
	code := atomic.ReasonCode(err)
	data := map[string]string{"From": from, "To": to}
	return &atomicdto.DomainError{
		Code:    code,
		Message: s.catalog.RenderOr("rejected."+code, data, err.Error()),
	}
}

func (s *Service) noSession() *atomicdto.DomainError {
	return &atomicdto.DomainError{
		Code:    CodeNoSession,
		Message: s.catalog.RenderOr("api.no_session", nil, "no game running in this room"),
	}
}

func (s *Service) invalidRequest() *atomicdto.DomainError {
	return &atomicdto.DomainError{
		Code:    CodeInvalidRequest,
		Message: s.catalog.RenderOr("api.invalid_request", nil, "request is missing required fields"),
	}
}

func (s *Service) conflict() *atomicdto.DomainError {
	return &atomicdto.DomainError{
		Code:      CodeConflict,
		Message:   s.catalog.RenderOr("api.conflict", nil, "another command touched this game first, try again"),
		Retryable: true,
	}
}

func toState(sess *session.Session) *atomicdto.GameState {
	turn := atomic.White.String()
	if strings.HasSuffix(sess.FEN, " b") {
		turn = atomic.Black.String()
	}
	return &atomicdto.GameState{
		SessionID: sess.ID,
		Room:      sess.Room,
		White:     sess.White,
		Black:     sess.Black,
		FEN:       sess.FEN,
		Turn:      turn,
		Status:    string(sess.Status),
		Winner:    sess.Winner,
		EndReason: sess.EndReason,
		MoveCount: sess.MoveCount,
		UpdatedAt: sess.UpdatedAt,
	}
}
