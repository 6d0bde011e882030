package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
)

// 조회 건수
const (
	LastMessagesLimit   = 10
	InboxLimit          = 10
	SearchResultLimit   = 5
	MaxSearchKeywordLen = 100
)

// MessageService records chat messages and answers history queries
type MessageService interface {
	Post(ctx context.Context, senderID int64, content string) (*domain.Message, error)
	SendPrivate(ctx context.Context, fromID, toID int64, content string) (*domain.PrivateDelivery, error)
	AllowMedia(ctx context.Context, senderID int64) error
	Last(ctx context.Context) ([]domain.MessageView, error)
	Inbox(ctx context.Context, memberID int64) ([]domain.MessageView, error)
	Search(ctx context.Context, actorID int64, keyword string) ([]domain.MessageView, error)
}

type messageService struct {
	repo      repository.MessageRepository
	directory *Directory
	clock     clock.Clock
}

// NewMessageService creates a new MessageService
func NewMessageService(repo repository.MessageRepository, directory *Directory, clk clock.Clock) MessageService {
	if clk == nil {
		clk = clock.Real()
	}
	return &messageService{repo: repo, directory: directory, clock: clk}
}

// Post records a public message from an active, unmuted sender
func (s *messageService) Post(ctx context.Context, senderID int64, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if err := checkMessageText(content); err != nil {
		return nil, err
	}
	if _, err := s.speaker(ctx, senderID); err != nil {
		return nil, err
	}

	msg := &domain.Message{SenderID: senderID, Content: content, Timestamp: s.clock.Now()}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// SendPrivate 쪽지 기록 후 전달 지시 반환
func (s *messageService) SendPrivate(ctx context.Context, fromID, toID int64, content string) (*domain.PrivateDelivery, error) {
	if fromID == toID {
		return nil, common.Invalid("cannot message yourself")
	}
	content = strings.TrimSpace(content)
	if err := checkMessageText(content); err != nil {
		return nil, err
	}
	sender, err := s.speaker(ctx, fromID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.directory.Get(ctx, toID)
	if err != nil {
		return nil, err
	}
	if !recipient.IsActive() {
		return nil, common.ErrNotActive
	}

	msg := &domain.Message{
		SenderID:  fromID,
		TargetID:  &toID,
		Content:   content,
		IsPrivate: true,
		Timestamp: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return &domain.PrivateDelivery{
		MessageID:   msg.ID,
		SenderID:    fromID,
		SenderNick:  sender.Nick,
		RecipientID: toID,
		Content:     content,
	}, nil
}

// AllowMedia rejects members restricted to text
func (s *messageService) AllowMedia(ctx context.Context, senderID int64) error {
	m, err := s.speaker(ctx, senderID)
	if err != nil {
		return err
	}
	if m.TextOnly {
		return common.ErrForbidden
	}
	return nil
}

func (s *messageService) Last(ctx context.Context) ([]domain.MessageView, error) {
	msgs, err := s.repo.LastPublic(ctx, LastMessagesLimit)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, msgs)
}

func (s *messageService) Inbox(ctx context.Context, memberID int64) ([]domain.MessageView, error) {
	if _, err := s.directory.Get(ctx, memberID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.Inbox(ctx, memberID, InboxLimit)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, msgs)
}

// Search finds public messages containing keyword (1..100 characters)
func (s *messageService) Search(ctx context.Context, actorID int64, keyword string) ([]domain.MessageView, error) {
	keyword = strings.TrimSpace(keyword)
	if n := utf8.RuneCountInString(keyword); n == 0 || n > MaxSearchKeywordLen {
		return nil, common.Invalid("keyword must be 1-%d characters", MaxSearchKeywordLen)
	}
	actor, err := s.directory.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsActive() {
		return nil, common.ErrNotActive
	}
	msgs, err := s.repo.SearchPublic(ctx, keyword, SearchResultLimit)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, msgs)
}

// speaker loads an active member allowed to talk
func (s *messageService) speaker(ctx context.Context, id int64) (*domain.Member, error) {
	m, err := s.directory.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, common.ErrNotActive
	}
	if m.IsMuted(s.clock.Now()) {
		return nil, common.ErrMuted
	}
	return m, nil
}

// views resolves sender nicks; erased senders keep an empty nick
func (s *messageService) views(ctx context.Context, msgs []*domain.Message) ([]domain.MessageView, error) {
	nicks := make(map[int64]string)
	out := make([]domain.MessageView, 0, len(msgs))
	for _, m := range msgs {
		nick, ok := nicks[m.SenderID]
		if !ok {
			sender, err := s.directory.Get(ctx, m.SenderID)
			switch {
			case err == nil:
				nick = sender.Nick
			case errors.Is(err, common.ErrMemberNotFound):
			default:
				return nil, err
			}
			nicks[m.SenderID] = nick
		}
		out = append(out, domain.MessageView{
			ID:         m.ID,
			SenderID:   m.SenderID,
			SenderNick: nick,
			Content:    m.Content,
			Timestamp:  m.Timestamp,
		})
	}
	return out, nil
}
