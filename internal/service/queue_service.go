package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"sushibar/waitline/internal/model"
	"sushibar/waitline/internal/repository"
)

const (
	maxNameLen   = 50
	minPartySize = 1
	maxPartySize = 5

	codeLen         = 6
	codeAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxCodeAttempts = 10

	// Guarded transitions can lose to a concurrent admin action; losers
	// re-select the next candidate this many times before giving up.
	maxTransitionRetries = 3
)

type JoinResult struct {
	Code      string `json:"code"`
	TicketURL string `json:"ticket_url"`
}

// TicketInfo is the guest-facing view of a party. Position is 1-based within
// the active queue and nil once the party is served or canceled.
type TicketInfo struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Size     int               `json:"size"`
	Status   model.PartyStatus `json:"status"`
	Sushi    string            `json:"sushi"`
	Position *int              `json:"position"`
}

type QueueService interface {
	Join(ctx context.Context, name string, size int, sushi string) (*JoinResult, error)
	Ticket(ctx context.Context, code string) (*TicketInfo, error)
	ActiveQueue(ctx context.Context) ([]model.Party, error)
	Advance(ctx context.Context) (string, error)
	ServeCalled(ctx context.Context) (string, error)
	Cancel(ctx context.Context, code string) (string, error)
}

type queueService struct {
	partyRepo      repository.PartyRepository
	ticketURLBase  string
	singleCallSlot bool
}

func NewQueueService(partyRepo repository.PartyRepository, ticketURLBase string, singleCallSlot bool) QueueService {
	return &queueService{
		partyRepo:      partyRepo,
		ticketURLBase:  ticketURLBase,
		singleCallSlot: singleCallSlot,
	}
}

func (s *queueService) Join(ctx context.Context, name string, size int, sushi string) (*JoinResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, ErrNameTooLong
	}
	if size < minPartySize || size > maxPartySize {
		return nil, ErrSizeOutOfRange
	}
	if strings.TrimSpace(sushi) == "" {
		return nil, ErrSushiRequired
	}

	// The unique index on code is the real uniqueness guarantee; the loop
	// just re-draws until the insert lands.
	var party *model.Party
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate ticket code: %w", err)
		}
		candidate := &model.Party{
			Code:   code,
			Name:   name,
			Size:   size,
			Sushi:  sushi,
			Status: model.PartyStatusWaiting,
		}
		err = s.partyRepo.Create(ctx, candidate)
		if err == nil {
			party = candidate
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		return nil, fmt.Errorf("create party: %w", err)
	}
	if party == nil {
		return nil, errors.New("could not allocate a unique ticket code")
	}

	return &JoinResult{
		Code:      party.Code,
		TicketURL: fmt.Sprintf("%s?code=%s", s.ticketURLBase, party.Code),
	}, nil
}

func (s *queueService) Ticket(ctx context.Context, code string) (*TicketInfo, error) {
	party, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	position, err := s.positionOf(ctx, party.Code)
	if err != nil {
		return nil, err
	}

	return &TicketInfo{
		Code:     party.Code,
		Name:     party.Name,
		Size:     party.Size,
		Status:   party.Status,
		Sushi:    party.Sushi,
		Position: position,
	}, nil
}

func (s *queueService) ActiveQueue(ctx context.Context) ([]model.Party, error) {
	return s.partyRepo.ActiveQueue(ctx)
}

func (s *queueService) Advance(ctx context.Context) (string, error) {
	if s.singleCallSlot {
		called, err := s.partyRepo.CountByStatus(ctx, model.PartyStatusCalled)
		if err != nil {
			return "", fmt.Errorf("count called parties: %w", err)
		}
		if called > 0 {
			return "A party is already called; serve them first.", nil
		}
	}

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		next, err := s.partyRepo.OldestWaiting(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "No one is waiting.", nil
			}
			return "", fmt.Errorf("find oldest waiting party: %w", err)
		}

		party, err := s.partyRepo.Transition(ctx, next.ID, model.PartyStatusWaiting, model.PartyStatusCalled)
		if err != nil {
			if errors.Is(err, repository.ErrStaleTransition) {
				continue
			}
			return "", fmt.Errorf("call party: %w", err)
		}
		return fmt.Sprintf("Called %s (%s).", party.Name, party.Code), nil
	}
	return "", repository.ErrStaleTransition
}

func (s *queueService) ServeCalled(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		next, err := s.partyRepo.OldestCalled(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "No one is currently called.", nil
			}
			return "", fmt.Errorf("find oldest called party: %w", err)
		}

		party, err := s.partyRepo.Transition(ctx, next.ID, model.PartyStatusCalled, model.PartyStatusServed)
		if err != nil {
			if errors.Is(err, repository.ErrStaleTransition) {
				continue
			}
			return "", fmt.Errorf("serve party: %w", err)
		}
		return fmt.Sprintf("Served %s.", party.Name), nil
	}
	return "", repository.ErrStaleTransition
}

func (s *queueService) Cancel(ctx context.Context, code string) (string, error) {
	// Re-resolve the party on every attempt: a waiting party can race to
	// called and on to served, and a party that reaches a terminal status
	// mid-cancel must be reported as a conflict, not a store failure.
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		party, err := s.findByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if party.Status.Terminal() {
			return "", ErrTicketFinal
		}

		canceled, err := s.partyRepo.Transition(ctx, party.ID, party.Status, model.PartyStatusCanceled)
		if err != nil {
			if errors.Is(err, repository.ErrStaleTransition) {
				continue
			}
			return "", fmt.Errorf("cancel party: %w", err)
		}
		return fmt.Sprintf("Canceled %s (%s).", canceled.Name, canceled.Code), nil
	}
	return "", repository.ErrStaleTransition
}

func (s *queueService) findByCode(ctx context.Context, code string) (*model.Party, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrTicketNotFound
	}
	party, err := s.partyRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("find party by code: %w", err)
	}
	return party, nil
}

func (s *queueService) positionOf(ctx context.Context, code string) (*int, error) {
	queue, err := s.partyRepo.ActiveQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("read active queue: %w", err)
	}
	for i, p := range queue {
		if p.Code == code {
			pos := i + 1
			return &pos, nil
		}
	}
	return nil, nil
}

// generateCode draws a 6-character uppercase base-36 ticket code, rejecting
// bytes past the largest multiple of 36 so every character is equally likely.
func generateCode() (string, error) {
	const maxUnbiased = 256 - 256%len(codeAlphabet)

	out := make([]byte, 0, codeLen)
	buf := make([]byte, codeLen)
	for len(out) < codeLen {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if len(out) == codeLen {
				break
			}
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
		}
	}
	return string(out), nil
}
