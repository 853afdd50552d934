package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sushibar/waitline/internal/model"
	"sushibar/waitline/internal/repository"
)

func setupService(t *testing.T, singleCallSlot bool) (QueueService, repository.PartyRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, model.AutoMigrate(db))

	repo := repository.NewGormPartyRepository(db)
	return NewQueueService(repo, "/ticket.html", singleCallSlot), repo
}

func TestJoinValidation(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	tests := []struct {
		name    string
		guest   string
		size    int
		sushi   string
		wantErr error
	}{
		{"empty name", "", 2, "salmon", ErrNameRequired},
		{"whitespace name", "   ", 2, "salmon", ErrNameRequired},
		{"name too long", strings.Repeat("a", 51), 2, "salmon", ErrNameTooLong},
		{"multibyte name too long", strings.Repeat("寿", 51), 2, "salmon", ErrNameTooLong},
		{"size zero", "Alice", 0, "salmon", ErrSizeOutOfRange},
		{"size six", "Alice", 6, "salmon", ErrSizeOutOfRange},
		{"missing sushi", "Alice", 2, "", ErrSushiRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Join(ctx, tt.guest, tt.size, tt.sushi)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJoinReturnsCodeAndTicketURL(t *testing.T) {
	svc, _ := setupService(t, false)

	result, err := svc.Join(context.Background(), "  Alice  ", 2, "salmon")
	require.NoError(t, err)
	assert.Len(t, result.Code, 6)
	assert.Regexp(t, `^[0-9A-Z]{6}$`, result.Code)
	assert.Equal(t, "/ticket.html?code="+result.Code, result.TicketURL)

	// Name is stored trimmed.
	info, err := svc.Ticket(context.Background(), result.Code)
	require.NoError(t, err)
	assert.Equal(t, "Alice", info.Name)
}

func TestJoinAcceptsMultiByteNames(t *testing.T) {
	svc, _ := setupService(t, false)

	// 50 runes, far more than 50 bytes: the bound is characters, not bytes.
	name := strings.Repeat("寿", 50)
	result, err := svc.Join(context.Background(), name, 2, "salmon")
	require.NoError(t, err)

	info, err := svc.Ticket(context.Background(), result.Code)
	require.NoError(t, err)
	assert.Equal(t, name, info.Name)
}

func TestJoinCodesAreUnique(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		result, err := svc.Join(ctx, fmt.Sprintf("Guest %d", i), 1, "tuna")
		require.NoError(t, err)
		_, dup := seen[result.Code]
		require.False(t, dup, "duplicate code %s", result.Code)
		seen[result.Code] = struct{}{}
	}
}

func TestTicketPositionIsOneForFirstParty(t *testing.T) {
	svc, _ := setupService(t, false)

	result, err := svc.Join(context.Background(), "Alice", 2, "salmon")
	require.NoError(t, err)

	info, err := svc.Ticket(context.Background(), result.Code)
	require.NoError(t, err)
	require.NotNil(t, info.Position)
	assert.Equal(t, 1, *info.Position)
	assert.Equal(t, model.PartyStatusWaiting, info.Status)
}

func TestTicketLookupIsCaseInsensitive(t *testing.T) {
	svc, _ := setupService(t, false)

	result, err := svc.Join(context.Background(), "Alice", 2, "salmon")
	require.NoError(t, err)

	info, err := svc.Ticket(context.Background(), "  "+strings.ToLower(result.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, result.Code, info.Code)
}

func TestTicketUnknownCode(t *testing.T) {
	svc, _ := setupService(t, false)

	_, err := svc.Ticket(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestAdvanceOnEmptyQueueIsNoOp(t *testing.T) {
	svc, _ := setupService(t, false)

	msg, err := svc.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No one is waiting.", msg)

	queue, err := svc.ActiveQueue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestAdvanceCallsOldestWaiting(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	alice, err := svc.Join(ctx, "Alice", 2, "salmon")
	require.NoError(t, err)
	_, err = svc.Join(ctx, "Bob", 1, "tuna")
	require.NoError(t, err)

	msg, err := svc.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Called Alice (%s).", alice.Code), msg)

	// Alice keeps her first-come slot while called.
	info, err := svc.Ticket(ctx, alice.Code)
	require.NoError(t, err)
	assert.Equal(t, model.PartyStatusCalled, info.Status)
	require.NotNil(t, info.Position)
	assert.Equal(t, 1, *info.Position)
}

func TestAdvanceAllowsMultipleCalledByDefault(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	_, err := svc.Join(ctx, "Alice", 2, "salmon")
	require.NoError(t, err)
	_, err = svc.Join(ctx, "Bob", 1, "tuna")
	require.NoError(t, err)

	_, err = svc.Advance(ctx)
	require.NoError(t, err)
	msg, err := svc.Advance(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "Called Bob")
}

func TestAdvanceSingleCallSlotPolicy(t *testing.T) {
	svc, _ := setupService(t, true)
	ctx := context.Background()

	_, err := svc.Join(ctx, "Alice", 2, "salmon")
	require.NoError(t, err)
	_, err = svc.Join(ctx, "Bob", 1, "tuna")
	require.NoError(t, err)

	msg, err := svc.Advance(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "Called Alice")

	// Second advance is a no-op until Alice is served.
	msg, err = svc.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A party is already called; serve them first.", msg)

	_, err = svc.ServeCalled(ctx)
	require.NoError(t, err)

	msg, err = svc.Advance(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "Called Bob")
}

func TestServeCalledOnEmptyIsNoOp(t *testing.T) {
	svc, _ := setupService(t, false)

	msg, err := svc.ServeCalled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No one is currently called.", msg)
}

func TestServeCalledCompletesParty(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	alice, err := svc.Join(ctx, "Alice", 2, "salmon")
	require.NoError(t, err)

	_, err = svc.Advance(ctx)
	require.NoError(t, err)

	msg, err := svc.ServeCalled(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Served Alice.", msg)

	info, err := svc.Ticket(ctx, alice.Code)
	require.NoError(t, err)
	assert.Equal(t, model.PartyStatusServed, info.Status)
	assert.Nil(t, info.Position)
}

func TestCancelWaitingParty(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	alice, err := svc.Join(ctx, "Alice", 2, "salmon")
	require.NoError(t, err)
	bob, err := svc.Join(ctx, "Bob", 1, "tuna")
	require.NoError(t, err)

	msg, err := svc.Cancel(ctx, alice.Code)
	require.NoError(t, err)
	assert.Contains(t, msg, "Canceled Alice")

	// Bob moves up.
	info, err := svc.Ticket(ctx, bob.Code)
	require.NoError(t, err)
	require.NotNil(t, info.Position)
	assert.Equal(t, 1, *info.Position)
}

func TestCancelCalledParty(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	alice, err := svc.Join(ctx, "Alice", 2, "salmon")
	require.NoError(t, err)
	_, err = svc.Advance(ctx)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, alice.Code)
	require.NoError(t, err)

	info, err := svc.Ticket(ctx, alice.Code)
	require.NoError(t, err)
	assert.Equal(t, model.PartyStatusCanceled, info.Status)
	assert.Nil(t, info.Position)
}

func TestCancelTerminalPartyIsConflict(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	alice, err := svc.Join(ctx, "Alice", 2, "salmon")
	require.NoError(t, err)
	_, err = svc.Advance(ctx)
	require.NoError(t, err)
	_, err = svc.ServeCalled(ctx)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, alice.Code)
	assert.ErrorIs(t, err, ErrTicketFinal)

	// Canceling twice is also a conflict.
	bob, err := svc.Join(ctx, "Bob", 1, "tuna")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, bob.Code)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, bob.Code)
	assert.ErrorIs(t, err, ErrTicketFinal)
}

// racingPartyRepo simulates an admin advancing and serving a party between a
// cancel's status read and its guarded write: every Transition loses, and the
// party moves one state forward.
type racingPartyRepo struct {
	repository.PartyRepository
	party model.Party
}

func (r *racingPartyRepo) GetByCode(_ context.Context, _ string) (*model.Party, error) {
	p := r.party
	return &p, nil
}

func (r *racingPartyRepo) Transition(_ context.Context, _ uint, _, _ model.PartyStatus) (*model.Party, error) {
	switch r.party.Status {
	case model.PartyStatusWaiting:
		r.party.Status = model.PartyStatusCalled
	case model.PartyStatusCalled:
		r.party.Status = model.PartyStatusServed
	}
	return nil, repository.ErrStaleTransition
}

func TestCancelRacingToServedIsConflict(t *testing.T) {
	repo := &racingPartyRepo{party: model.Party{
		ID:     1,
		Code:   "AAAAAA",
		Name:   "Alice",
		Size:   2,
		Sushi:  "salmon",
		Status: model.PartyStatusWaiting,
	}}
	svc := NewQueueService(repo, "/ticket.html", false)

	_, err := svc.Cancel(context.Background(), "AAAAAA")
	assert.ErrorIs(t, err, ErrTicketFinal)
}

func TestCancelUnknownCode(t *testing.T) {
	svc, _ := setupService(t, false)

	_, err := svc.Cancel(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestGenerateCodeShapeAndSpread(t *testing.T) {
	counts := make(map[byte]int)
	for i := 0; i < 2000; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Regexp(t, `^[0-9A-Z]{6}$`, code)
		for j := 0; j < len(code); j++ {
			counts[code[j]]++
		}
	}
	// 12000 draws over 36 characters: every character should appear.
	assert.Len(t, counts, 36)
}

func TestActiveQueuePreservesCreationOrder(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	var codes []string
	for i := 0; i < 5; i++ {
		result, err := svc.Join(ctx, fmt.Sprintf("Guest %d", i), 1, "eel")
		require.NoError(t, err)
		codes = append(codes, result.Code)
	}

	queue, err := svc.ActiveQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 5)
	for i, p := range queue {
		assert.Equal(t, codes[i], p.Code)
	}
}
