package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famshare/internal/models"
)

type conversationFixture struct {
	conversations *fakeConversationRepo
	friendships   *fakeFriendshipRepo
	service       ConversationService
}

func newConversationFixture() *conversationFixture {
	conversations := newFakeConversationRepo()
	friendships := newFakeFriendshipRepo()
	return &conversationFixture{
		conversations: conversations,
		friendships:   friendships,
		service:       NewConversationService(conversations, friendships),
	}
}

func (f *conversationFixture) makeFriends(a, b uuid.UUID) {
	grant(f.friendships, a, b, models.RoleNone)
	grant(f.friendships, b, a, models.RoleNone)
}

func TestGetOrCreateRejectsSelf(t *testing.T) {
	f := newConversationFixture()
	user := uuid.New()

	_, err := f.service.GetOrCreate(context.Background(), user, user)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestGetOrCreateRequiresFriendship(t *testing.T) {
	f := newConversationFixture()

	_, err := f.service.GetOrCreate(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	f.makeFriends(alice, bob)

	first, err := f.service.GetOrCreate(ctx, alice, bob)
	require.NoError(t, err)

	low, high := models.CanonicalPair(alice, bob)
	assert.Equal(t, low, first.ParticipantLowID)
	assert.Equal(t, high, first.ParticipantHighID)

	// Argument order never matters.
	second, err := f.service.GetOrCreate(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.conversations.conversations, 1)
}

func TestGetOrCreateLostRaceReturnsWinner(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	f.makeFriends(alice, bob)

	// A concurrent caller creates the row between the lookup and the insert.
	var winner *models.Conversation
	f.conversations.beforeInsert = func() {
		if winner == nil {
			winner = f.conversations.seed(alice, bob)
		}
	}

	got, err := f.service.GetOrCreate(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
	assert.Len(t, f.conversations.conversations, 1)
}

func TestGetOrCreateConflictWithoutWinnerRow(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	f.makeFriends(alice, bob)

	// The insert reports a conflict but no row ever becomes visible.
	f.conversations.forceConflict = true

	_, err := f.service.GetOrCreate(ctx, alice, bob)
	assert.ErrorIs(t, err, ErrConversationCreation)
}

func TestGetForUser(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	conversation := f.conversations.seed(alice, bob)

	got, err := f.service.GetForUser(ctx, conversation.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, conversation.ID, got.ID)

	_, err = f.service.GetForUser(ctx, conversation.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.service.GetForUser(ctx, uuid.New(), alice)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestListForUserOnlyOwnConversations(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	withBob := f.conversations.seed(alice, bob)
	f.conversations.seed(bob, carol)

	list, err := f.service.ListForUser(ctx, alice, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, withBob.ID, list[0].ID)
}
