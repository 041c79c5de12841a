package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famshare/internal/models"
)

type friendGraphFixture struct {
	users       *fakeUserRepo
	requests    *fakeFriendRequestRepo
	friendships *fakeFriendshipRepo
	service     FriendGraphService
}

func newFriendGraphFixture() *friendGraphFixture {
	users := newFakeUserRepo()
	friendships := newFakeFriendshipRepo()
	requests := newFakeFriendRequestRepo(friendships)
	return &friendGraphFixture{
		users:       users,
		requests:    requests,
		friendships: friendships,
		service:     NewFriendGraphService(users, requests, friendships),
	}
}

func (f *friendGraphFixture) befriend(t *testing.T, ctx context.Context, a, b *models.User) {
	t.Helper()
	request, err := f.service.SendRequest(ctx, a.ID, b.ID, models.RoleNone, "")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, b.ID, request.ID, true))
}

func TestSendRequestRejectsSelf(t *testing.T) {
	f := newFriendGraphFixture()
	alice := f.users.add("alice")

	_, err := f.service.SendRequest(context.Background(), alice.ID, alice.ID, models.RoleViewer, "")
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestSendRequestRejectsInvalidRole(t *testing.T) {
	f := newFriendGraphFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	_, err := f.service.SendRequest(context.Background(), alice.ID, bob.ID, models.FriendRole("owner"), "")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSendRequestUnknownRecipient(t *testing.T) {
	f := newFriendGraphFixture()
	alice := f.users.add("alice")

	_, err := f.service.SendRequest(context.Background(), alice.ID, uuid.New(), models.RoleViewer, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendRequestAlreadyFriends(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	f.befriend(t, ctx, alice, bob)

	_, err := f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleViewer, "")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestSendRequestDuplicateEitherDirection(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	_, err := f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleViewer, "hi")
	require.NoError(t, err)

	// Same direction.
	_, err = f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleViewer, "hi again")
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// Counter-request collapses into the pending one instead of piling up.
	_, err = f.service.SendRequest(ctx, bob.ID, alice.ID, models.RoleViewer, "me too")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestSendRequestCreatesPending(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	request, err := f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleAdministrator, "co-parent")
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestStatusPending, request.Status)
	assert.Equal(t, alice.ID, request.RequesterID)
	assert.Equal(t, bob.ID, request.RequestedID)
	assert.Equal(t, models.RoleAdministrator, request.Role)
	assert.Equal(t, "co-parent", request.Message)
}

func TestRespondAcceptCreatesBothGrants(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	request, err := f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleViewer, "")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, bob.ID, request.ID, true))

	// Both directional grants exist and start at role none regardless of the
	// role proposed on the request.
	forward, err := f.friendships.GetPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, forward)
	assert.Equal(t, models.RoleNone, forward.Role)

	reverse, err := f.friendships.GetPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, reverse)
	assert.Equal(t, models.RoleNone, reverse.Role)

	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestStatusAccepted, stored.Status)

	// A replayed accept finds the request no longer pending.
	assert.ErrorIs(t, f.service.RespondToRequest(ctx, bob.ID, request.ID, true), ErrRequestNotPending)
}

func TestRespondDeclineIsTerminal(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	request, err := f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleViewer, "")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, bob.ID, request.ID, false))

	assert.ErrorIs(t, f.service.RespondToRequest(ctx, bob.ID, request.ID, true), ErrRequestNotPending)

	// No grants were created.
	areFriends, err := f.friendships.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, areFriends)
}

func TestRespondOnlyRequestedUserMayRespond(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	carol := f.users.add("carol")

	request, err := f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleViewer, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.RespondToRequest(ctx, alice.ID, request.ID, true), ErrNotAuthorized)
	assert.ErrorIs(t, f.service.RespondToRequest(ctx, carol.ID, request.ID, true), ErrNotAuthorized)
}

func TestRespondRequestNotFound(t *testing.T) {
	f := newFriendGraphFixture()
	bob := f.users.add("bob")

	err := f.service.RespondToRequest(context.Background(), bob.ID, uuid.New(), true)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestCancelRequest(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	request, err := f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleViewer, "")
	require.NoError(t, err)

	// Only the requester may cancel.
	assert.ErrorIs(t, f.service.CancelRequest(ctx, bob.ID, request.ID), ErrNotAuthorized)

	require.NoError(t, f.service.CancelRequest(ctx, alice.ID, request.ID))
	assert.ErrorIs(t, f.service.CancelRequest(ctx, alice.ID, request.ID), ErrRequestNotFound)
}

func TestCancelRequestAfterDecline(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	request, err := f.service.SendRequest(ctx, alice.ID, bob.ID, models.RoleViewer, "")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, bob.ID, request.ID, false))

	assert.ErrorIs(t, f.service.CancelRequest(ctx, alice.ID, request.ID), ErrRequestNotPending)
}

func TestUpdateFriendshipRoleGrantorOnly(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	f.befriend(t, ctx, alice, bob)

	aliceGrant, err := f.friendships.GetPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, aliceGrant)

	// The beneficiary of the grant cannot upgrade it.
	_, err = f.service.UpdateFriendshipRole(ctx, bob.ID, aliceGrant.ID, models.RoleAdministrator)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	updated, err := f.service.UpdateFriendshipRole(ctx, alice.ID, aliceGrant.ID, models.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, updated.Role)

	// The reverse grant is untouched.
	reverse, err := f.friendships.GetPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, reverse)
	assert.Equal(t, models.RoleNone, reverse.Role)
}

func TestUpdateFriendshipRoleValidation(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")

	_, err := f.service.UpdateFriendshipRole(ctx, alice.ID, uuid.New(), models.FriendRole("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.service.UpdateFriendshipRole(ctx, alice.ID, uuid.New(), models.RoleViewer)
	assert.ErrorIs(t, err, ErrFriendshipNotFound)
}

func TestRemoveFriendshipDeletesBothGrants(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	f.befriend(t, ctx, alice, bob)

	// Either party may remove, given either grant row.
	bobGrant, err := f.friendships.GetPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, bobGrant)

	carol := f.users.add("carol")
	assert.ErrorIs(t, f.service.RemoveFriendship(ctx, carol.ID, bobGrant.ID), ErrNotAuthorized)

	require.NoError(t, f.service.RemoveFriendship(ctx, alice.ID, bobGrant.ID))

	areFriends, err := f.friendships.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, areFriends)

	forward, err := f.friendships.GetPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, forward)
}

func TestListFriends(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	carol := f.users.add("carol")
	f.befriend(t, ctx, alice, bob)
	f.befriend(t, ctx, alice, carol)

	friends, err := f.service.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	names := map[string]bool{}
	for _, friend := range friends {
		names[friend.Friend.Username] = true
	}
	assert.True(t, names["bob"])
	assert.True(t, names["carol"])
}

func TestListPendingRequests(t *testing.T) {
	f := newFriendGraphFixture()
	ctx := context.Background()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	carol := f.users.add("carol")

	_, err := f.service.SendRequest(ctx, bob.ID, alice.ID, models.RoleViewer, "")
	require.NoError(t, err)
	declined, err := f.service.SendRequest(ctx, carol.ID, alice.ID, models.RoleViewer, "")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, alice.ID, declined.ID, false))

	pending, err := f.service.ListPendingRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob", pending[0].Requester.Username)
}
