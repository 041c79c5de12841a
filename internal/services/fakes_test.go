package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famshare/internal/models"
	"famshare/internal/storage"
	"famshare/internal/wstypes"
)

// In-memory repository fakes. They mirror the error contract of the GORM
// implementations (gorm.ErrRecordNotFound, gorm.ErrDuplicatedKey) so the
// services under test exercise the same code paths as in production.

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) add(username string) *models.User {
	user := &models.User{
		Base:        models.Base{ID: uuid.New(), CreatedAt: time.Now()},
		Username:    username,
		DisplayName: username,
		Email:       username + "@example.com",
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for _, existing := range r.users {
		if existing.Username == user.Username || (user.Email != "" && existing.Email == user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SearchUsers(ctx context.Context, query string, excludeID uuid.UUID) ([]models.User, error) {
	var out []models.User
	needle := strings.ToLower(query)
	for _, user := range r.users {
		if user.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(user.Username), needle) ||
			strings.Contains(strings.ToLower(user.DisplayName), needle) {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetBasicInfoByID(ctx context.Context, id uuid.UUID) (*models.UserBasicInfo, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.BasicInfo(), nil
}

func (r *fakeUserRepo) GetMultipleBasicInfoByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.UserBasicInfo, error) {
	out := make([]*models.UserBasicInfo, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out = append(out, user.BasicInfo())
		}
	}
	return out, nil
}

type fakeFriendshipRepo struct {
	rows map[uuid.UUID]*models.Friendship
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{rows: make(map[uuid.UUID]*models.Friendship)}
}

func (r *fakeFriendshipRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *fakeFriendshipRepo) GetPair(ctx context.Context, ownerID, friendID uuid.UUID) (*models.Friendship, error) {
	for _, row := range r.rows {
		if row.UserID == ownerID && row.FriendID == friendID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendshipRepo) GrantsTo(ctx context.Context, viewerID uuid.UUID) ([]models.Friendship, error) {
	var out []models.Friendship
	for _, row := range r.rows {
		if row.FriendID == viewerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) GrantsBy(ctx context.Context, ownerID uuid.UUID) ([]models.Friendship, error) {
	var out []models.Friendship
	for _, row := range r.rows {
		if row.UserID == ownerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	row, _ := r.GetPair(ctx, userA, userB)
	return row != nil, nil
}

func (r *fakeFriendshipRepo) UpdateRole(ctx context.Context, id uuid.UUID, role models.FriendRole) error {
	row, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Role = role
	return nil
}

func (r *fakeFriendshipRepo) CreateBoth(ctx context.Context, a, b *models.Friendship) error {
	for _, grant := range []*models.Friendship{a, b} {
		if existing, _ := r.GetPair(ctx, grant.UserID, grant.FriendID); existing != nil {
			return gorm.ErrDuplicatedKey
		}
	}
	for _, grant := range []*models.Friendship{a, b} {
		if grant.ID == uuid.Nil {
			grant.ID = uuid.New()
		}
		copied := *grant
		r.rows[grant.ID] = &copied
	}
	return nil
}

func (r *fakeFriendshipRepo) DeleteBoth(ctx context.Context, userA, userB uuid.UUID) error {
	for id, row := range r.rows {
		if (row.UserID == userA && row.FriendID == userB) || (row.UserID == userB && row.FriendID == userA) {
			delete(r.rows, id)
		}
	}
	return nil
}

func (r *fakeFriendshipRepo) FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row.FriendID)
		}
	}
	return out, nil
}

type fakeFriendRequestRepo struct {
	requests    map[uuid.UUID]*models.FriendRequest
	friendships *fakeFriendshipRepo
}

func newFakeFriendRequestRepo(friendships *fakeFriendshipRepo) *fakeFriendRequestRepo {
	return &fakeFriendRequestRepo{
		requests:    make(map[uuid.UUID]*models.FriendRequest),
		friendships: friendships,
	}
}

func (r *fakeFriendRequestRepo) Create(ctx context.Context, request *models.FriendRequest) error {
	for _, existing := range r.requests {
		if existing.Status == models.FriendRequestStatusPending &&
			existing.RequesterID == request.RequesterID &&
			existing.RequestedID == request.RequestedID {
			return gorm.ErrDuplicatedKey
		}
	}
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	request.CreatedAt = time.Now()
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeFriendRequestRepo) GetByID(ctx context.Context, requestID uuid.UUID) (*models.FriendRequest, error) {
	request, ok := r.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *fakeFriendRequestRepo) FindPendingBetween(ctx context.Context, userA, userB uuid.UUID) (*models.FriendRequest, error) {
	for _, request := range r.requests {
		if request.Status != models.FriendRequestStatusPending {
			continue
		}
		if (request.RequesterID == userA && request.RequestedID == userB) ||
			(request.RequesterID == userB && request.RequestedID == userA) {
			copied := *request
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendRequestRepo) UpdateStatus(ctx context.Context, requestID uuid.UUID, status models.FriendRequestStatus) (int64, error) {
	request, ok := r.requests[requestID]
	if !ok || request.Status != models.FriendRequestStatusPending {
		return 0, nil
	}
	request.Status = status
	return 1, nil
}

func (r *fakeFriendRequestRepo) Delete(ctx context.Context, requestID uuid.UUID) error {
	delete(r.requests, requestID)
	return nil
}

func (r *fakeFriendRequestRepo) ListPendingFor(ctx context.Context, requestedID uuid.UUID) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	for _, request := range r.requests {
		if request.RequestedID == requestedID && request.Status == models.FriendRequestStatusPending {
			out = append(out, *request)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeFriendRequestRepo) Accept(ctx context.Context, requestID uuid.UUID, grantA, grantB *models.Friendship) error {
	request, ok := r.requests[requestID]
	if !ok || request.Status != models.FriendRequestStatusPending {
		return storage.ErrRequestNotPending
	}
	if err := r.friendships.CreateBoth(ctx, grantA, grantB); err != nil {
		return err
	}
	request.Status = models.FriendRequestStatusAccepted
	return nil
}

type fakeConversationRepo struct {
	conversations map[uuid.UUID]*models.Conversation

	// beforeInsert simulates a concurrent creator winning the race between
	// FindByPair and Insert.
	beforeInsert func()

	// forceConflict makes Insert report a lost race without any winner row
	// ever becoming visible.
	forceConflict bool
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[uuid.UUID]*models.Conversation)}
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *conversation
	return &copied, nil
}

func (r *fakeConversationRepo) FindByPair(ctx context.Context, lowID, highID uuid.UUID) (*models.Conversation, error) {
	for _, conversation := range r.conversations {
		if conversation.ParticipantLowID == lowID && conversation.ParticipantHighID == highID {
			copied := *conversation
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) Insert(ctx context.Context, conversation *models.Conversation) (bool, error) {
	if r.beforeInsert != nil {
		r.beforeInsert()
	}
	if r.forceConflict {
		return false, nil
	}
	if existing, _ := r.FindByPair(ctx, conversation.ParticipantLowID, conversation.ParticipantHighID); existing != nil {
		return false, nil
	}
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	conversation.CreatedAt = time.Now()
	copied := *conversation
	r.conversations[conversation.ID] = &copied
	return true, nil
}

func (r *fakeConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, conversation := range r.conversations {
		if conversation.HasParticipant(userID) {
			copied := *conversation
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case li == nil:
			return false
		case lj == nil:
			return true
		default:
			return li.After(*lj)
		}
	})
	return out, nil
}

// seed creates a conversation between two users directly.
func (r *fakeConversationRepo) seed(userA, userB uuid.UUID) *models.Conversation {
	low, high := models.CanonicalPair(userA, userB)
	conversation := &models.Conversation{
		Base:              models.Base{ID: uuid.New(), CreatedAt: time.Now()},
		ParticipantLowID:  low,
		ParticipantHighID: high,
	}
	r.conversations[conversation.ID] = conversation
	return conversation
}

type fakeMessageRepo struct {
	messages      map[uuid.UUID]*models.Message
	conversations *fakeConversationRepo
}

func newFakeMessageRepo(conversations *fakeConversationRepo) *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:      make(map[uuid.UUID]*models.Message),
		conversations: conversations,
	}
}

func (r *fakeMessageRepo) CreateInConversation(ctx context.Context, message *models.Message) error {
	conversation, ok := r.conversations.conversations[message.ConversationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conversation.LastSeq++
	now := time.Now()
	conversation.LastMessageAt = &now

	message.Seq = conversation.LastSeq
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = now
	copied := *message
	r.messages[message.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	message, ok := r.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *message
	return &copied, nil
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	var out []*models.Message
	for _, message := range r.messages {
		if message.ConversationID == conversationID {
			copied := *message
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *fakeMessageRepo) MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	var changed int64
	for _, message := range r.messages {
		if message.ConversationID == conversationID && message.SenderID != readerID && !message.Read {
			message.Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *fakeMessageRepo) MarkMessageRead(ctx context.Context, messageID, readerID uuid.UUID) (int64, error) {
	message, ok := r.messages[messageID]
	if !ok || message.SenderID == readerID || message.Read {
		return 0, nil
	}
	message.Read = true
	return 1, nil
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	var count int64
	for _, message := range r.messages {
		if message.ConversationID == conversationID && message.SenderID != viewerID && !message.Read {
			count++
		}
	}
	return count, nil
}

type fakeProfileRepo struct {
	profiles []models.Profile
	events   []models.CalendarEvent
}

func (r *fakeProfileRepo) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Profile, error) {
	owners := make(map[uuid.UUID]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	var out []models.Profile
	for _, profile := range r.profiles {
		if _, ok := owners[profile.OwnerID]; ok {
			out = append(out, profile)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) ListEventsByOwners(ctx context.Context, ownerIDs []uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error) {
	owners := make(map[uuid.UUID]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	profileOwner := make(map[uuid.UUID]uuid.UUID, len(r.profiles))
	for _, profile := range r.profiles {
		profileOwner[profile.ID] = profile.OwnerID
	}
	var out []models.CalendarEvent
	for _, event := range r.events {
		owner, ok := profileOwner[event.ProfileID]
		if !ok {
			continue
		}
		if _, visible := owners[owner]; !visible {
			continue
		}
		if event.StartsAt.Before(to) && event.EndsAt.After(from) {
			out = append(out, event)
		}
	}
	return out, nil
}

type fakeUnreadCache struct {
	entries     map[string]int64
	invalidated []string
	zeroed      []string
}

func newFakeUnreadCache() *fakeUnreadCache {
	return &fakeUnreadCache{entries: make(map[string]int64)}
}

func cacheKey(conversationID, viewerID uuid.UUID) string {
	return conversationID.String() + ":" + viewerID.String()
}

func (c *fakeUnreadCache) Get(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, bool, error) {
	count, ok := c.entries[cacheKey(conversationID, viewerID)]
	return count, ok, nil
}

func (c *fakeUnreadCache) Set(ctx context.Context, conversationID, viewerID uuid.UUID, count int64) error {
	c.entries[cacheKey(conversationID, viewerID)] = count
	return nil
}

func (c *fakeUnreadCache) Incr(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	c.entries[cacheKey(conversationID, viewerID)]++
	return nil
}

func (c *fakeUnreadCache) Zero(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	key := cacheKey(conversationID, viewerID)
	c.entries[key] = 0
	c.zeroed = append(c.zeroed, key)
	return nil
}

func (c *fakeUnreadCache) Invalidate(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	key := cacheKey(conversationID, viewerID)
	delete(c.entries, key)
	c.invalidated = append(c.invalidated, key)
	return nil
}

type capturePublisher struct {
	events  []wstypes.Event
	failErr error
}

func (p *capturePublisher) Publish(ctx context.Context, evt wstypes.Event) error {
	if p.failErr != nil {
		return p.failErr
	}
	p.events = append(p.events, evt)
	return nil
}
