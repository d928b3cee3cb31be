package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/storage"
	"github.com/stock-portfolio/internal/types"
)

// requestCooldown is how long after a rejection (or unfriending) the pair
// must wait before a new request may be sent
const requestCooldown = 5 * time.Minute

// RelationshipStore persists the single edge kept per pair of accounts
type RelationshipStore interface {
	Get(ctx context.Context, userLo, userHi int64) (*models.Relationship, bool, error)
	Insert(ctx context.Context, userLo, userHi int64, relType types.RelationshipType) error
	SetType(ctx context.Context, userLo, userHi int64, relType types.RelationshipType) error
	IsFriend(ctx context.Context, userA, userB int64) (bool, error)
	ListFriendIDs(ctx context.Context, userID int64, offset, limit int) ([]int64, int, error)
	ListIncomingRequestIDs(ctx context.Context, userID int64, offset, limit int) ([]int64, int, error)
	Now(ctx context.Context) (time.Time, error)
}

// AccountLookup resolves accounts for request targets and friend removal
type AccountLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, bool, error)
}

// SocialService manages friend requests and friendships. Each pair of
// accounts has at most one relationship row; the row's type carries both
// the request direction and the current state.
type SocialService struct {
	relationships RelationshipStore
	accounts      AccountLookup
}

// NewSocialService creates a new social service
func NewSocialService(relationships RelationshipStore, accounts AccountLookup) *SocialService {
	return &SocialService{
		relationships: relationships,
		accounts:      accounts,
	}
}

// SendRequest sends a friend request from actor to target. A pair with a
// pending request or an active friendship cannot get another one, and a
// rejected pair must wait out the cooldown before re-requesting.
func (s *SocialService) SendRequest(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return types.NewInvalidArgument("cannot send a friend request to yourself")
	}

	exists, err := s.accounts.Exists(ctx, targetID)
	if err != nil {
		return types.NewStorageFailure("send friend request", err)
	}
	if !exists {
		return types.NewNotFound("user not found")
	}

	lo, hi := orderPair(actorID, targetID)
	requestType := types.RelU1Request
	if actorID == hi {
		requestType = types.RelU2Request
	}

	rel, found, err := s.relationships.Get(ctx, lo, hi)
	if err != nil {
		return types.NewStorageFailure("send friend request", err)
	}
	if !found {
		if err := s.relationships.Insert(ctx, lo, hi, requestType); err != nil {
			return types.NewStorageFailure("send friend request", err)
		}
		return nil
	}

	switch rel.Type {
	case types.RelU1Request, types.RelU2Request:
		return types.NewConflict("a friend request is already pending")
	case types.RelFriend:
		return types.NewConflict("already friends")
	case types.RelRejected:
		// Cooldown is measured against the store's clock, the same one
		// that stamped the rejection.
		now, err := s.relationships.Now(ctx)
		if err != nil {
			return types.NewStorageFailure("send friend request", err)
		}
		if now.Sub(rel.Timestamp) <= requestCooldown {
			return types.NewConflict("a new friend request cannot be sent yet")
		}
		if err := s.relationships.SetType(ctx, lo, hi, requestType); err != nil {
			return types.NewStorageFailure("send friend request", err)
		}
		return nil
	}

	return types.NewStorageFailure("send friend request", fmt.Errorf("unknown relationship type %q", rel.Type))
}

// RespondToRequest accepts or declines a pending friend request addressed
// to the actor
func (s *SocialService) RespondToRequest(ctx context.Context, actorID, requesterID int64, accept bool) error {
	if actorID == requesterID {
		return types.NewInvalidArgument("cannot respond to your own request")
	}

	lo, hi := orderPair(actorID, requesterID)
	rel, found, err := s.relationships.Get(ctx, lo, hi)
	if err != nil {
		return types.NewStorageFailure("respond to friend request", err)
	}

	// The request must exist and point at the actor.
	pending := found &&
		((rel.Type == types.RelU1Request && actorID == hi) ||
			(rel.Type == types.RelU2Request && actorID == lo))
	if !pending {
		return types.NewNotFound("friend request not found")
	}

	newType := types.RelFriend
	if !accept {
		newType = types.RelRejected
	}
	if err := s.relationships.SetType(ctx, lo, hi, newType); err != nil {
		return types.NewStorageFailure("respond to friend request", err)
	}

	return nil
}

// ListIncomingRequests returns the account ids with a pending request
// addressed to the user, newest first
func (s *SocialService) ListIncomingRequests(ctx context.Context, userID int64, page, limit int) ([]int64, int, error) {
	offset, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	ids, total, err := s.relationships.ListIncomingRequestIDs(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, types.NewStorageFailure("list friend requests", err)
	}
	return ids, total, nil
}

// ListFriends returns the user's friends, most recently befriended first
func (s *SocialService) ListFriends(ctx context.Context, userID int64, page, limit int) ([]int64, int, error) {
	offset, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	ids, total, err := s.relationships.ListFriendIDs(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, types.NewStorageFailure("list friends", err)
	}
	return ids, total, nil
}

// RemoveFriend ends a friendship by username. The pair lands in the
// rejected state, so the removal cooldown applies before either side can
// re-request.
func (s *SocialService) RemoveFriend(ctx context.Context, actorID int64, friendUsername string) error {
	if friendUsername == "" {
		return types.NewInvalidArgument("username is required")
	}

	friend, found, err := s.accounts.GetByUsername(ctx, friendUsername)
	if err != nil {
		return types.NewStorageFailure("remove friend", err)
	}
	if !found {
		return types.NewNotFound("user not found")
	}
	if friend.ID == actorID {
		return types.NewInvalidArgument("cannot remove yourself")
	}

	lo, hi := orderPair(actorID, friend.ID)
	rel, relFound, err := s.relationships.Get(ctx, lo, hi)
	if err != nil {
		return types.NewStorageFailure("remove friend", err)
	}
	if !relFound || rel.Type != types.RelFriend {
		return types.NewNotFound("friendship not found")
	}

	if err := s.relationships.SetType(ctx, lo, hi, types.RelRejected); err != nil {
		return types.NewStorageFailure("remove friend", err)
	}

	return nil
}

func orderPair(a, b int64) (lo, hi int64) {
	if a < b {
		return a, b
	}
	return b, a
}

var (
	_ RelationshipStore = (*storage.RelationshipRepository)(nil)
	_ AccountLookup     = (*storage.AccountRepository)(nil)
)
