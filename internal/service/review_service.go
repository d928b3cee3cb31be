package service

import (
	"context"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/storage"
	"github.com/stock-portfolio/internal/types"
)

// ReviewStore persists stock-list reviews, at most one per reviewer per list
type ReviewStore interface {
	Exists(ctx context.Context, collectionID, reviewerID int64) (bool, error)
	Create(ctx context.Context, collectionID, reviewerID int64, text string) error
	UpdateText(ctx context.Context, collectionID, reviewerID int64, text string) error
	Delete(ctx context.Context, collectionID, reviewerID int64) error
	ListByCollection(ctx context.Context, collectionID int64) ([]*models.Review, error)
	ListByCollectionAndReviewer(ctx context.Context, collectionID, reviewerID int64) ([]*models.Review, error)
}

// CollectionLookup resolves collections for the review gates
type CollectionLookup interface {
	Get(ctx context.Context, q storage.Querier, id int64) (*models.Collection, bool, error)
}

// ReviewService manages reviews on stock lists. Writing a review requires
// seeing the list without owning it; what a reader gets back depends on the
// list's visibility.
type ReviewService struct {
	reviews     ReviewStore
	collections CollectionLookup
	friends     FriendChecker
}

// NewReviewService creates a new review service
func NewReviewService(reviews ReviewStore, collections CollectionLookup, friends FriendChecker) *ReviewService {
	return &ReviewService{
		reviews:     reviews,
		collections: collections,
		friends:     friends,
	}
}

// Create writes the actor's review on a stock list. Owners cannot review
// their own lists, and each reviewer gets at most one review per list.
func (s *ReviewService) Create(ctx context.Context, listID, actorID int64, text string) error {
	if text == "" {
		return types.NewInvalidArgument("review text is required")
	}

	list, err := s.stockList(ctx, listID)
	if err != nil {
		return err
	}
	if list.OwnerID == actorID {
		return types.NewForbidden("cannot review your own stock list")
	}
	if err := s.requireReadable(ctx, list, actorID); err != nil {
		return err
	}

	exists, err := s.reviews.Exists(ctx, listID, actorID)
	if err != nil {
		return types.NewStorageFailure("create review", err)
	}
	if exists {
		return types.NewConflict("you have already reviewed this stock list")
	}

	if err := s.reviews.Create(ctx, listID, actorID, text); err != nil {
		return types.NewStorageFailure("create review", err)
	}

	return nil
}

// Update replaces the text of the actor's own review
func (s *ReviewService) Update(ctx context.Context, listID, actorID int64, text string) error {
	if text == "" {
		return types.NewInvalidArgument("review text is required")
	}

	if _, err := s.stockList(ctx, listID); err != nil {
		return err
	}

	exists, err := s.reviews.Exists(ctx, listID, actorID)
	if err != nil {
		return types.NewStorageFailure("update review", err)
	}
	if !exists {
		return types.NewNotFound("review not found")
	}

	if err := s.reviews.UpdateText(ctx, listID, actorID, text); err != nil {
		return types.NewStorageFailure("update review", err)
	}

	return nil
}

// Delete removes a review. The reviewer can delete their own review and the
// list owner can delete any review on their list.
func (s *ReviewService) Delete(ctx context.Context, listID, reviewerID, actorID int64) error {
	list, err := s.stockList(ctx, listID)
	if err != nil {
		return err
	}
	if actorID != reviewerID && actorID != list.OwnerID {
		return types.NewForbidden("not authorized")
	}

	exists, err := s.reviews.Exists(ctx, listID, reviewerID)
	if err != nil {
		return types.NewStorageFailure("delete review", err)
	}
	if !exists {
		return types.NewNotFound("review not found")
	}

	if err := s.reviews.Delete(ctx, listID, reviewerID); err != nil {
		return types.NewStorageFailure("delete review", err)
	}

	return nil
}

// List returns the reviews the viewer may see on a stock list. On a shared
// list a non-owner only sees their own review; on a public list, or for the
// owner, every review is visible.
func (s *ReviewService) List(ctx context.Context, listID, viewerID int64) ([]*models.Review, error) {
	list, err := s.stockList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.requireReadable(ctx, list, viewerID); err != nil {
		return nil, err
	}

	var reviews []*models.Review
	if *list.Visibility == types.VisibilityShared && viewerID != list.OwnerID {
		reviews, err = s.reviews.ListByCollectionAndReviewer(ctx, listID, viewerID)
	} else {
		reviews, err = s.reviews.ListByCollection(ctx, listID)
	}
	if err != nil {
		return nil, types.NewStorageFailure("list reviews", err)
	}

	return reviews, nil
}

// stockList resolves a collection and requires it to be a stock list
func (s *ReviewService) stockList(ctx context.Context, listID int64) (*models.Collection, error) {
	collection, found, err := s.collections.Get(ctx, nil, listID)
	if err != nil {
		return nil, types.NewStorageFailure("get stock list", err)
	}
	if !found || collection.Kind != types.KindStockList {
		return nil, types.NewNotFound("stock list not found")
	}
	return collection, nil
}

// requireReadable applies the stock-list visibility rule for a viewer
func (s *ReviewService) requireReadable(ctx context.Context, list *models.Collection, viewerID int64) error {
	if list.OwnerID == viewerID {
		return nil
	}
	switch *list.Visibility {
	case types.VisibilityPublic:
		return nil
	case types.VisibilityShared:
		friend, err := s.friends.IsFriend(ctx, list.OwnerID, viewerID)
		if err != nil {
			return types.NewStorageFailure("check visibility", err)
		}
		if friend {
			return nil
		}
	}
	return types.NewForbidden("not authorized")
}

var (
	_ ReviewStore      = (*storage.ReviewRepository)(nil)
	_ CollectionLookup = (*storage.CollectionRepository)(nil)
)
