package services

import (
	"context"
	"sort"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/gocql/gocql"
)

type ReviewInput struct {
	Rating  *int   `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

type UpdateReviewInput struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	users    repository.UserRepository
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository, users repository.UserRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, users: users}
}

func validRating(r *int) bool {
	return r != nil && *r >= 1 && *r <= 5
}

func (s *ReviewService) Create(ctx context.Context, user models.User, rawProductID string, in ReviewInput) (*models.Review, error) {
	productID, err := ParseID("productId", rawProductID)
	if err != nil {
		return nil, err
	}
	if !validRating(in.Rating) {
		return nil, apperr.Field("rating", "doit être un entier entre 1 et 5")
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, apperr.Wrap(err, "Produit introuvable", "Erreur récupération produit")
	}

	r := &models.Review{
		ID:        gocql.TimeUUID(),
		UserID:    user.ID,
		UserName:  user.FullName(),
		ProductID: productID,
		Rating:    *in.Rating,
		Title:     sanitize(in.Title),
		Comment:   sanitize(in.Comment),
		CreatedAt: time.Now(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, apperr.Internal("Erreur création avis", err)
	}
	return r, nil
}

func (s *ReviewService) List(ctx context.Context) ([]models.Review, error) {
	list, err := s.reviews.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération avis", err)
	}
	return list, nil
}

// ListByProduct retourne les avis du plus récent au plus ancien, avec le nom de l'auteur.
func (s *ReviewService) ListByProduct(ctx context.Context, rawProductID string) ([]models.Review, error) {
	productID, err := ParseID("productId", rawProductID)
	if err != nil {
		return nil, err
	}
	list, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération avis", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	names := map[gocql.UUID]string{}
	for i := range list {
		name, ok := names[list[i].UserID]
		if !ok {
			if u, err := s.users.GetByID(ctx, list[i].UserID); err == nil {
				name = u.FullName()
			}
			names[list[i].UserID] = name
		}
		if name != "" {
			list[i].UserName = name
		}
	}
	return list, nil
}

func (s *ReviewService) ListByUser(ctx context.Context, rawUserID string) ([]models.Review, error) {
	userID, err := ParseID("userId", rawUserID)
	if err != nil {
		return nil, err
	}
	list, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération avis", err)
	}
	return list, nil
}

func (s *ReviewService) owned(ctx context.Context, userID gocql.UUID, rawID string) (*models.Review, error) {
	id, err := ParseID("reviewId", rawID)
	if err != nil {
		return nil, err
	}
	r, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Avis introuvable", "Erreur récupération avis")
	}
	if r.UserID != userID {
		return nil, apperr.Forbidden("Vous n'êtes pas l'auteur de cet avis")
	}
	return r, nil
}

func (s *ReviewService) Update(ctx context.Context, userID gocql.UUID, rawID string, in UpdateReviewInput) (*models.Review, error) {
	if in.Rating != nil && !validRating(in.Rating) {
		return nil, apperr.Field("rating", "doit être un entier entre 1 et 5")
	}
	r, err := s.owned(ctx, userID, rawID)
	if err != nil {
		return nil, err
	}
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	if in.Title != nil {
		r.Title = sanitize(*in.Title)
	}
	if in.Comment != nil {
		r.Comment = sanitize(*in.Comment)
	}
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, apperr.Wrap(err, "Avis introuvable", "Erreur mise à jour avis")
	}
	return r, nil
}

func (s *ReviewService) Delete(ctx context.Context, userID gocql.UUID, rawID string) error {
	r, err := s.owned(ctx, userID, rawID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, r.ID); err != nil {
		return apperr.Wrap(err, "Avis introuvable", "Erreur suppression avis")
	}
	return nil
}
