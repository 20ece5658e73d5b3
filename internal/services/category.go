package services

import (
	"context"
	"errors"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/gocql/gocql"
)

type CreateCategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateCategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CategoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	cache      *cache.ListCache
}

func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository, listCache *cache.ListCache) *CategoryService {
	return &CategoryService{categories: categories, products: products, cache: listCache}
}

// ensureUniqueName compare les noms à la casse près. La vérification n'est
// pas atomique avec l'écriture.
func (s *CategoryService) ensureUniqueName(ctx context.Context, name string, self gocql.UUID) error {
	existing, err := s.categories.GetByName(ctx, name)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Internal("Erreur vérification catégorie", err)
	}
	if existing.ID != self {
		return apperr.Conflict("Une catégorie porte déjà ce nom")
	}
	return nil
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	name := sanitize(in.Name)
	if name == "" {
		return nil, apperr.Field("name", "champ requis")
	}
	if err := s.ensureUniqueName(ctx, name, gocql.UUID{}); err != nil {
		return nil, err
	}

	c := &models.Category{
		ID:          gocql.TimeUUID(),
		Name:        name,
		Description: sanitize(in.Description),
		CreatedAt:   time.Now(),
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, apperr.Internal("Erreur création catégorie", err)
	}
	s.cache.Invalidate(ctx, cache.CategoriesListKey)
	return c, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	if s.cache.Load(ctx, cache.CategoriesListKey, &list) {
		return list, nil
	}
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Erreur récupération catégories", err)
	}
	s.cache.Store(ctx, cache.CategoriesListKey, list)
	return list, nil
}

func (s *CategoryService) Get(ctx context.Context, rawID string) (*models.Category, error) {
	id, err := ParseID("categoryId", rawID)
	if err != nil {
		return nil, err
	}
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Catégorie introuvable", "Erreur récupération catégorie")
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, rawID string, in UpdateCategoryInput) (*models.Category, error) {
	c, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := sanitize(*in.Name)
		if name == "" {
			return nil, apperr.Field("name", "ne peut pas être vide")
		}
		if err := s.ensureUniqueName(ctx, name, c.ID); err != nil {
			return nil, err
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = sanitize(*in.Description)
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, apperr.Wrap(err, "Catégorie introuvable", "Erreur mise à jour catégorie")
	}
	s.cache.Invalidate(ctx, cache.CategoriesListKey)
	return c, nil
}

// Delete refuse de supprimer une catégorie encore utilisée par des produits.
func (s *CategoryService) Delete(ctx context.Context, rawID string) error {
	id, err := ParseID("categoryId", rawID)
	if err != nil {
		return err
	}
	if _, err := s.categories.Get(ctx, id); err != nil {
		return apperr.Wrap(err, "Catégorie introuvable", "Erreur récupération catégorie")
	}

	count, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return apperr.Internal("Erreur vérification produits", err)
	}
	if count > 0 {
		return apperr.Conflict("Catégorie utilisée par des produits")
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return apperr.Wrap(err, "Catégorie introuvable", "Erreur suppression catégorie")
	}
	s.cache.Invalidate(ctx, cache.CategoriesListKey)
	return nil
}
