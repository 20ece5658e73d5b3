package services

import (
	"context"
	"log"
	"strings"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/gocql/gocql"
)

type CreateProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
}

// UpdateProductInput : un champ présent (non nil) remplace la valeur stockée.
type UpdateProductInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
}

type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      *cache.ListCache
	index      ProductIndex
	images     ImageSigner
}

// NewProductService : cache, index et images sont optionnels (nil).
func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository,
	listCache *cache.ListCache, index ProductIndex, images ImageSigner) *ProductService {
	return &ProductService{products: products, categories: categories, cache: listCache, index: index, images: images}
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	var errs fieldErrors
	name := sanitize(in.Name)
	description := sanitize(in.Description)
	if name == "" {
		errs.add("name", "champ requis")
	}
	if description == "" {
		errs.add("description", "champ requis")
	}
	if in.Price == nil || !isFinite(*in.Price) || *in.Price < 0 {
		errs.add("price", "doit être un nombre >= 0")
	}
	if in.Quantity == nil || *in.Quantity < 0 {
		errs.add("quantity", "doit être un entier >= 0")
	}
	categoryID, err := ParseID("category", in.Category)
	if err != nil {
		errs.add("category", "identifiant invalide")
	}
	image := strings.TrimSpace(in.Image)
	if image != "" && !validImageRef(image) {
		errs.add("image", "URL ou clé d'objet invalide")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.checkCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &models.Product{
		ID:          gocql.TimeUUID(),
		Name:        name,
		Description: description,
		Price:       *in.Price,
		Quantity:    *in.Quantity,
		CategoryID:  categoryID,
		Image:       image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, apperr.Internal("Erreur création produit", err)
	}

	s.afterWrite(ctx, p, false)
	return s.present(ctx, *p), nil
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	var list []models.Product
	if !s.cache.Load(ctx, cache.ProductsListKey, &list) {
		var err error
		list, err = s.products.List(ctx)
		if err != nil {
			return nil, apperr.Internal("Erreur récupération produits", err)
		}
		s.cache.Store(ctx, cache.ProductsListKey, list)
	}

	out := make([]models.Product, 0, len(list))
	for _, p := range list {
		out = append(out, *s.present(ctx, p))
	}
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := ParseID("productId", rawID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Produit introuvable", "Erreur récupération produit")
	}
	return s.present(ctx, *p), nil
}

func (s *ProductService) Update(ctx context.Context, rawID string, in UpdateProductInput) (*models.Product, error) {
	id, err := ParseID("productId", rawID)
	if err != nil {
		return nil, err
	}

	var errs fieldErrors
	if in.Name != nil && sanitize(*in.Name) == "" {
		errs.add("name", "ne peut pas être vide")
	}
	if in.Description != nil && sanitize(*in.Description) == "" {
		errs.add("description", "ne peut pas être vide")
	}
	if in.Price != nil && (!isFinite(*in.Price) || *in.Price < 0) {
		errs.add("price", "doit être un nombre >= 0")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		errs.add("quantity", "doit être un entier >= 0")
	}
	var categoryID gocql.UUID
	if in.Category != nil {
		if categoryID, err = ParseID("category", *in.Category); err != nil {
			errs.add("category", "identifiant invalide")
		}
	}
	if in.Image != nil && *in.Image != "" && !validImageRef(strings.TrimSpace(*in.Image)) {
		errs.add("image", "URL ou clé d'objet invalide")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Produit introuvable", "Erreur récupération produit")
	}
	if in.Category != nil {
		if err := s.checkCategory(ctx, categoryID); err != nil {
			return nil, err
		}
		p.CategoryID = categoryID
	}
	if in.Name != nil {
		p.Name = sanitize(*in.Name)
	}
	if in.Description != nil {
		p.Description = sanitize(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}
	p.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, apperr.Wrap(err, "Produit introuvable", "Erreur mise à jour produit")
	}

	s.afterWrite(ctx, p, false)
	return s.present(ctx, *p), nil
}

func (s *ProductService) Delete(ctx context.Context, rawID string) error {
	id, err := ParseID("productId", rawID)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return apperr.Wrap(err, "Produit introuvable", "Erreur suppression produit")
	}
	s.afterWrite(ctx, &models.Product{ID: id}, true)
	return nil
}

// Search interroge Elasticsearch, ou filtre le catalogue en mémoire sans index.
func (s *ProductService) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Field("q", "champ requis")
	}

	if s.index != nil {
		ids, err := s.index.Search(ctx, query)
		if err == nil {
			out := make([]models.Product, 0, len(ids))
			for _, id := range ids {
				p, err := s.products.Get(ctx, id)
				if err != nil {
					continue
				}
				out = append(out, *s.present(ctx, *p))
			}
			return out, nil
		}
		log.Printf("⚠️ Recherche Elastic indisponible, filtre local: %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(query))
	out := make([]models.Product, 0)
	for _, p := range all {
		if matchProduct(p, terms) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *ProductService) checkCategory(ctx context.Context, id gocql.UUID) error {
	if _, err := s.categories.Get(ctx, id); err != nil {
		return apperr.Wrap(err, "Catégorie introuvable", "Erreur récupération catégorie")
	}
	return nil
}

// afterWrite invalide le cache liste et synchronise l'index de recherche.
func (s *ProductService) afterWrite(ctx context.Context, p *models.Product, deleted bool) {
	s.cache.Invalidate(ctx, cache.ProductsListKey)
	if s.index == nil {
		return
	}
	var err error
	if deleted {
		err = s.index.Remove(ctx, p.ID)
	} else {
		err = s.index.Index(ctx, *p)
	}
	if err != nil {
		log.Printf("⚠️ Synchronisation index produit %s: %v", p.ID, err)
	}
}

func (s *ProductService) present(ctx context.Context, p models.Product) *models.Product {
	if s.images != nil {
		p.Image = s.images.SignedURL(ctx, p.Image)
	}
	return &p
}
