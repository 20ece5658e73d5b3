package services

import (
	"context"
	"errors"
	"testing"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	indexed map[gocql.UUID]string
	down    bool
}

func (f *fakeIndex) Index(_ context.Context, p models.Product) error {
	f.indexed[p.ID] = p.Name
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id gocql.UUID) error {
	delete(f.indexed, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, query string) ([]gocql.UUID, error) {
	if f.down {
		return nil, errors.New("cluster indisponible")
	}
	var ids []gocql.UUID
	for id, name := range f.indexed {
		if name == query {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type prefixSigner struct{}

func (prefixSigner) SignedURL(_ context.Context, image string) string {
	if image == "" {
		return ""
	}
	return "https://signed/" + image
}

func TestCategory_NameUniquenessIsCaseSensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.category(t, "Electronics")
	_, err := env.cats.Create(ctx, CreateCategoryInput{Name: "Electronics"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = env.cats.Create(ctx, CreateCategoryInput{Name: "electronics"})
	assert.NoError(t, err)

	_, err = env.cats.Create(ctx, CreateCategoryInput{Name: "   "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCategory_UpdateKeepsOwnName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.category(t, "Livres")
	env.category(t, "Jeux")

	updated, err := env.cats.Update(ctx, c.ID.String(), UpdateCategoryInput{Name: ptr("Livres"), Description: ptr("Romans")})
	require.NoError(t, err)
	assert.Equal(t, "Romans", updated.Description)

	_, err = env.cats.Update(ctx, c.ID.String(), UpdateCategoryInput{Name: ptr("Jeux")})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCategory_DeleteRefusedWhileInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Chaise", 30)

	err := env.cats.Delete(ctx, p.CategoryID.String())
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, env.products.Delete(ctx, p.ID.String()))
	require.NoError(t, env.cats.Delete(ctx, p.CategoryID.String()))

	_, err = env.cats.Get(ctx, p.CategoryID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProduct_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.category(t, "Maison")

	_, err := env.products.Create(ctx, CreateProductInput{Name: "Lampe", Description: "d", Price: ptr(-1.0), Quantity: ptr(1), Category: c.ID.String()})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = env.products.Create(ctx, CreateProductInput{Name: "Lampe", Description: "d", Price: ptr(1.0), Quantity: ptr(1), Category: gocql.TimeUUID().String()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var appErr *apperr.Error
	_, err = env.products.Create(ctx, CreateProductInput{Category: "x"})
	require.ErrorAs(t, err, &appErr)
	assert.GreaterOrEqual(t, len(appErr.Fields), 4)
}

func TestProduct_UpdateRejectsEmptyDescription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Table", 100)

	_, err := env.products.Update(ctx, p.ID.String(), UpdateProductInput{Description: ptr("")})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	stored, err := env.products.Get(ctx, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "description Table", stored.Description)

	updated, err := env.products.Update(ctx, p.ID.String(), UpdateProductInput{Price: ptr(80.0)})
	require.NoError(t, err)
	assert.InDelta(t, 80.0, updated.Price, 0.001)
	assert.Equal(t, "Table", updated.Name)
}

func TestProduct_ListCacheIsInvalidatedOnWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.product(t, "A", 1)

	list, err := env.products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.True(t, env.mr.Exists(cache.ProductsListKey))

	env.product(t, "B", 2)
	assert.False(t, env.mr.Exists(cache.ProductsListKey))

	list, err = env.products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestProduct_SearchFallsBackToCatalogFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.product(t, "Chaise rouge", 30)
	env.product(t, "Table basse", 90)

	found, err := env.products.Search(ctx, "CHAISE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Chaise rouge", found[0].Name)

	_, err = env.products.Search(ctx, "  ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestProduct_IndexAndSignerAreUsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	idx := &fakeIndex{indexed: map[gocql.UUID]string{}}
	svc := NewProductService(env.store.Products(), env.store.Categories(), nil, idx, prefixSigner{})
	c := env.category(t, "Deco")

	p, err := svc.Create(ctx, CreateProductInput{
		Name: "Vase", Description: "en verre", Price: ptr(12.0), Quantity: ptr(3),
		Category: c.ID.String(), Image: "products/vase.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://signed/products/vase.png", p.Image)
	assert.Contains(t, idx.indexed, p.ID)

	found, err := svc.Search(ctx, "Vase")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p.ID, found[0].ID)

	idx.down = true
	found, err = svc.Search(ctx, "verre")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, svc.Delete(ctx, p.ID.String()))
	assert.NotContains(t, idx.indexed, p.ID)
}
