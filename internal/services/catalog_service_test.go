package services_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/media"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func upload(t *testing.T, field, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	pw, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = pw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field][0]
}

func catalogSvc(t *testing.T) (*services.CatalogService, *media.Store) {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	images, err := media.New(t.TempDir())
	require.NoError(t, err)
	return services.NewCatalogService(repos.NewProductRepo(db), images, time.Second), images
}

func TestCatalog_CreateStoresImageAndVariants(t *testing.T) {
	svc, images := catalogSvc(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, "  Remera  ", upload(t, "imagen", "remera.JPG", "image/jpeg", []byte("jpg")),
		[]domain.Variant{{ID: 11, Price: 100, Stock: 2}, {ID: 12, Price: 120, Stock: 0}})
	require.NoError(t, err)
	assert.Equal(t, "Remera", p.Name)
	assert.Regexp(t, `^producto-[0-9a-f-]{36}\.jpg$`, p.Image)
	assert.True(t, images.Exists(p.Image))

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, int64(11), got.Variants[0].ID)
}

func TestCatalog_CreateRejectsBadInput(t *testing.T) {
	svc, images := catalogSvc(t)
	ctx := context.Background()
	img := func() *multipart.FileHeader { return upload(t, "imagen", "a.png", "image/png", []byte("png")) }

	cases := map[string]struct {
		name     string
		image    *multipart.FileHeader
		variants []domain.Variant
	}{
		"blank name":      {" ", img(), nil},
		"no image":        {"Gorra", nil, nil},
		"bad extension":   {"Gorra", upload(t, "imagen", "a.exe", "application/octet-stream", []byte("x")), nil},
		"negative price":  {"Gorra", img(), []domain.Variant{{ID: 1, Price: -1}}},
		"negative stock":  {"Gorra", img(), []domain.Variant{{ID: 1, Stock: -1}}},
		"zero variant id": {"Gorra", img(), []domain.Variant{{ID: 0}}},
		"duplicate ids":   {"Gorra", img(), []domain.Variant{{ID: 1}, {ID: 1}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.name, tc.image, tc.variants)
			var ie *services.InputError
			assert.ErrorAs(t, err, &ie)
		})
	}
	files, err := images.List("")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCatalog_ConflictRemovesUploadedImage(t *testing.T) {
	svc, images := catalogSvc(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, "Buzo", upload(t, "imagen", "a.png", "image/png", []byte("1")), []domain.Variant{{ID: 5, Stock: 1}})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "Otro", upload(t, "imagen", "b.png", "image/png", []byte("2")), []domain.Variant{{ID: 5, Stock: 1}})
	require.ErrorIs(t, err, repos.ErrConflict)

	files, err := images.List(".png")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCatalog_ReplaceImageAndDelete(t *testing.T) {
	svc, images := catalogSvc(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, "Buzo", upload(t, "imagen", "a.png", "image/png", []byte("1")), nil)
	require.NoError(t, err)

	newName, err := svc.ReplaceImage(ctx, p.ID, upload(t, "imagen", "b.webp", "image/webp", []byte("2")))
	require.NoError(t, err)
	assert.False(t, images.Exists(p.Image))
	assert.True(t, images.Exists(newName))

	_, err = svc.ReplaceImage(ctx, 999, upload(t, "imagen", "c.png", "image/png", []byte("3")))
	require.ErrorIs(t, err, repos.ErrNotFound)

	deleted, err := svc.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, newName, deleted.Image)
	_, err = os.Stat(filepath.Join(images.Dir(), newName))
	assert.True(t, os.IsNotExist(err))

	files, err := images.List("")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCatalog_Rename(t *testing.T) {
	svc, _ := catalogSvc(t)
	ctx := context.Background()

	a, err := svc.CreateProduct(ctx, "Buzo", upload(t, "imagen", "a.png", "image/png", []byte("1")), nil)
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "Gorra", upload(t, "imagen", "b.png", "image/png", []byte("2")), nil)
	require.NoError(t, err)

	renamed, err := svc.RenameProduct(ctx, a.ID, "Buzo Canguro")
	require.NoError(t, err)
	assert.Equal(t, "Buzo Canguro", renamed.Name)

	_, err = svc.RenameProduct(ctx, a.ID, "GORRA")
	assert.ErrorIs(t, err, repos.ErrConflict)
	_, err = svc.RenameProduct(ctx, a.ID, "")
	var ie *services.InputError
	assert.ErrorAs(t, err, &ie)
}

func TestInventory_StockLifecycle(t *testing.T) {
	db := seeded(t)
	svc := services.NewInventoryService(repos.NewInventoryRepo(db), time.Second)
	ctx := context.Background()

	n, err := svc.Stock(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	v, err := svc.SetStock(ctx, 101, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, v.Stock)

	_, err = svc.SetStock(ctx, 101, -1)
	var ie *services.InputError
	assert.ErrorAs(t, err, &ie)
	_, err = svc.SetStock(ctx, 999, 1)
	assert.ErrorIs(t, err, repos.ErrNotFound)

	added, err := svc.AddVariant(ctx, 1, domain.Variant{ID: 103, Price: 8500, Stock: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), added.ProductID)
	_, err = svc.AddVariant(ctx, 1, domain.Variant{ID: 201, Price: 1, Stock: 1})
	assert.ErrorIs(t, err, repos.ErrConflict)

	all, err := svc.ListVariants(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	require.NoError(t, svc.DeleteVariant(ctx, 103))
	assert.ErrorIs(t, svc.DeleteVariant(ctx, 103), repos.ErrNotFound)
}
