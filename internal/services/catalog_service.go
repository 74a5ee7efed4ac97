package services

import (
	"context"
	"mime/multipart"
	"time"

	"storefront/internal/domain"
	"storefront/internal/media"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

type CatalogService struct {
	Prods   *repos.ProductRepo
	Images  *media.Store
	Timeout time.Duration
}

func NewCatalogService(prods *repos.ProductRepo, images *media.Store, timeout time.Duration) *CatalogService {
	return &CatalogService{Prods: prods, Images: images, Timeout: timeout}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	out, err := s.Prods.List(ctx)
	if out == nil {
		out = []domain.Product{}
	}
	return out, err
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	return s.Prods.Get(ctx, id)
}

// CreateProduct stores the uploaded image and then the product with its
// variants. The image is removed again if the insert fails.
func (s *CatalogService) CreateProduct(ctx context.Context, name string, image *multipart.FileHeader, variants []domain.Variant) (domain.Product, error) {
	name, ok := validate.Name(name)
	if !ok {
		return domain.Product{}, inputErr("product name is required (1-80 characters)")
	}
	if image == nil {
		return domain.Product{}, inputErr("product image is required")
	}
	ext, ok := validate.ImageExt(image.Filename)
	if !ok {
		return domain.Product{}, inputErr("unsupported image type %q", image.Filename)
	}
	seen := make(map[int64]bool, len(variants))
	for i, v := range variants {
		if msg := variantProblem(v); msg != "" {
			return domain.Product{}, inputErr("variant %d: %s", i+1, msg)
		}
		if seen[v.ID] {
			return domain.Product{}, inputErr("variant %d: duplicate id %d", i+1, v.ID)
		}
		seen[v.ID] = true
	}

	file, err := s.Images.Save(image, "producto", ext)
	if err != nil {
		return domain.Product{}, err
	}
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	p, err := s.Prods.Create(ctx, domain.Product{Name: name, Image: file, Variants: variants})
	if err != nil {
		_ = s.Images.Remove(file)
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) RenameProduct(ctx context.Context, id int64, name string) (domain.Product, error) {
	name, ok := validate.Name(name)
	if !ok {
		return domain.Product{}, inputErr("product name is required (1-80 characters)")
	}
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	return s.Prods.Rename(ctx, id, name)
}

// ReplaceImage swaps the product image. The previous file is removed on a
// best-effort basis; the returned error only concerns the new one.
func (s *CatalogService) ReplaceImage(ctx context.Context, id int64, image *multipart.FileHeader) (string, error) {
	if image == nil {
		return "", inputErr("product image is required")
	}
	ext, ok := validate.ImageExt(image.Filename)
	if !ok {
		return "", inputErr("unsupported image type %q", image.Filename)
	}
	file, err := s.Images.Save(image, "producto", ext)
	if err != nil {
		return "", err
	}
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	old, err := s.Prods.SetImage(ctx, id, file)
	if err != nil {
		_ = s.Images.Remove(file)
		return "", err
	}
	if old != "" && old != file {
		_ = s.Images.Remove(old)
	}
	return file, nil
}

// DeleteProduct removes the product, its variants and its image file.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	p, err := s.Prods.Delete(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if p.Image != "" {
		_ = s.Images.Remove(p.Image)
	}
	return p, nil
}

func variantProblem(v domain.Variant) string {
	switch {
	case v.ID <= 0:
		return "id must be a positive integer"
	case !validate.Price(v.Price):
		return "price must not be negative"
	case !validate.Stock(v.Stock):
		return "stock must be a non-negative integer"
	}
	return ""
}
