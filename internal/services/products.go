package services

import (
	"context"
	"io"

	"github.com/carepoint-rx/carepoint/internal/api"
)

// GetProducts lists the catalog
func (s *Service) GetProducts(ctx context.Context, params ListParams) ([]Product, error) {
	var resp api.List[Product]
	if err := s.gw.Get(ctx, "/products", &resp, params.option()); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetProduct returns one catalog item
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var resp api.Envelope[Product]
	if err := s.gw.Get(ctx, idPath("/products/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CreateProduct adds a catalog item (admin)
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := validateInput("product", in); err != nil {
		return nil, err
	}

	var resp api.Envelope[Product]
	if err := s.gw.Post(ctx, "/admin/products", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateProduct replaces a catalog item's fields (admin)
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	if err := validateInput("product", in); err != nil {
		return nil, err
	}

	var resp api.Envelope[Product]
	if err := s.gw.Put(ctx, idPath("/admin/products/%d", id), in, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// DeleteProduct removes a catalog item (admin)
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	var resp api.Message
	return s.gw.Delete(ctx, idPath("/admin/products/%d", id), &resp)
}

// UploadProductImage replaces a product's image (admin). The image is sent
// as the "image" part of a multipart form.
func (s *Service) UploadProductImage(ctx context.Context, id int64, filename, contentType string, image io.Reader) (*Product, error) {
	if filename == "" {
		return nil, &InputError{Field: "image", Message: "filename is required"}
	}

	body := api.NewMultipart().File(api.FormFile{
		Field:       "image",
		Filename:    filename,
		ContentType: contentType,
		Content:     image,
	})

	var resp api.Envelope[Product]
	if err := s.gw.Post(ctx, idPath("/admin/products/%d/image", id), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
