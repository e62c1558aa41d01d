package storage

import (
	"context"

	"github.com/user/rowview/internal/model"
)

// Repository reads one dataset through the cache, syncing it with its
// file first. It satisfies the lister and searcher interfaces of a data
// view.
type Repository[T any] struct {
	store   *Store
	dataset model.Dataset
	list    func(ctx context.Context) ([]T, error)
	search  func(ctx context.Context, q string) ([]T, error)
}

// Customers returns the customer repository.
func (s *Store) Customers() *Repository[model.Customer] {
	return &Repository[model.Customer]{
		store:   s,
		dataset: model.Customers,
		list:    s.cache.ListCustomers,
		search:  s.cache.FilterCustomers,
	}
}

// Employees returns the employee repository.
func (s *Store) Employees() *Repository[model.Employee] {
	return &Repository[model.Employee]{
		store:   s,
		dataset: model.Employees,
		list:    s.cache.ListEmployees,
		search:  s.cache.FilterEmployees,
	}
}

// Dataset returns the dataset the repository reads.
func (r *Repository[T]) Dataset() model.Dataset {
	return r.dataset
}

// FindAll returns every record in file order.
func (r *Repository[T]) FindAll(ctx context.Context) ([]T, error) {
	if _, err := r.store.Sync(ctx, r.dataset); err != nil {
		return nil, err
	}
	return r.list(ctx)
}

// Search returns records with a searchable field containing q, matched
// literally. An empty q returns every record.
func (r *Repository[T]) Search(ctx context.Context, q string) ([]T, error) {
	if _, err := r.store.Sync(ctx, r.dataset); err != nil {
		return nil, err
	}
	return r.search(ctx, q)
}
