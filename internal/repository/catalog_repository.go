package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ArystanIgen/master-thesis-files/internal/domain/tsp"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/query"
)

var catalogSchema = graphdb.MustSchema[tsp.CatalogNode]()

var catalogLabels = map[string]bool{
	tsp.TypeLabel:            true,
	tsp.CountryLabel:         true,
	tsp.TimeSlotLabel:        true,
	tsp.DataRequirementLabel: true,
}

// CatalogRepository reads the reference nodes providers link to: types,
// countries, time slots and data requirements.
type CatalogRepository struct {
	logger *zap.Logger
}

// NewCatalogRepository creates a catalog repository.
func NewCatalogRepository(logger *zap.Logger) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{logger: logger.Named("catalog_repository")}
}

// Match returns up to size reference nodes with the given label whose properties
// equal filters.
func (r *CatalogRepository) Match(ctx context.Context, exec Executor, label string, filters query.Filters, size int) (Result[tsp.CatalogNode], error) {
	if !catalogLabels[label] {
		return Result[tsp.CatalogNode]{}, NewInvalidQuery("label", fmt.Sprintf("%q is not a catalog label", label))
	}
	node, err := query.NodePattern("n", label, filters)
	if err != nil {
		return Result[tsp.CatalogNode]{}, NewInvalidQuery("filters", err.Error())
	}
	stmt := fmt.Sprintf("MATCH %s\nRETURN n as node_id, n.name as name", node)
	return Fetch(ctx, exec, graphdb.Cypher(stmt), size, catalogSchema)
}

// FindByName returns the reference node with the given label and name, or nil.
func (r *CatalogRepository) FindByName(ctx context.Context, exec Executor, label, name string) (*tsp.CatalogNode, error) {
	res, err := r.Match(ctx, exec, label, query.Where("name", name), 1)
	if err != nil {
		return nil, err
	}
	rec, ok := res.Single()
	if !ok {
		r.logger.Debug("Catalog node not found", zap.String("label", label), zap.String("name", name))
		return nil, nil
	}
	return &rec, nil
}

// List returns up to size reference nodes with the given label.
func (r *CatalogRepository) List(ctx context.Context, exec Executor, label string, size int) (Result[tsp.CatalogNode], error) {
	if size <= 0 {
		size = DefaultListSize
	}
	return r.Match(ctx, exec, label, nil, size)
}
