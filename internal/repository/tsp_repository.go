package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ArystanIgen/master-thesis-files/internal/domain/tsp"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/query"
)

var (
	tspSchema            = graphdb.MustSchema[tsp.TSP]()
	recommendationSchema = graphdb.MustSchema[tsp.Recommendation]()
)

// edgeRef is the single-column projection of an edge lookup.
type edgeRef struct {
	EdgeID int64 `graph:"edge_id"`
}

var edgeSchema = graphdb.MustSchema[edgeRef]()

// Default page sizes.
const (
	DefaultListSize           = 10
	DefaultRecommendationSize = 100
)

// TSPRepository reads and writes transport service provider nodes and their
// edges to reference nodes.
type TSPRepository struct {
	logger *zap.Logger
}

// NewTSPRepository creates a TSP repository.
func NewTSPRepository(logger *zap.Logger) *TSPRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TSPRepository{logger: logger.Named("tsp_repository")}
}

// canonical renders the GET that projects the canonical columns of the nodes in
// the first column of source: node id, id, name.
func canonical(source string) string {
	return fmt.Sprintf("GRAPH::GET(%s, 0, %s)", source, query.Properties(tsp.Label, "id", "name"))
}

// Create inserts a provider node, links it to the type named in.Type and returns
// the stored projection. When no type has that name the node is created without
// a BELONGS_TO edge.
func (r *TSPRepository) Create(ctx context.Context, exec Executor, in tsp.Create) (*tsp.TSP, error) {
	if err := tsp.Validate(in); err != nil {
		return nil, err
	}

	values, err := query.Values([]query.ColumnType{query.TypeString, query.TypeString}, []any{in.ID, in.Name})
	if err != nil {
		return nil, NewInvalidQuery("tsp", err.Error())
	}
	typeMatch, err := query.AlgebraMatch(tsp.TypeLabel, query.Where("name", in.Type))
	if err != nil {
		return nil, NewInvalidQuery("type", err.Error())
	}
	fetched, err := query.AlgebraMatch(tsp.Label, query.Where("id", in.ID))
	if err != nil {
		return nil, NewInvalidQuery("id", err.Error())
	}

	stmt := query.Let().
		Bind("new_tsp", fmt.Sprintf("GRAPH::INSERT_NODES(%s, %s)", query.Quote(tsp.Label), values)).
		Bind("v", fmt.Sprintf("GRAPH::SET(@new_tsp, 2, %s, FALSE)", query.Properties(tsp.Label, "id", "name"))).
		Bind("tsp_type", typeMatch).
		Bind("tsp_data", "PRODUCT(@new_tsp, @tsp_type)").
		Bind("link_tsp_and_tsp_type", fmt.Sprintf("GRAPH::INSERT_EDGES(%s, 2, 3, @tsp_data)", query.Quote(string(tsp.BelongsTo)))).
		Bind("fetched_tsp", fetched).
		Bind("result", canonical("@fetched_tsp")).
		In("result")

	created, err := fetchOne(ctx, exec, graphdb.Algebra(stmt), tspSchema)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrUnexpectedResult{Operation: "create tsp", Reason: "created node was not returned"}
	}
	r.logger.Debug("TSP created", zap.String("id", created.ID), zap.Int64("node_id", created.NodeID))
	return created, nil
}

// Link inserts one relation edge from a provider node to a target node and
// returns the provider's projection, or nil when the provider does not exist.
func (r *TSPRepository) Link(ctx context.Context, exec Executor, relation tsp.Relation, tspNodeID, targetNodeID int64) (*tsp.TSP, error) {
	if relation.Target() == "" {
		return nil, NewInvalidQuery("relation", fmt.Sprintf("unknown relation %q", relation))
	}

	stmt := query.Let().
		Bind("oids", query.LongValues([]int64{tspNodeID, targetNodeID})).
		Bind("link", fmt.Sprintf("GRAPH::INSERT_EDGES(%s, 0, 1, @oids)", query.Quote(string(relation)))).
		Bind("result", canonical(query.LongValues([]int64{tspNodeID}))).
		In("result")

	return fetchOne(ctx, exec, graphdb.Algebra(stmt), tspSchema)
}

// AddCountry links a provider to a country it operates in.
func (r *TSPRepository) AddCountry(ctx context.Context, exec Executor, tspNodeID, countryNodeID int64) (*tsp.TSP, error) {
	return r.Link(ctx, exec, tsp.OperatesIn, tspNodeID, countryNodeID)
}

// AddTimeSlot links a provider to a time slot it is available in.
func (r *TSPRepository) AddTimeSlot(ctx context.Context, exec Executor, tspNodeID, timeSlotNodeID int64) (*tsp.TSP, error) {
	return r.Link(ctx, exec, tsp.HasAvailability, tspNodeID, timeSlotNodeID)
}

// AddDataRequirement links a provider to a data requirement it can provide.
func (r *TSPRepository) AddDataRequirement(ctx context.Context, exec Executor, tspNodeID, dataReqNodeID int64) (*tsp.TSP, error) {
	return r.Link(ctx, exec, tsp.CanProvide, tspNodeID, dataReqNodeID)
}

// edgeLookup renders the statement returning the id of the relation edge
// between two nodes.
func edgeLookup(relation tsp.Relation, from, to int64) graphdb.Statement {
	return graphdb.Algebra(fmt.Sprintf("PROJECT(GRAPH::CONNECT(%s, [%s]), [2])",
		query.LongValues([]int64{from, to}), query.Quote(string(relation))))
}

// findEdge returns the id of the relation edge between two nodes.
func (r *TSPRepository) findEdge(ctx context.Context, exec Executor, relation tsp.Relation, from, to int64) (int64, bool, error) {
	if relation.Target() == "" {
		return 0, false, NewInvalidQuery("relation", fmt.Sprintf("unknown relation %q", relation))
	}
	edge, err := fetchOne(ctx, exec, edgeLookup(relation, from, to), edgeSchema)
	if err != nil || edge == nil {
		return 0, false, err
	}
	return edge.EdgeID, true, nil
}

// Unlink removes the relation edge between two nodes. A missing edge is logged
// and reported as removed == false; it is not an error.
func (r *TSPRepository) Unlink(ctx context.Context, exec Executor, relation tsp.Relation, tspNodeID, targetNodeID int64) (removed bool, err error) {
	edgeID, ok, err := r.findEdge(ctx, exec, relation, tspNodeID, targetNodeID)
	if err != nil {
		return false, err
	}
	if !ok {
		r.logger.Warn("No edge to remove",
			zap.String("relation", string(relation)),
			zap.Int64("tsp_node_id", tspNodeID),
			zap.Int64("target_node_id", targetNodeID),
		)
		return false, nil
	}

	remove := graphdb.Algebra(fmt.Sprintf("GRAPH::REMOVE(%s, NULL)", query.LongValues([]int64{edgeID})))
	if _, err := exec.ExecuteQuery(ctx, remove, 1); err != nil {
		return false, err
	}
	r.logger.Debug("Edge removed", zap.String("relation", string(relation)), zap.Int64("edge_id", edgeID))
	return true, nil
}

// RemoveDataRequirement removes the CAN_PROVIDE edge between a provider and a
// data requirement, if there is one.
func (r *TSPRepository) RemoveDataRequirement(ctx context.Context, exec Executor, tspNodeID, dataReqNodeID int64) error {
	_, err := r.Unlink(ctx, exec, tsp.CanProvide, tspNodeID, dataReqNodeID)
	return err
}

// HasRelation reports whether the relation edge between two nodes exists.
func (r *TSPRepository) HasRelation(ctx context.Context, exec Executor, relation tsp.Relation, tspNodeID, targetNodeID int64) (bool, error) {
	_, ok, err := r.findEdge(ctx, exec, relation, tspNodeID, targetNodeID)
	return ok, err
}

// HasDataRequirement reports whether a provider can provide a data requirement.
func (r *TSPRepository) HasDataRequirement(ctx context.Context, exec Executor, tspNodeID, dataReqNodeID int64) (bool, error) {
	return r.HasRelation(ctx, exec, tsp.CanProvide, tspNodeID, dataReqNodeID)
}

// UpdateByID sets the given properties on one provider node and returns its
// projection, or nil when the node does not exist. An empty update only re-reads
// the node.
func (r *TSPRepository) UpdateByID(ctx context.Context, exec Executor, nodeID int64, upd tsp.Update) (*tsp.TSP, error) {
	if err := tsp.Validate(upd); err != nil {
		return nil, err
	}

	b := query.Let()
	if upd.Name != nil {
		values, err := query.Values([]query.ColumnType{query.TypeLong, query.TypeString}, []any{nodeID, *upd.Name})
		if err != nil {
			return nil, NewInvalidQuery("name", err.Error())
		}
		b.Bind("new_values", values).
			Bind("v", fmt.Sprintf("GRAPH::SET(@new_values, 0, %s, TRUE)", query.Properties(tsp.Label, "", "name")))
	}
	stmt := b.Bind("result", canonical(query.LongValues([]int64{nodeID}))).In("result")

	return fetchOne(ctx, exec, graphdb.Algebra(stmt), tspSchema)
}

// DeleteByID removes a provider node and its edges.
func (r *TSPRepository) DeleteByID(ctx context.Context, exec Executor, nodeID int64) error {
	stmt := graphdb.Algebra(fmt.Sprintf("GRAPH::REMOVE(%s, NULL)", query.LongValues([]int64{nodeID})))
	if _, err := exec.ExecuteQuery(ctx, stmt, 1); err != nil {
		return err
	}
	r.logger.Debug("TSP deleted", zap.Int64("node_id", nodeID))
	return nil
}

// Get selects providers by equality filters on their properties. Without an
// effective filter every provider is scanned.
func (r *TSPRepository) Get(ctx context.Context, exec Executor, size int, filters query.Filters) (Result[tsp.TSP], error) {
	match, err := query.AlgebraMatch(tsp.Label, filters)
	if err != nil {
		return Result[tsp.TSP]{}, NewInvalidQuery("filters", err.Error())
	}
	stmt := query.Let().
		Bind("tsp", match).
		Bind("result", canonical("@tsp")).
		In("result")

	return Fetch(ctx, exec, graphdb.Algebra(stmt), size, tspSchema)
}

// FindByID returns the provider with the given business id, or nil.
func (r *TSPRepository) FindByID(ctx context.Context, exec Executor, id string) (*tsp.TSP, error) {
	res, err := r.Get(ctx, exec, 1, query.Where("id", id))
	if err != nil {
		return nil, err
	}
	rec, ok := res.Single()
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ListByType returns up to size providers that belong to the named type.
func (r *TSPRepository) ListByType(ctx context.Context, exec Executor, typeName string, size int) (Result[tsp.TSP], error) {
	if size <= 0 {
		size = DefaultListSize
	}
	typeNode, err := query.NodePattern("tsp_type", tsp.TypeLabel, query.Where("name", typeName))
	if err != nil {
		return Result[tsp.TSP]{}, NewInvalidQuery("type", err.Error())
	}

	stmt := fmt.Sprintf("MATCH %s<-[:%s]-(tsp:%s)\nRETURN tsp as node_id, tsp.id as id, tsp.name as name",
		typeNode, tsp.BelongsTo, tsp.Label)

	return Fetch(ctx, exec, graphdb.Cypher(stmt), size, tspSchema)
}

// RecommendationStatement renders the recommendation pattern query. Each
// non-empty filter list becomes an OR group; the groups are combined into one
// WHERE clause.
func RecommendationStatement(filter tsp.RecommendationFilter) graphdb.Statement {
	where := query.ComposeWhere(
		query.OrGroup("tsp_type.name", filter.TSPTypes),
		query.OrGroup("country.name", filter.Countries),
		query.OrGroup("time_slot.name", filter.TimeSlots),
	)

	text := fmt.Sprintf("MATCH (tsp_type:%s)<-[:%s]-(tsp:%s)-[:%s]->(country:%s),\n"+
		"      (tsp:%s)-[:%s]->(time_slot:%s)\n",
		tsp.TypeLabel, tsp.BelongsTo, tsp.Label, tsp.OperatesIn, tsp.CountryLabel,
		tsp.Label, tsp.HasAvailability, tsp.TimeSlotLabel)
	if where != "" {
		text += where + "\n"
	}
	text += "RETURN DISTINCT tsp as node_id, tsp.id as id, tsp.name as name, tsp_type.name as type;"

	return graphdb.Cypher(text)
}

// Recommendations returns distinct providers matching the filter, with the name
// of their type.
func (r *TSPRepository) Recommendations(ctx context.Context, exec Executor, filter tsp.RecommendationFilter, size int) (Result[tsp.Recommendation], error) {
	if err := tsp.Validate(filter); err != nil {
		return Result[tsp.Recommendation]{}, err
	}
	if size <= 0 {
		size = DefaultRecommendationSize
	}
	return Fetch(ctx, exec, RecommendationStatement(filter), size, recommendationSchema)
}
