package graph

import (
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/ragcore/database"
	"github.com/siherrmann/ragcore/model"
)

const defaultMaxEntities = 10
const defaultMaxCommunities = 5

// Enricher decorates a retrieval result with the entities its chunks
// mention and the communities those entities belong to. It is purely
// advisory: callers treat every error as "no enrichment available" and
// keep serving the underlying answer.
type Enricher struct {
	edges          *database.EdgesDBHandler
	entities       *database.EntitiesDBHandler
	communities    *database.CommunitiesDBHandler
	maxEntities    int
	maxCommunities int
}

func NewEnricher(edges *database.EdgesDBHandler, entities *database.EntitiesDBHandler, communities *database.CommunitiesDBHandler) *Enricher {
	return &Enricher{
		edges:          edges,
		entities:       entities,
		communities:    communities,
		maxEntities:    defaultMaxEntities,
		maxCommunities: defaultMaxCommunities,
	}
}

// Enrich aggregates entity_mention edges incident to chunkIDs, resolves
// the top maxEntities by summed edge weight, and looks up the
// communities those entities belong to. Any database failure degrades
// to empty results rather than propagating.
func (e *Enricher) Enrich(chunkIDs []int) ([]*model.EntityHit, []*model.CommunityHit) {
	entities := e.topEntities(chunkIDs)
	if len(entities) == 0 {
		return nil, nil
	}

	communities := e.topCommunities(entities)
	return entities, communities
}

func (e *Enricher) topEntities(chunkIDs []int) []*model.EntityHit {
	weightByEntity := map[uuid.UUID]float64{}
	entityType := model.EdgeTypeEntityMention

	for _, chunkID := range chunkIDs {
		connections, err := e.edges.SelectEdgesConnectedToChunk(chunkID, &entityType)
		if err != nil {
			continue
		}
		for _, conn := range connections {
			entityID := entityEndpoint(conn.Edge)
			if entityID == nil {
				continue
			}
			weightByEntity[*entityID] += conn.Edge.Weight
		}
	}

	if len(weightByEntity) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(weightByEntity))
	for id := range weightByEntity {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return weightByEntity[ids[i]] > weightByEntity[ids[j]] })
	if len(ids) > e.maxEntities {
		ids = ids[:e.maxEntities]
	}

	hits := make([]*model.EntityHit, 0, len(ids))
	for _, id := range ids {
		entity, err := e.entities.SelectEntity(id)
		if err != nil {
			continue
		}
		hits = append(hits, &model.EntityHit{Entity: entity, Relevance: weightByEntity[id]})
	}
	return hits
}

func (e *Enricher) topCommunities(entities []*model.EntityHit) []*model.CommunityHit {
	ids := make([]uuid.UUID, len(entities))
	nameByID := make(map[uuid.UUID]string, len(entities))
	for i, hit := range entities {
		ids[i] = hit.Entity.ID
		nameByID[hit.Entity.ID] = hit.Entity.Name
	}

	communities, err := e.communities.CommunitiesForEntities(ids)
	if err != nil || len(communities) == 0 {
		return nil
	}

	candidateSet := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		candidateSet[id] = struct{}{}
	}

	hits := make([]*model.CommunityHit, 0, len(communities))
	for _, community := range communities {
		present := make([]string, 0)
		for _, memberID := range community.EntityIDs {
			if _, ok := candidateSet[memberID]; ok {
				if name, ok := nameByID[memberID]; ok {
					present = append(present, name)
				}
			}
		}
		if len(present) == 0 {
			continue
		}
		hits = append(hits, &model.CommunityHit{
			Community: community,
			Entities:  present,
			Relevance: float64(len(present)) / float64(len(ids)),
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Relevance > hits[j].Relevance })
	if len(hits) > e.maxCommunities {
		hits = hits[:e.maxCommunities]
	}
	return hits
}

func entityEndpoint(edge *model.Edge) *uuid.UUID {
	if edge.SourceEntityID != nil {
		return edge.SourceEntityID
	}
	return edge.TargetEntityID
}
