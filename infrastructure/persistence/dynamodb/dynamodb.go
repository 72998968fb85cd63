// Package dynamodb implements ports.GraphService against a single
// DynamoDB table. Grounded on the root-level node_operations.go/
// graph_operations.go (PK/SK item shape, GSI1 keyword index,
// keyword-extraction-driven search) and
// internal/infrastructure/dynamodb/node_repository.go's CQRS-repository
// shape (expression.Key builder, attributevalue marshaling, zap logging).
//
// Item layout, keyed per graph:
//
//	Node:      PK=GRAPH#<graphID>#NODE#<nodeID>    SK=METADATA
//	Type node: PK=GRAPH#<graphID>#NODE#<nodeID>    SK=METADATA  (Kind="type")
//	Keyword:   PK=GRAPH#<graphID>#NODE#<nodeID>    SK=KEYWORD#<word>
//	           GSI1PK=GRAPH#<graphID>#KEYWORD#<word> GSI1SK=NODE#<nodeID>
//	Edge:      PK=GRAPH#<graphID>#NODE#<sourceID>  SK=EDGE#<RELATION>#<edgeID>
package dynamodb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bql/application/ports"
	"bql/domain/bql/relation"
	apperrors "bql/pkg/errors"
)

// Store implements ports.GraphService against DynamoDB.
type Store struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// New builds a Store. indexName is the GSI1 keyword index name
// (infrastructure/config.GraphServiceConfig.KeywordIndexName).
func New(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) *Store {
	return &Store{client: client, tableName: tableName, indexName: indexName, logger: logger}
}

var _ ports.GraphService = (*Store)(nil)

// SeedType registers an existing type node so ListTypes can find it. BQL
// never creates types itself (§6 has no create-type operation); the
// surrounding graph-service product owns type provisioning, and this is
// the adapter-level equivalent of that out-of-band step.
func (s *Store) SeedType(ctx context.Context, activeGraphID, typeID, name string) error {
	item := nodeItem{PK: nodePK(activeGraphID, typeID), SK: metadataSK, NodeID: typeID, Name: name, Kind: "type"}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewInternal("failed to marshal type item", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: av}); err != nil {
		return apperrors.NewService("seed-type put-item failed", err, false)
	}

	typeIdx := keywordItem{
		PK: nodePK(activeGraphID, typeID), SK: "TYPEIDX",
		GSI1PK: fmt.Sprintf("GRAPH#%s#TYPE", activeGraphID), GSI1SK: "NODE#" + typeID,
	}
	idxAV, err := attributevalue.MarshalMap(typeIdx)
	if err != nil {
		return apperrors.NewInternal("failed to marshal type index item", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: idxAV}); err != nil {
		return apperrors.NewService("seed-type index put-item failed", err, false)
	}
	return nil
}

type nodeItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	NodeID          string `dynamodbav:"NodeID"`
	Name            string `dynamodbav:"Name"`
	TypeID          string `dynamodbav:"TypeID,omitempty"`
	Label           string `dynamodbav:"Label,omitempty"`
	ForegroundColor string `dynamodbav:"ForegroundColor,omitempty"`
	BackgroundColor string `dynamodbav:"BackgroundColor,omitempty"`
	Kind            string `dynamodbav:"Kind,omitempty"`
}

type keywordItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
}

type edgeItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	EdgeID   string `dynamodbav:"EdgeID"`
	Relation int    `dynamodbav:"Relation"`
	SourceID string `dynamodbav:"SourceID"`
	TargetID string `dynamodbav:"TargetID"`
}

// edgeRefItem lets DeleteEdge locate an edge item by ID alone: the edge
// port operations (§6) carry no source node, only the edge ID the
// traversal executor recorded, so a direct PK/SK delete needs this
// secondary pointer rather than a table scan.
type edgeRefItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	SourceID string `dynamodbav:"SourceID"`
	EdgeSK   string `dynamodbav:"EdgeSK"`
}

func nodePK(graphID, nodeID string) string { return fmt.Sprintf("GRAPH#%s#NODE#%s", graphID, nodeID) }

const metadataSK = "METADATA"

func edgeSK(rel relation.Kind, edgeID string) string { return fmt.Sprintf("EDGE#%s#%s", rel, edgeID) }

func edgeRefPK(graphID, edgeID string) string { return fmt.Sprintf("GRAPH#%s#EDGEREF#%s", graphID, edgeID) }

const edgeRefSK = "REF"

func keywordGSI1PK(graphID, word string) string { return fmt.Sprintf("GRAPH#%s#KEYWORD#%s", graphID, word) }

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9 ]+`)

// extractKeywords lowercases, strips punctuation, and splits name into
// indexable tokens — the same keyword-extraction shape
// node_operations.go's extractKeywords uses for note content, narrowed
// here to node names since that's all BQL's Search ever queries on.
func extractKeywords(name string) []string {
	cleaned := nonAlphaNum.ReplaceAllString(strings.ToLower(name), "")
	return strings.Fields(cleaned)
}

func (s *Store) GetByName(ctx context.Context, activeGraphID, name string) (*ports.NodeRecord, error) {
	hits, err := s.Search(ctx, activeGraphID, name)
	if err != nil {
		return nil, err
	}
	for _, h := range hits {
		if h.Name == name {
			rec := h
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *Store) Search(ctx context.Context, activeGraphID, query string) ([]ports.NodeRecord, error) {
	words := extractKeywords(query)
	if len(words) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var out []ports.NodeRecord
	for _, word := range words {
		keyEx := expression.Key("GSI1PK").Equal(expression.Value(keywordGSI1PK(activeGraphID, word)))
		expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
		if err != nil {
			return nil, apperrors.NewInternal("failed to build search expression", err)
		}

		resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			IndexName:                 aws.String(s.indexName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			s.logger.Warn("keyword search query failed", zap.String("word", word), zap.Error(err))
			continue
		}

		for _, item := range resp.Items {
			var kw keywordItem
			if err := attributevalue.UnmarshalMap(item, &kw); err != nil {
				continue
			}
			nodeID := strings.TrimPrefix(kw.GSI1SK, "NODE#")
			if seen[nodeID] {
				continue
			}
			seen[nodeID] = true
			node, err := s.getNode(ctx, activeGraphID, nodeID)
			if err != nil || node == nil {
				continue
			}
			out = append(out, *node)
		}
	}

	return out, nil
}

func (s *Store) getNode(ctx context.Context, activeGraphID, nodeID string) (*ports.NodeRecord, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(activeGraphID, nodeID)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
	})
	if err != nil {
		return nil, apperrors.NewService("get-item failed for node "+nodeID, err, false)
	}
	if resp.Item == nil {
		return nil, nil
	}
	var item nodeItem
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return nil, apperrors.NewInternal("failed to unmarshal node item", err)
	}
	return &ports.NodeRecord{
		ID: item.NodeID, Name: item.Name, TypeID: item.TypeID,
		Label: item.Label, ForegroundColor: item.ForegroundColor,
		BackgroundColor: item.BackgroundColor, Kind: item.Kind,
	}, nil
}

func (s *Store) ListTypes(ctx context.Context, activeGraphID string) ([]ports.TypeRecord, error) {
	keyEx := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("GRAPH#%s#TYPE", activeGraphID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, apperrors.NewInternal("failed to build list-types expression", err)
	}
	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, apperrors.NewService("list-types query failed", err, false)
	}

	var out []ports.TypeRecord
	for _, item := range resp.Items {
		var kw keywordItem
		if err := attributevalue.UnmarshalMap(item, &kw); err != nil {
			continue
		}
		nodeID := strings.TrimPrefix(kw.GSI1SK, "NODE#")
		node, err := s.getNode(ctx, activeGraphID, nodeID)
		if err != nil || node == nil {
			continue
		}
		out = append(out, ports.TypeRecord{ID: node.ID, Name: node.Name})
	}
	return out, nil
}

func (s *Store) Neighborhood(ctx context.Context, activeGraphID, nodeID string, kinds []relation.Kind) ([]ports.Neighbor, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(nodePK(activeGraphID, nodeID))).
		And(expression.Key("SK").BeginsWith("EDGE#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, apperrors.NewInternal("failed to build neighborhood expression", err)
	}
	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, apperrors.NewService("neighborhood query failed", err, false)
	}

	wanted := make(map[relation.Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	var out []ports.Neighbor
	for _, item := range resp.Items {
		var e edgeItem
		if err := attributevalue.UnmarshalMap(item, &e); err != nil {
			continue
		}
		kind := relation.Kind(e.Relation)
		if !wanted[kind] {
			continue
		}
		node, err := s.getNode(ctx, activeGraphID, e.TargetID)
		if err != nil || node == nil {
			continue
		}
		out = append(out, ports.Neighbor{
			Edge: ports.EdgeRecord{ID: e.EdgeID, Relation: kind, SourceID: nodeID, TargetID: e.TargetID},
			Node: *node,
		})
	}
	return out, nil
}

func (s *Store) CreateNode(ctx context.Context, activeGraphID string, input ports.NewNodeInput) (string, error) {
	nodeID := uuid.NewString()
	item := nodeItem{
		PK: nodePK(activeGraphID, nodeID), SK: metadataSK, NodeID: nodeID,
		Name: input.Name, TypeID: input.TypeID, Label: input.Label,
		ForegroundColor: input.ForegroundColor, BackgroundColor: input.BackgroundColor,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return "", apperrors.NewInternal("failed to marshal node item", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: av}); err != nil {
		return "", apperrors.NewService("create-node put-item failed", err, false)
	}

	for _, word := range extractKeywords(input.Name) {
		kw := keywordItem{
			PK: nodePK(activeGraphID, nodeID), SK: "KEYWORD#" + word,
			GSI1PK: keywordGSI1PK(activeGraphID, word), GSI1SK: "NODE#" + nodeID,
		}
		kwAV, err := attributevalue.MarshalMap(kw)
		if err != nil {
			continue
		}
		if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: kwAV}); err != nil {
			s.logger.Warn("failed to index keyword", zap.String("word", word), zap.Error(err))
		}
	}

	return nodeID, nil
}

func (s *Store) CreateEdge(ctx context.Context, activeGraphID string, sourceID string, rel relation.Kind, targetID string) (string, error) {
	edgeID := uuid.NewString()
	sk := edgeSK(rel, edgeID)
	item := edgeItem{
		PK: nodePK(activeGraphID, sourceID), SK: sk,
		EdgeID: edgeID, Relation: int(rel), SourceID: sourceID, TargetID: targetID,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return "", apperrors.NewInternal("failed to marshal edge item", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: av}); err != nil {
		return "", apperrors.NewService("create-edge put-item failed", err, false)
	}

	ref := edgeRefItem{PK: edgeRefPK(activeGraphID, edgeID), SK: edgeRefSK, SourceID: sourceID, EdgeSK: sk}
	refAV, err := attributevalue.MarshalMap(ref)
	if err == nil {
		if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: refAV}); err != nil {
			s.logger.Warn("failed to write edge ref", zap.String("edge", edgeID), zap.Error(err))
		}
	}
	return edgeID, nil
}

func (s *Store) UpdateNode(ctx context.Context, activeGraphID, nodeID, property string, value *string) error {
	attrName, ok := settableAttr(property)
	if !ok {
		return apperrors.NewSemantic("update-node: unknown settable property " + property)
	}

	v := ""
	if value != nil {
		v = *value
	}
	update := expression.Set(expression.Name(attrName), expression.Value(v))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return apperrors.NewInternal("failed to build update-node expression", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(activeGraphID, nodeID)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return apperrors.NewService("update-node failed for "+nodeID, err, false)
	}

	if property == "name" {
		if err := s.reindexKeywords(ctx, activeGraphID, nodeID, v); err != nil {
			s.logger.Warn("failed to reindex keywords after rename", zap.String("node", nodeID), zap.Error(err))
		}
	}
	return nil
}

func settableAttr(property string) (string, bool) {
	switch property {
	case "name":
		return "Name", true
	case "label":
		return "Label", true
	case "foregroundColor":
		return "ForegroundColor", true
	case "backgroundColor":
		return "BackgroundColor", true
	default:
		return "", false
	}
}

func (s *Store) reindexKeywords(ctx context.Context, activeGraphID, nodeID, newName string) error {
	keyEx := expression.Key("PK").Equal(expression.Value(nodePK(activeGraphID, nodeID))).
		And(expression.Key("SK").BeginsWith("KEYWORD#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return err
	}
	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName: aws.String(s.tableName), KeyConditionExpression: expr.KeyCondition(),
		ExpressionAttributeNames: expr.Names(), ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return err
	}
	for _, item := range resp.Items {
		pk, _ := item["PK"].(*types.AttributeValueMemberS)
		sk, _ := item["SK"].(*types.AttributeValueMemberS)
		if pk == nil || sk == nil {
			continue
		}
		s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk.Value},
				"SK": &types.AttributeValueMemberS{Value: sk.Value},
			},
		})
	}
	for _, word := range extractKeywords(newName) {
		kw := keywordItem{
			PK: nodePK(activeGraphID, nodeID), SK: "KEYWORD#" + word,
			GSI1PK: keywordGSI1PK(activeGraphID, word), GSI1SK: "NODE#" + nodeID,
		}
		kwAV, err := attributevalue.MarshalMap(kw)
		if err != nil {
			continue
		}
		s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: kwAV})
	}
	return nil
}

func (s *Store) UpdateType(ctx context.Context, activeGraphID, nodeID, typeID string) error {
	update := expression.Set(expression.Name("TypeID"), expression.Value(typeID))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return apperrors.NewInternal("failed to build update-type expression", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(activeGraphID, nodeID)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return apperrors.NewService("update-type failed for "+nodeID, err, false)
	}
	return nil
}

func (s *Store) DeleteNode(ctx context.Context, activeGraphID, nodeID string) error {
	keyEx := expression.Key("PK").Equal(expression.Value(nodePK(activeGraphID, nodeID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return apperrors.NewInternal("failed to build delete-node expression", err)
	}
	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName: aws.String(s.tableName), KeyConditionExpression: expr.KeyCondition(),
		ExpressionAttributeNames: expr.Names(), ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return apperrors.NewService("delete-node query failed", err, false)
	}
	if len(resp.Items) == 0 {
		return apperrors.NewNotFound("delete-node: " + nodeID + " not found")
	}
	for _, item := range resp.Items {
		sk, _ := item["SK"].(*types.AttributeValueMemberS)
		if sk == nil {
			continue
		}
		if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: nodePK(activeGraphID, nodeID)},
				"SK": &types.AttributeValueMemberS{Value: sk.Value},
			},
		}); err != nil {
			return apperrors.NewService("delete-node item delete failed", err, true)
		}
	}
	return nil
}

// DeleteEdge removes the edge edgeID via its ref item, a single GetItem
// locating the source PK and edge SK before the two deletes.
func (s *Store) DeleteEdge(ctx context.Context, activeGraphID, edgeID string) error {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: edgeRefPK(activeGraphID, edgeID)},
			"SK": &types.AttributeValueMemberS{Value: edgeRefSK},
		},
	})
	if err != nil {
		return apperrors.NewService("delete-edge ref lookup failed", err, false)
	}
	if resp.Item == nil {
		return apperrors.NewNotFound("delete-edge: " + edgeID + " not found")
	}
	var ref edgeRefItem
	if err := attributevalue.UnmarshalMap(resp.Item, &ref); err != nil {
		return apperrors.NewInternal("failed to unmarshal edge ref", err)
	}

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(activeGraphID, ref.SourceID)},
			"SK": &types.AttributeValueMemberS{Value: ref.EdgeSK},
		},
	}); err != nil {
		return apperrors.NewService("delete-edge item delete failed", err, false)
	}

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: edgeRefPK(activeGraphID, edgeID)},
			"SK": &types.AttributeValueMemberS{Value: edgeRefSK},
		},
	}); err != nil {
		s.logger.Warn("failed to delete edge ref after edge delete", zap.String("edge", edgeID), zap.Error(err))
	}

	return nil
}
