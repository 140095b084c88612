/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package archive

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/implindex/datastore/keymap"
	"github.com/suparena/implindex/models"
)

const (
	// EntityType is the EntityType attribute value of archived records.
	EntityType = "ImplementorRecord"

	// CapabilityIndex is the secondary index that groups records by capability.
	CapabilityIndex = "GSI1"

	capabilityPrefix = "CAP#"
)

// IndexMap is the key layout of archived records.
var IndexMap = map[string]string{
	"PK":     "REC#{ID}",
	"SK":     "REC#{ID}",
	"GSI1PK": capabilityPrefix + "{Capability}",
	"GSI1SK": "{Order}",
}

func init() {
	keymap.RegisterIndexMap[models.ImplementorRecord](IndexMap)
	keymap.RegisterType(EntityType, func(item map[string]types.AttributeValue) (interface{}, error) {
		var rec models.ImplementorRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	})
}

// CapabilityPartition is the GSI1PK value shared by all records of capability.
func CapabilityPartition(capability string) string {
	return capabilityPrefix + capability
}

// CapabilityQuery selects every archived record of capability, in delivery order.
func CapabilityQuery(capability string) *models.QueryParams {
	return &models.QueryParams{
		IndexName:              aws.String(CapabilityIndex),
		KeyConditionExpression: "GSI1PK = :pk",
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: CapabilityPartition(capability)},
		},
		ScanIndexForward: aws.Bool(true),
	}
}

// MatchesCapability reports whether rec is selected by params built with
// CapabilityQuery. In-memory stores use it as their query filter.
func MatchesCapability(params *models.QueryParams, rec models.ImplementorRecord) bool {
	if params == nil {
		return true
	}
	pk, ok := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	return pk.Value == CapabilityPartition(rec.Capability)
}
