package store

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IsDeleted checks if an item has an expired TTL (is marked for deletion).
func IsDeleted(item map[string]types.AttributeValue, ttlAttribute string) bool {
	ttlAttr, exists := item[ttlAttribute]
	if !exists {
		return false // No TTL = active
	}
	ttlNum, ok := ttlAttr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(ttlNum.Value, 10, 64)
	if err != nil {
		return false
	}
	return ttl <= time.Now().Unix()
}

// TTLFilter returns a condition that excludes deleted items. Use it when
// building custom queries that need TTL filtering.
func TTLFilter(ttlAttribute string, now time.Time) expression.ConditionBuilder {
	name := expression.Name(ttlAttribute)
	return expression.AttributeNotExists(name).Or(name.GreaterThan(expression.Value(now.Unix())))
}
