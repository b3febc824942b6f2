package stream

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/entitymanager/manager"
)

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}

// ConvertImage converts a DynamoDB stream image to an item. Integral
// numbers become int64 and other numbers float64.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) (manager.Item, error) {
	item := make(manager.Item, len(image))
	for k, v := range image {
		value, err := convertValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = value
	}
	return item, nil
}

func convertValue(v events.DynamoDBAttributeValue) (any, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return v.String(), nil
	case events.DataTypeNumber:
		return parseNumber(v.Number())
	case events.DataTypeBoolean:
		return v.Boolean(), nil
	case events.DataTypeNull:
		return nil, nil
	case events.DataTypeBinary:
		return v.Binary(), nil
	case events.DataTypeStringSet:
		return v.StringSet(), nil
	case events.DataTypeNumberSet:
		return v.NumberSet(), nil
	case events.DataTypeBinarySet:
		return v.BinarySet(), nil
	case events.DataTypeList:
		list := make([]any, 0, len(v.List()))
		for _, elem := range v.List() {
			value, err := convertValue(elem)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case events.DataTypeMap:
		m := make(map[string]any, len(v.Map()))
		for k, elem := range v.Map() {
			value, err := convertValue(elem)
			if err != nil {
				return nil, err
			}
			m[k] = value
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported data type %v", v.DataType())
	}
}

func parseNumber(s string) (any, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
