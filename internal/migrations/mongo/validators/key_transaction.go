package validators

import "go.mongodb.org/mongo-driver/bson"

var KeyTransactionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"key_id",
			"booking_id",
			"resource_id",
			"checked_out_at",
			"expected_return_at",
			"status",
		},
		"additionalProperties": true,
		"properties": bson.M{
			"key_id":             bson.M{"bsonType": "string", "minLength": 1},
			"booking_id":         bson.M{"bsonType": "string"},
			"resource_id":        bson.M{"bsonType": "string"},
			"checked_out_at":     bson.M{"bsonType": "date"},
			"expected_return_at": bson.M{"bsonType": "date"},
			"checked_in_at":      bson.M{"bsonType": "date"},
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"checked_out", "returned", "overdue"},
			},
		},
	},
}
