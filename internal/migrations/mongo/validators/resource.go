package validators

import "go.mongodb.org/mongo-driver/bson"

var ResourceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "category", "capacity", "status"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "string", "maxLength": 64},
			"name":     bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"category": bson.M{"bsonType": "string", "minLength": 2, "maxLength": 50},
			"capacity": bson.M{"bsonType": []string{"int", "long"}, "minimum": 1, "maximum": 1000},
			"status":   bson.M{"bsonType": "string", "enum": []string{"available", "unavailable"}},
			"key_id":   bson.M{"bsonType": "string", "maxLength": 64},
			"requires_special_approval": bson.M{
				"bsonType": "bool",
			},
		},
	},
}

var ResourceIssueValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"resource_id", "classification", "status", "reported_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"resource_id": bson.M{"bsonType": "string"},
			"classification": bson.M{
				"bsonType": "string",
				"enum":     []string{"maintenance", "out_of_order", "safety", "cosmetic", "other"},
			},
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"reported", "in_progress", "resolved", "wont_fix"},
			},
			"reported_at":  bson.M{"bsonType": "date"},
			"blocks_from":  bson.M{"bsonType": "date"},
			"blocks_until": bson.M{"bsonType": "date"},
		},
	},
}

var TimetableEntryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"resource_id", "weekday", "start_of_day", "end_of_day", "time_zone"},
		"additionalProperties": true,
		"properties": bson.M{
			"resource_id": bson.M{"bsonType": "string"},
			"weekday": bson.M{
				"bsonType": "string",
				"enum":     []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
			},
			"start_of_day": bson.M{"bsonType": "string", "pattern": `^([01]\d|2[0-3]):[0-5]\d$`},
			"end_of_day":   bson.M{"bsonType": "string", "pattern": `^([01]\d|2[0-3]):[0-5]\d$`},
			"time_zone":    bson.M{"bsonType": "string"},
		},
	},
}
