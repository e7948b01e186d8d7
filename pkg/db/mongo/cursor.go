package mongo

import (
	"reservo/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

// AfterCursor restricts a (field, _id) ordered scan to rows strictly after c.
// It returns nil for the zero cursor.
func AfterCursor(field string, c model.SweepCursor) bson.M {
	if c.IsZero() {
		return nil
	}
	return bson.M{"$or": bson.A{
		bson.M{field: bson.M{"$gt": c.At}},
		bson.M{field: c.At, "_id": bson.M{"$gt": c.ID}},
	}}
}

// SweepSort orders rows the way AfterCursor pages through them.
func SweepSort(field string) bson.D {
	return bson.D{{Key: field, Value: 1}, {Key: "_id", Value: 1}}
}
