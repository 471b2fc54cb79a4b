package validators

import "go.mongodb.org/mongo-driver/bson"

var HistoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"reservation_id", "old_status", "new_status", "changed_by", "changed_at"},
		"properties": bson.M{
			"reservation_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"old_status": bson.M{
				"enum": []string{"", "pending", "confirmed", "completed", "cancelled"},
			},
			"new_status": bson.M{
				"enum": []string{"pending", "confirmed", "completed", "cancelled"},
			},
			"changed_by": bson.M{
				"bsonType": "string",
			},
			"changed_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
