package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilityConfigValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"version", "slot_duration_minutes", "opening_hours"},
		"properties": bson.M{
			"version": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},
			"slot_duration_minutes": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  1440,
			},
			"opening_hours": bson.M{
				"bsonType": "object",
			},
		},
	},
}

var LockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"owner", "expires_at"},
		"properties": bson.M{
			"owner": bson.M{
				"bsonType": "string",
			},
			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
