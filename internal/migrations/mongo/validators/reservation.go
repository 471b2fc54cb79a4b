package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = bson.A{"int", "long"}

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"status",
			"start_at",
			"end_at",
			"timezone",
			"duration_hours",
			"source",
			"client_name",
			"client_email",
			"created_by",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"status": bson.M{
				"enum": []string{"pending", "confirmed", "completed", "cancelled"},
			},

			"start_at": bson.M{
				"bsonType": "date",
			},

			"end_at": bson.M{
				"bsonType": "date",
			},

			"timezone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"duration_hours": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"confirmation_id": bson.M{
				"bsonType": "string",
				"pattern":  `^[A-Z0-9]{1,10}-[0-9]{4}-[0-9]+$`,
			},

			"confirmation_year": bson.M{
				"bsonType": integer,
			},

			"confirmation_seq": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"confirmed_at": bson.M{
				"bsonType": "date",
			},

			"source": bson.M{
				"enum": []string{"client", "admin"},
			},

			"client_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"client_email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},

			"client_phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9][0-9]{7,14}$`,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"created_by": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
