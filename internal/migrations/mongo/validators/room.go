package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"number",
			"type",
			"capacity",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 10,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"single",
					"double",
					"suite",
					"deluxe",
					"presidential",
				},
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  20,
			},

			"floor": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  200,
			},

			"amenities": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType":  "string",
					"maxLength": 50,
				},
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"available",
					"maintenance",
					"inactive",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
