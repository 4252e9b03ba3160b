package validators

import "go.mongodb.org/mongo-driver/bson"

var ProfessionalValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"role",
			"availability",
			"schedule",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"role": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			// Keys are YYYY-MM-DD dates; a null value is an explicit
			// day off.
			"availability": bson.M{
				"bsonType": "object",
				"patternProperties": bson.M{
					`^\d{4}-\d{2}-\d{2}$`: bson.M{
						"bsonType": []string{"object", "null"},
						"properties": bson.M{
							"start": bson.M{"bsonType": "string"},
							"end":   bson.M{"bsonType": "string"},
							"lunch_break": bson.M{
								"bsonType": []string{"object", "null"},
								"properties": bson.M{
									"start": bson.M{"bsonType": "string"},
									"end":   bson.M{"bsonType": "string"},
								},
							},
						},
					},
				},
			},

			"schedule": bson.M{
				"bsonType": "object",
				"patternProperties": bson.M{
					`^\d{4}-\d{2}-\d{2}$`: bson.M{
						"bsonType": "array",
						"items": bson.M{
							"bsonType": "object",
							"required": []string{"time"},
							"properties": bson.M{
								"time":    bson.M{"bsonType": "string"},
								"patient": bson.M{"bsonType": "string"},
							},
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var SlotLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"expires_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
