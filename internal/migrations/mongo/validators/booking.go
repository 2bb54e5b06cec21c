package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = []string{"int", "long"}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"listing_id",
			"customer_id",
			"owner_id",
			"check_in",
			"check_out",
			"guests",
			"nights",
			"price",
			"currency",
			"status",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"listing_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"check_in": bson.M{
				"bsonType": "date",
			},

			"check_out": bson.M{
				"bsonType": "date",
			},

			"guests": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  50,
			},

			"nights": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"price": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"paid",
					"confirmed",
					"canceled",
					"expired",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"not_paid",
					"processing",
					"paid",
					"failed",
				},
			},

			"external_order_id": bson.M{
				"bsonType": "string",
			},

			"external_payment_id": bson.M{
				"bsonType": "string",
			},

			"external_signature": bson.M{
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
