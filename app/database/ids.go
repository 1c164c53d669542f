package database

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Records use 24-character hex object ids regardless of the backend, so
// ids validate the same way everywhere.

func NewID() string {
	return primitive.NewObjectID().Hex()
}

func ParseID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id)
}

func ValidID(id string) bool {
	_, err := ParseID(id)
	return err == nil
}
