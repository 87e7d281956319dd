package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartProduct is one cart line. A user has at most one line per product;
// duplicate adds are rejected by the controller, not by a DB constraint.
type CartProduct struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int64              `bson:"quantity" json:"quantity"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CartItemView is a cart line with its product resolved, as returned by the
// fetch endpoint and consumed by the checkout request body.
type CartItemView struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Product   Product            `bson:"productId" json:"productId"`
	Quantity  int64              `bson:"quantity" json:"quantity"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
