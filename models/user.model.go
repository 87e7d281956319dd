package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a customer account. ShoppingCart mirrors the cart lines as
// a denormalized list of product ids; OrderHistory is append-only and updated
// in the same transaction that creates order rows.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string               `bson:"name" json:"name"`
	Email          string               `bson:"email" json:"email"`
	Password       string               `bson:"password,omitempty" json:"-"`
	Avatar         string               `bson:"avatar" json:"avatar"`
	Mobile         int64                `bson:"mobile,omitempty" json:"mobile,omitempty"`
	VerifyEmail    bool                 `bson:"verify_email" json:"verify_email"`
	LastLoginDate  time.Time            `bson:"last_login_date,omitempty" json:"last_login_date,omitempty"`
	Status         string               `bson:"status" json:"status"` // Active, Inactive, Suspended
	AddressDetails []primitive.ObjectID `bson:"address_details" json:"address_details"`
	ShoppingCart   []primitive.ObjectID `bson:"shopping_cart" json:"shopping_cart"`
	OrderHistory   []primitive.ObjectID `bson:"order_history" json:"order_history"`
	Role           string               `bson:"role" json:"role"` // USER or ADMIN
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}
