package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a delivery address. Addresses are never hard-deleted: delete
// flips Status to false and every read filters on Status=true afterwards.
type Address struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	AddressLine string             `bson:"address_line" json:"address_line"`
	City        string             `bson:"city" json:"city"`
	State       string             `bson:"state" json:"state"`
	Pincode     string             `bson:"pincode" json:"pincode"`
	Country     string             `bson:"country" json:"country"`
	Mobile      int64              `bson:"mobile" json:"mobile"`
	Status      bool               `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AddressRequest is the create/update payload. Pincode and mobile arrive as
// strings so their digit counts can be validated before conversion.
type AddressRequest struct {
	AddressLine string `json:"address_line" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	Pincode     string `json:"pincode" validate:"required,len=6,numeric"`
	Country     string `json:"country" validate:"required"`
	Mobile      string `json:"mobile" validate:"required,len=10,numeric"`
}
