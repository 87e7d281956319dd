package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is the live catalog entry. Orders never reference it directly;
// they carry a ProductDetails snapshot taken at commit time.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Image       []string           `bson:"image" json:"image"`
	Unit        string             `bson:"unit" json:"unit"`
	Stock       int64              `bson:"stock" json:"stock"`
	Price       float64            `bson:"price" json:"price"`
	Discount    float64            `bson:"discount" json:"discount"` // percent, 0-100
	Description string             `bson:"description" json:"description"`
	Publish     bool               `bson:"publish" json:"publish"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
