package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus tracks the settlement state of a single order row.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PaymentType distinguishes the two checkout paths.
type PaymentType string

const (
	PaymentTypeCOD    PaymentType = "COD"
	PaymentTypeOnline PaymentType = "ONLINE"
)

// ProductDetails is the snapshot of the product copied onto an order row at
// commit time. It is an embedded value, never a reference: editing or deleting
// the live product must not change what a historical order shows.
type ProductDetails struct {
	Name  string   `bson:"name" json:"name"`
	Image []string `bson:"image" json:"image"`
}

// Order is one product line of a checkout. A checkout with three cart lines
// produces three Order documents, each with its own generated OrderID.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	OrderID         string             `bson:"orderId" json:"orderId"`
	ProductID       primitive.ObjectID `bson:"productId" json:"productId"`
	ProductDetails  ProductDetails     `bson:"product_details" json:"product_details"`
	PaymentID       string             `bson:"paymentId" json:"paymentId"`
	PaymentStatus   PaymentStatus      `bson:"payment_status" json:"payment_status"`
	PaymentType     PaymentType        `bson:"payment_type" json:"payment_type"`
	DeliveryAddress primitive.ObjectID `bson:"delivery_address" json:"delivery_address"`
	Quantity        int64              `bson:"quantity,omitempty" json:"quantity,omitempty"`
	SubTotalAmt     float64            `bson:"subTotalAmt" json:"subTotalAmt"`
	TotalAmt        float64            `bson:"totalAmt" json:"totalAmt"`
	// Receipt token, generated only for online payments.
	InvoiceReceipt string    `bson:"invoice_receipt" json:"invoice_receipt"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}
