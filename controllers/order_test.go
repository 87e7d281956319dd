package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v81"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbasket/models"
)

func TestValidateCheckoutRequest(t *testing.T) {
	userID := primitive.NewObjectID().Hex()
	validItems := []CheckoutItem{{Product: CheckoutItemProduct{ID: primitive.NewObjectID()}, Quantity: 1}}

	tests := []struct {
		name    string
		userID  string
		req     CheckoutRequest
		wantErr error
	}{
		{
			name:    "missing user",
			userID:  "",
			req:     CheckoutRequest{Items: validItems, TotalAmt: 400, SubTotalAmt: 500, AddressID: "a"},
			wantErr: errNotAuthenticated,
		},
		{
			name:    "empty items",
			userID:  userID,
			req:     CheckoutRequest{TotalAmt: 400, SubTotalAmt: 500, AddressID: "a"},
			wantErr: errEmptyItems,
		},
		{
			name:    "missing totalAmt",
			userID:  userID,
			req:     CheckoutRequest{Items: validItems, SubTotalAmt: 500, AddressID: "a"},
			wantErr: errMissingFields,
		},
		{
			name:    "missing subTotalAmt",
			userID:  userID,
			req:     CheckoutRequest{Items: validItems, TotalAmt: 400, AddressID: "a"},
			wantErr: errMissingFields,
		},
		{
			name:    "missing addressId",
			userID:  userID,
			req:     CheckoutRequest{Items: validItems, TotalAmt: 400, SubTotalAmt: 500},
			wantErr: errMissingFields,
		},
		{
			name:    "valid",
			userID:  userID,
			req:     CheckoutRequest{Items: validItems, TotalAmt: 400, SubTotalAmt: 500, AddressID: "a"},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCheckoutRequest(tt.userID, &tt.req)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestBuildCODOrderPayload(t *testing.T) {
	userID := primitive.NewObjectID()
	addressID := primitive.NewObjectID()
	productA := primitive.NewObjectID()
	productB := primitive.NewObjectID()

	req := CheckoutRequest{
		Items: []CheckoutItem{
			{Product: CheckoutItemProduct{ID: productA, Name: "Milk", Image: []string{"milk.jpg"}, Price: 100, Discount: 10}, Quantity: 2},
			{Product: CheckoutItemProduct{ID: productB, Name: "Bread", Image: []string{"bread.jpg"}, Price: 50}, Quantity: 1},
		},
		TotalAmt:    230,
		SubTotalAmt: 250,
		AddressID:   addressID.Hex(),
	}

	orders := buildCODOrderPayload(userID, addressID, &req)

	assert.Len(t, orders, 2)
	for _, order := range orders {
		assert.Equal(t, userID, order.UserID)
		assert.Equal(t, addressID, order.DeliveryAddress)
		assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
		assert.Equal(t, models.PaymentTypeCOD, order.PaymentType)
		assert.Empty(t, order.PaymentID)
		// The request-level totals are stamped on every row.
		assert.Equal(t, 230.0, order.TotalAmt)
		assert.Equal(t, 250.0, order.SubTotalAmt)
		assert.Regexp(t, `^ORD-[0-9a-f]{24}$`, order.OrderID)
		assert.WithinDuration(t, time.Now(), order.CreatedAt, time.Minute)
	}

	// Snapshot fields are copied from the submitted product, not referenced.
	assert.Equal(t, "Milk", orders[0].ProductDetails.Name)
	assert.Equal(t, []string{"milk.jpg"}, orders[0].ProductDetails.Image)
	assert.Equal(t, productA, orders[0].ProductID)
	assert.Equal(t, "Bread", orders[1].ProductDetails.Name)

	// Each row gets its own orderId, satisfying the unique index.
	assert.NotEqual(t, orders[0].OrderID, orders[1].OrderID)
}

func TestGenerateOrderIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := generateOrderID()
		assert.Regexp(t, `^ORD-[0-9a-f]{24}$`, id)
		assert.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true
	}
}

func TestBuildOrdersFromCheckout(t *testing.T) {
	userID := primitive.NewObjectID()
	addressID := primitive.NewObjectID()
	productA := primitive.NewObjectID()
	productB := primitive.NewObjectID()

	session := &stripe.CheckoutSession{
		ID:             "cs_test_123",
		PaymentStatus:  stripe.CheckoutSessionPaymentStatusPaid,
		AmountSubtotal: 25000,
		AmountTotal:    23000,
		PaymentIntent:  &stripe.PaymentIntent{ID: "pi_test_456"},
		Metadata: map[string]string{
			"userId":    userID.Hex(),
			"addressId": addressID.Hex(),
		},
	}

	lineItems := []*stripe.LineItem{
		{
			ID:          "li_1",
			Description: "Milk",
			Quantity:    2,
			Price: &stripe.Price{Product: &stripe.Product{
				Name:     "Milk 1L",
				Images:   []string{"milk.jpg", "milk2.jpg"},
				Metadata: map[string]string{"productId": productA.Hex()},
			}},
		},
		{
			ID:       "li_2",
			Quantity: 1,
			Price: &stripe.Price{Product: &stripe.Product{
				Name:     "Bread",
				Metadata: map[string]string{"productId": productB.Hex()},
			}},
		},
	}

	orders, err := buildOrdersFromCheckout(session, lineItems)

	assert.NoError(t, err)
	assert.Len(t, orders, 2)

	for _, order := range orders {
		assert.Equal(t, userID, order.UserID)
		assert.Equal(t, addressID, order.DeliveryAddress)
		assert.Equal(t, models.PaymentTypeOnline, order.PaymentType)
		assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
		assert.Equal(t, "pi_test_456", order.PaymentID)
		// Amounts come from the gateway's session, in major units.
		assert.Equal(t, 250.0, order.SubTotalAmt)
		assert.Equal(t, 230.0, order.TotalAmt)
		assert.NotEmpty(t, order.InvoiceReceipt)
	}

	// Line item description wins over the product name; first image only.
	assert.Equal(t, "Milk", orders[0].ProductDetails.Name)
	assert.Equal(t, []string{"milk.jpg"}, orders[0].ProductDetails.Image)
	assert.Equal(t, productA, orders[0].ProductID)
	assert.Equal(t, int64(2), orders[0].Quantity)

	// Missing description falls back to the product name.
	assert.Equal(t, "Bread", orders[1].ProductDetails.Name)
	assert.Empty(t, orders[1].ProductDetails.Image)

	assert.NotEqual(t, orders[0].OrderID, orders[1].OrderID)
}

func TestBuildOrdersFromCheckoutInvalidProduct(t *testing.T) {
	session := &stripe.CheckoutSession{
		ID:            "cs_test_123",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: map[string]string{
			"userId":    primitive.NewObjectID().Hex(),
			"addressId": primitive.NewObjectID().Hex(),
		},
	}

	// Line item without an expanded product is a malformed event.
	_, err := buildOrdersFromCheckout(session, []*stripe.LineItem{{ID: "li_1", Quantity: 1}})
	assert.Error(t, err)

	// Product metadata without a productId cannot be reconciled.
	_, err = buildOrdersFromCheckout(session, []*stripe.LineItem{{
		ID:       "li_2",
		Quantity: 1,
		Price:    &stripe.Price{Product: &stripe.Product{Metadata: map[string]string{}}},
	}})
	assert.Error(t, err)
}

func TestBuildOrdersFromCheckoutBadMetadata(t *testing.T) {
	session := &stripe.CheckoutSession{
		ID:            "cs_test_123",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"userId": "not-an-object-id", "addressId": primitive.NewObjectID().Hex()},
	}

	_, err := buildOrdersFromCheckout(session, []*stripe.LineItem{})
	assert.Error(t, err)
}
