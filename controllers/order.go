package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbasket/models"
	"quickbasket/pkg/rabbitmq"
	"quickbasket/utils"
)

// maxWebhookBody caps the raw webhook payload read for signature
// verification.
const maxWebhookBody = 65536

// PaymentGateway is the slice of the payment processor the order subsystem
// consumes: session creation, the gateway's own record of a session's line
// items, and webhook signature verification.
type PaymentGateway interface {
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	ListLineItems(sessionID string) ([]*stripe.LineItem, error)
	ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// OrderController handles order creation, the hosted-checkout session and the
// payment webhook. Both checkout paths converge on commitOrderBatch.
type OrderController struct {
	Client            *mongo.Client
	OrderCollection   *mongo.Collection
	CartCollection    *mongo.Collection
	UserCollection    *mongo.Collection
	AddressCollection *mongo.Collection
	Gateway           PaymentGateway
	EmailService      *utils.EmailService
	Events            *rabbitmq.Client
	FrontendURL       string

	locks *checkoutLocks
}

// NewOrderController creates a new OrderController
func NewOrderController(client *mongo.Client, database string, gateway PaymentGateway, emailService *utils.EmailService, events *rabbitmq.Client, frontendURL string) *OrderController {
	db := client.Database(database)
	return &OrderController{
		Client:            client,
		OrderCollection:   db.Collection("orders"),
		CartCollection:    db.Collection("cartproducts"),
		UserCollection:    db.Collection("users"),
		AddressCollection: db.Collection("addresses"),
		Gateway:           gateway,
		EmailService:      emailService,
		Events:            events,
		FrontendURL:       frontendURL,
		locks:             newCheckoutLocks(),
	}
}

// CheckoutItemProduct is the product snapshot the client submits with each
// cart line at checkout.
type CheckoutItemProduct struct {
	ID       primitive.ObjectID `json:"_id"`
	Name     string             `json:"name"`
	Image    []string           `json:"image"`
	Price    float64            `json:"price"`
	Discount float64            `json:"discount"`
}

// CheckoutItem is one cart line in a checkout request.
type CheckoutItem struct {
	Product  CheckoutItemProduct `json:"productId"`
	Quantity int64               `json:"quantity"`
}

// CheckoutRequest is the body of both checkout endpoints.
type CheckoutRequest struct {
	Items       []CheckoutItem `json:"items"`
	TotalAmt    float64        `json:"totalAmt"`
	SubTotalAmt float64        `json:"subTotalAmt"`
	AddressID   string         `json:"addressId"`
}

var (
	errNotAuthenticated = errors.New("User not authenticated. Please login first.")
	errEmptyItems       = errors.New("Invalid or empty items in the cart.")
	errMissingFields    = errors.New("Missing required fields: totalAmt, subTotalAmt, or addressId.")
)

// validateCheckoutRequest applies the shared preconditions of both checkout
// paths. Each failure maps to a distinct client error.
func validateCheckoutRequest(userID string, req *CheckoutRequest) error {
	if userID == "" {
		return errNotAuthenticated
	}
	if len(req.Items) == 0 {
		return errEmptyItems
	}
	if req.TotalAmt == 0 || req.SubTotalAmt == 0 || req.AddressID == "" {
		return errMissingFields
	}
	return nil
}

// generateOrderID mints the public order token. Called once per order row,
// so every row satisfies the unique index on orderId.
func generateOrderID() string {
	return "ORD-" + primitive.NewObjectID().Hex()
}

// buildCODOrderPayload turns the submitted cart lines into order rows. The
// request-level totals are stamped identically on every row; per-line
// amounts are not computed.
func buildCODOrderPayload(userID, addressID primitive.ObjectID, req *CheckoutRequest) []models.Order {
	now := time.Now()
	orders := make([]models.Order, 0, len(req.Items))
	for _, item := range req.Items {
		orders = append(orders, models.Order{
			UserID:    userID,
			OrderID:   generateOrderID(),
			ProductID: item.Product.ID,
			ProductDetails: models.ProductDetails{
				Name:  item.Product.Name,
				Image: item.Product.Image,
			},
			PaymentID:       "",
			PaymentStatus:   models.PaymentStatusPending,
			PaymentType:     models.PaymentTypeCOD,
			DeliveryAddress: addressID,
			SubTotalAmt:     req.SubTotalAmt,
			TotalAmt:        req.TotalAmt,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return orders
}

// findUserAddress loads an address only if it belongs to the user and has
// not been soft-deleted.
func (oc *OrderController) findUserAddress(ctx context.Context, addressID, userID primitive.ObjectID) (*models.Address, error) {
	var address models.Address
	err := oc.AddressCollection.FindOne(ctx, bson.M{
		"_id":    addressID,
		"userId": userID,
		"status": true,
	}).Decode(&address)
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// commitOrderBatch is the single atomic commit both checkout paths invoke:
// insert all order rows, append their ids to the user's order history, empty
// the user's denormalized cart list and delete the cart lines. All four
// writes happen in one multi-document transaction; any failure aborts the
// whole batch with no partial state visible.
func (oc *OrderController) commitOrderBatch(ctx context.Context, userID primitive.ObjectID, orders []models.Order) ([]models.Order, error) {
	if len(orders) == 0 {
		return nil, errors.New("no order rows to commit")
	}

	session, err := oc.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	docs := make([]interface{}, len(orders))
	for i := range orders {
		docs[i] = orders[i]
	}

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		insertResult, err := oc.OrderCollection.InsertMany(sc, docs)
		if err != nil {
			return nil, fmt.Errorf("failed to insert orders: %w", err)
		}

		orderIDs := make([]primitive.ObjectID, 0, len(insertResult.InsertedIDs))
		for i, id := range insertResult.InsertedIDs {
			oid, ok := id.(primitive.ObjectID)
			if !ok {
				return nil, fmt.Errorf("unexpected inserted id type %T", id)
			}
			orders[i].ID = oid
			orderIDs = append(orderIDs, oid)
		}

		update := bson.M{
			"$push": bson.M{"order_history": bson.M{"$each": orderIDs}},
			"$set":  bson.M{"shopping_cart": []primitive.ObjectID{}},
		}
		if _, err := oc.UserCollection.UpdateByID(sc, userID, update); err != nil {
			return nil, fmt.Errorf("failed to update user order history: %w", err)
		}

		if _, err := oc.CartCollection.DeleteMany(sc, bson.M{"userId": userID}); err != nil {
			return nil, fmt.Errorf("failed to clear cart: %w", err)
		}

		return orderIDs, nil
	})
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// publishOrderCreated emits the operational order.created event. Best effort:
// a broker failure never fails a committed order.
func (oc *OrderController) publishOrderCreated(orders []models.Order, source models.PaymentType) {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.OrderID)
	}
	event := rabbitmq.OrderEvent{
		Kind:     rabbitmq.EventOrderCreated,
		UserID:   orders[0].UserID.Hex(),
		OrderIDs: ids,
		Source:   string(source),
	}
	if err := oc.Events.PublishOrderEvent(event); err != nil {
		log.Printf("Failed to publish order.created event: %v", err)
	}
}

// CreateOrderCOD handles the synchronous cash-on-delivery checkout.
func (oc *OrderController) CreateOrderCOD(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errNotAuthenticated.Error())
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateCheckoutRequest(claims.UserID, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	addressID, err := primitive.ObjectIDFromHex(req.AddressID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid address ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var user models.User
	if err := oc.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	// Ownership is checked on both checkout paths, not only the online one.
	if _, err := oc.findUserAddress(ctx, addressID, userID); err != nil {
		writeError(w, http.StatusNotFound, "Address not found")
		return
	}

	unlock := oc.locks.Lock(claims.UserID)
	defer unlock()

	// Checked under the lock: a double-submitted checkout finds the cart
	// already cleared by the first commit and stops here instead of
	// writing the same orders twice.
	count, err := oc.CartCollection.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		log.Printf("Error occurred while reading cart: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if count == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	payload := buildCODOrderPayload(userID, addressID, &req)
	orders, err := oc.commitOrderBatch(ctx, userID, payload)
	if err != nil {
		log.Printf("Error occurred while creating order with COD: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	oc.publishOrderCreated(orders, models.PaymentTypeCOD)

	if oc.EmailService != nil {
		go func(email string, orders []models.Order) {
			if err := oc.EmailService.SendOrderConfirmationEmail(email, orders); err != nil {
				log.Printf("Failed to send order confirmation to %s: %v", email, err)
			}
		}(user.Email, orders)
	}

	writeSuccess(w, http.StatusCreated, "Order successfully", orders)
}

// CreateCheckoutSession builds a hosted-checkout session for online payment
// and returns the redirect handle. No order rows are created here: a session
// the user abandons must never produce a ledger entry. Orders for this path
// are created only by the webhook reconciler.
func (oc *OrderController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errNotAuthenticated.Error())
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateCheckoutRequest(claims.UserID, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	addressID, err := primitive.ObjectIDFromHex(req.AddressID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid address ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var user models.User
	if err := oc.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	address, err := oc.findUserAddress(ctx, addressID, userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Address not found")
		return
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		discounted := utils.PriceWithDiscount(item.Product.Price, item.Product.Discount)
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("inr"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:   stripe.String(item.Product.Name),
					Images: stripe.StringSlice(item.Product.Image),
					// The only way the webhook recovers which product a
					// settled line item corresponds to.
					Metadata: map[string]string{"productId": item.Product.ID.Hex()},
				},
				// Stripe expects the amount in paise.
				UnitAmount: stripe.Int64(int64(math.Round(discounted * 100))),
			},
			AdjustableQuantity: &stripe.CheckoutSessionLineItemAdjustableQuantityParams{
				Enabled: stripe.Bool(true),
				Minimum: stripe.Int64(1),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(user.Email),
		LineItems:          lineItems,
		TaxIDCollection: &stripe.CheckoutSessionTaxIDCollectionParams{
			Enabled: stripe.Bool(true),
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Shipping: &stripe.ShippingDetailsParams{
				Name: stripe.String(user.Name),
				Address: &stripe.AddressParams{
					Line1:      stripe.String(address.AddressLine),
					City:       stripe.String(address.City),
					PostalCode: stripe.String(address.Pincode),
					Country:    stripe.String(address.Country),
				},
			},
		},
		SuccessURL: stripe.String(oc.FrontendURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(oc.FrontendURL + "/cancel"),
	}
	// userId and addressId are the only identifiers that survive the gap
	// between session creation and the webhook; they must round-trip through
	// the gateway unmodified.
	params.AddMetadata("userId", claims.UserID)
	params.AddMetadata("addressId", req.AddressID)

	session, err := oc.Gateway.CreateCheckoutSession(params)
	if err != nil {
		log.Printf("Online payment error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create payment session")
		return
	}

	writeSuccess(w, http.StatusOK, "Checkout session created", session)
}

// StripeWebhook consumes asynchronous payment-gateway events. The raw body
// is captured before any parsing because signature verification needs the
// exact bytes. Once the signature passes, the endpoint always acknowledges
// with 200 so the gateway stops redelivering; reconciliation failures are
// surfaced to operators through logs and the order events queue instead.
func (oc *OrderController) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		log.Println("No Stripe signature found")
		http.Error(w, "No signature", http.StatusBadRequest)
		return
	}

	event, err := oc.Gateway.ConstructWebhookEvent(payload, sigHeader)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		http.Error(w, fmt.Sprintf("Webhook Error: %v", err), http.StatusBadRequest)
		return
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			log.Printf("Malformed checkout session payload: %v", err)
			http.Error(w, "Malformed event payload", http.StatusBadRequest)
			return
		}

		if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			log.Printf("Payment not completed. Status: %s", session.PaymentStatus)
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}

		if session.Metadata == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Metadata is missing"})
			return
		}

		if err := oc.reconcileCheckoutSession(&session); err != nil {
			log.Printf("Error processing webhook: %v", err)
			oc.publishReconcileFailed(&session, err)
			// Still acknowledge: redelivery cannot repair a failed
			// reconciliation and would risk duplicate orders.
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"received": true,
				"error":    "Payment processed, but order creation failed. Please contact support.",
			})
			return
		}

	case "checkout.session.expired":
		log.Printf("Session expired: %s", extractSessionID(event.Data.Raw))

	case "payment_intent.payment_failed":
		log.Printf("Payment failed: %s", extractSessionID(event.Data.Raw))

	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// extractSessionID pulls the object id out of an event payload for logging.
func extractSessionID(raw json.RawMessage) string {
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "<unknown>"
	}
	return obj.ID
}

// reconcileCheckoutSession turns a paid checkout session into committed
// order rows. The gateway's line items and session amounts are authoritative;
// the client's original request body plays no part here.
func (oc *OrderController) reconcileCheckoutSession(session *stripe.CheckoutSession) error {
	userIDHex := session.Metadata["userId"]
	addressIDHex := session.Metadata["addressId"]
	if userIDHex == "" || addressIDHex == "" {
		return errors.New("missing required metadata")
	}

	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return fmt.Errorf("invalid userId metadata: %w", err)
	}

	lineItems, err := oc.Gateway.ListLineItems(session.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch line items: %w", err)
	}
	if len(lineItems) == 0 {
		return errors.New("no line items found or improperly structured")
	}

	orders, err := buildOrdersFromCheckout(session, lineItems)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	unlock := oc.locks.Lock(userIDHex)
	defer unlock()

	committed, err := oc.commitOrderBatch(ctx, userID, orders)
	if err != nil {
		return fmt.Errorf("database operation failed: %w", err)
	}

	oc.publishOrderCreated(committed, models.PaymentTypeOnline)
	log.Println("Order created and cart cleared successfully")

	if oc.EmailService != nil {
		email := session.CustomerEmail
		if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
			email = session.CustomerDetails.Email
		}
		if email != "" {
			go func(email string, orders []models.Order) {
				if err := oc.EmailService.SendOrderConfirmationEmail(email, orders); err != nil {
					log.Printf("Failed to send order confirmation to %s: %v", email, err)
				}
			}(email, committed)
		}
	}

	return nil
}

// buildOrdersFromCheckout maps the gateway's settled line items to order
// rows. Amounts come from the session itself, not a local recomputation.
func buildOrdersFromCheckout(session *stripe.CheckoutSession, lineItems []*stripe.LineItem) ([]models.Order, error) {
	userID, err := primitive.ObjectIDFromHex(session.Metadata["userId"])
	if err != nil {
		return nil, fmt.Errorf("invalid userId metadata: %w", err)
	}
	addressID, err := primitive.ObjectIDFromHex(session.Metadata["addressId"])
	if err != nil {
		return nil, fmt.Errorf("invalid addressId metadata: %w", err)
	}

	paymentID := ""
	if session.PaymentIntent != nil {
		paymentID = session.PaymentIntent.ID
	}

	now := time.Now()
	orders := make([]models.Order, 0, len(lineItems))
	for _, item := range lineItems {
		if item.Price == nil || item.Price.Product == nil || item.Price.Product.Metadata == nil {
			return nil, errors.New("invalid product structure")
		}
		product := item.Price.Product

		productID, err := primitive.ObjectIDFromHex(product.Metadata["productId"])
		if err != nil {
			return nil, fmt.Errorf("invalid productId metadata on line item %s: %w", item.ID, err)
		}

		name := item.Description
		if name == "" {
			name = product.Name
		}
		var image []string
		if len(product.Images) > 0 {
			image = []string{product.Images[0]}
		}

		orders = append(orders, models.Order{
			UserID:    userID,
			OrderID:   generateOrderID(),
			ProductID: productID,
			ProductDetails: models.ProductDetails{
				Name:  name,
				Image: image,
			},
			PaymentID:       paymentID,
			PaymentStatus:   models.PaymentStatus(strings.ToUpper(string(session.PaymentStatus))),
			PaymentType:     models.PaymentTypeOnline,
			DeliveryAddress: addressID,
			Quantity:        item.Quantity,
			SubTotalAmt:     float64(session.AmountSubtotal) / 100,
			TotalAmt:        float64(session.AmountTotal) / 100,
			InvoiceReceipt:  "RCPT-" + uuid.NewString(),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return orders, nil
}

// publishReconcileFailed raises the operational alert for a paid session
// that could not be reconciled into orders.
func (oc *OrderController) publishReconcileFailed(session *stripe.CheckoutSession, cause error) {
	event := rabbitmq.OrderEvent{
		Kind:   rabbitmq.EventOrderReconcileFailed,
		UserID: session.Metadata["userId"],
		Source: string(models.PaymentTypeOnline),
		Detail: fmt.Sprintf("session %s: %v", session.ID, cause),
	}
	if err := oc.Events.PublishOrderEvent(event); err != nil {
		log.Printf("Failed to publish order.reconcile_failed event: %v", err)
	}
}

// FetchOrders returns the requesting user's orders, newest first, with the
// delivery address resolved.
func (oc *OrderController) FetchOrders(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errNotAuthenticated.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "addresses",
			"localField":   "delivery_address",
			"foreignField": "_id",
			"as":           "delivery_address",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$delivery_address",
			"preserveNullAndEmptyArrays": true,
		}}},
	}

	cursor, err := oc.OrderCollection.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("Error occurred while fetching orders: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer cursor.Close(ctx)

	var orders []bson.M
	if err := cursor.All(ctx, &orders); err != nil {
		log.Printf("Error decoding orders: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if len(orders) == 0 {
		writeError(w, http.StatusNotFound, "No orders found for this user")
		return
	}

	writeSuccess(w, http.StatusOK, "Orders fetched successfully", orders)
}
