package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbasket/models"
)

// CartController handles cart-related requests. Each cart line is its own
// document; User.shopping_cart mirrors the product ids as a denormalized
// secondary index and is kept in sync on every mutation.
type CartController struct {
	CartCollection *mongo.Collection
	UserCollection *mongo.Collection
}

// NewCartController creates a new CartController
func NewCartController(client *mongo.Client, database string) *CartController {
	db := client.Database(database)
	return &CartController{
		CartCollection: db.Collection("cartproducts"),
		UserCollection: db.Collection("users"),
	}
}

// AddToCart creates a cart line for the product with quantity 1. A second
// add of the same product is rejected; quantity changes go through
// UpdateCartItem.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authorized, Please Login first.")
		return
	}

	productIDHex := mux.Vars(r)["productId"]
	if productIDHex == "" {
		writeError(w, http.StatusBadRequest, "ProductId is missing")
		return
	}
	productID, err := primitive.ObjectIDFromHex(productIDHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := cc.CartCollection.CountDocuments(ctx, bson.M{"userId": userID, "productId": productID})
	if err != nil {
		log.Printf("Error occurred while add item in cart: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if count > 0 {
		writeError(w, http.StatusBadRequest, "Item already in cart")
		return
	}

	now := time.Now()
	cartItem := models.CartProduct{
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := cc.CartCollection.InsertOne(ctx, cartItem)
	if err != nil {
		log.Printf("Error occurred while add item in cart: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	cartItem.ID, _ = result.InsertedID.(primitive.ObjectID)

	// $addToSet keeps the denormalized list duplicate-free.
	_, err = cc.UserCollection.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"shopping_cart": productID},
	})
	if err != nil {
		log.Printf("Error occurred while updating shopping cart: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeSuccess(w, http.StatusOK, "Item add successfully", cartItem)
}

// FetchCartItems returns the user's cart lines with products resolved.
func (cc *CartController) FetchCartItems(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authorized, Please Login first.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "productId",
			"foreignField": "_id",
			"as":           "productId",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$productId"}}},
	}

	cursor, err := cc.CartCollection.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("Error occurred while fetching items from cart: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer cursor.Close(ctx)

	var items []models.CartItemView
	if err := cursor.All(ctx, &items); err != nil {
		log.Printf("Error decoding cart items: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if len(items) == 0 {
		writeSuccess(w, http.StatusOK, "Your cart is empty.", []models.CartItemView{})
		return
	}

	writeSuccess(w, http.StatusOK, "Cart items fetched successfully.", items)
}

// UpdateCartItem sets the quantity of an existing cart line.
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authorized, Please Login first.")
		return
	}

	itemIDHex := mux.Vars(r)["itemId"]
	productID, err := primitive.ObjectIDFromHex(itemIDHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var body struct {
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Quantity == 0 {
		writeError(w, http.StatusBadRequest, "Item ID and quantity are required")
		return
	}
	if body.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := cc.CartCollection.FindOneAndUpdate(ctx,
		bson.M{"productId": productID, "userId": userID},
		bson.M{"$set": bson.M{"quantity": body.Quantity, "updatedAt": time.Now()}},
	)
	if result.Err() != nil {
		writeError(w, http.StatusNotFound, "Cart item not found")
		return
	}

	writeSuccess(w, http.StatusOK, "Cart item updated successfully", bson.M{"quantity": body.Quantity})
}

// DeleteCartItem removes a cart line and pulls the product out of the
// user's denormalized shopping_cart list.
func (cc *CartController) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authorized, Please Login first.")
		return
	}

	itemIDHex := mux.Vars(r)["itemId"]
	productID, err := primitive.ObjectIDFromHex(itemIDHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cart item ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var deleted models.CartProduct
	err = cc.CartCollection.FindOneAndDelete(ctx, bson.M{"productId": productID, "userId": userID}).Decode(&deleted)
	if err != nil {
		writeError(w, http.StatusNotFound, "Cart item not found")
		return
	}

	_, err = cc.UserCollection.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"shopping_cart": deleted.ProductID},
	})
	if err != nil {
		log.Printf("Error occurred while updating shopping cart: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeSuccess(w, http.StatusOK, "Item removed from cart", deleted)
}
