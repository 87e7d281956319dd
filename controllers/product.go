package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbasket/models"
)

// ProductController handles product-related requests
type ProductController struct {
	Collection *mongo.Collection
}

// NewProductController creates a new ProductController
func NewProductController(client *mongo.Client, database string) *ProductController {
	return &ProductController{
		Collection: client.Database(database).Collection("products"),
	}
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := pc.Collection.InsertOne(ctx, product)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating product")
		return
	}
	product.ID, _ = result.InsertedID.(primitive.ObjectID)

	writeSuccess(w, http.StatusCreated, "Product created successfully", product)
}

// GetProducts retrieves all published products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor, err := pc.Collection.Find(ctx, bson.M{"publish": true})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		writeError(w, http.StatusInternalServerError, "Error reading products")
		return
	}

	writeSuccess(w, http.StatusOK, "Products fetched successfully", products)
}

// GetProductByID retrieves a single product
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.Collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	writeSuccess(w, http.StatusOK, "Product fetched successfully", product)
}

// UpdateProduct updates a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var updates bson.M
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	delete(updates, "_id")
	updates["updatedAt"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := pc.Collection.UpdateByID(ctx, productID, bson.M{"$set": updates})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating product")
		return
	}
	if result.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	writeSuccess(w, http.StatusOK, "Product updated successfully", nil)
}

// DeleteProduct removes a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := pc.Collection.DeleteOne(ctx, bson.M{"_id": productID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error deleting product")
		return
	}
	if result.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	writeSuccess(w, http.StatusOK, "Product deleted successfully", nil)
}
