package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickbasket/models"
)

// AddressController handles delivery-address requests. Addresses are
// soft-deleted: delete sets status=false and every read filters it out.
type AddressController struct {
	AddressCollection *mongo.Collection
	UserCollection    *mongo.Collection
	validate          *validator.Validate
}

// NewAddressController creates a new AddressController
func NewAddressController(client *mongo.Client, database string) *AddressController {
	db := client.Database(database)
	return &AddressController{
		AddressCollection: db.Collection("addresses"),
		UserCollection:    db.Collection("users"),
		validate:          validator.New(),
	}
}

func addressValidationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "All fields are required"
	}
	field := errs[0]
	switch field.Field() {
	case "Pincode":
		if field.Tag() != "required" {
			return "Pincode must be 6 digits"
		}
	case "Mobile":
		if field.Tag() != "required" {
			return "Mobile number must be a 10-digit number"
		}
	}
	return "All fields are required"
}

// CreateAddress stores a new delivery address and appends its id to the
// user's address list.
func (ac *AddressController) CreateAddress(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authenticated, please login first.")
		return
	}

	var req models.AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := ac.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, addressValidationMessage(err))
		return
	}

	mobile, err := strconv.ParseInt(req.Mobile, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Mobile number must be a 10-digit number")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := ac.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	now := time.Now()
	address := models.Address{
		UserID:      userID,
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		Pincode:     req.Pincode,
		Country:     req.Country,
		Mobile:      mobile,
		Status:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := ac.AddressCollection.InsertOne(ctx, address)
	if err != nil {
		log.Printf("Error occurred while adding address: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	address.ID, _ = result.InsertedID.(primitive.ObjectID)

	_, err = ac.UserCollection.UpdateByID(ctx, userID, bson.M{
		"$push": bson.M{"address_details": address.ID},
	})
	if err != nil {
		log.Printf("Error occurred while updating address list: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeSuccess(w, http.StatusOK, "Address created successfully", address)
}

// FetchAddresses returns the user's active addresses, newest first.
func (ac *AddressController) FetchAddresses(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authenticated, please login first.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := ac.AddressCollection.Find(ctx, bson.M{"userId": userID, "status": true}, opts)
	if err != nil {
		log.Printf("Error occurred while fetching address: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer cursor.Close(ctx)

	var addresses []models.Address
	if err := cursor.All(ctx, &addresses); err != nil {
		log.Printf("Error decoding addresses: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if len(addresses) == 0 {
		writeError(w, http.StatusNotFound, "No addresses found for this user")
		return
	}

	writeSuccess(w, http.StatusOK, "Addresses fetched successfully", addresses)
}

// UpdateAddress updates fields of an address the user owns.
func (ac *AddressController) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authorized to update the address, please login first.")
		return
	}

	addressID, err := primitive.ObjectIDFromHex(mux.Vars(r)["addressId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please provide address ID to update the address.")
		return
	}

	var req models.AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := ac.AddressCollection.CountDocuments(ctx, bson.M{"_id": addressID, "userId": userID})
	if err != nil || count == 0 {
		writeError(w, http.StatusNotFound, "Address not found or not associated with the user.")
		return
	}

	updateData := bson.M{"updatedAt": time.Now()}
	if req.AddressLine != "" {
		updateData["address_line"] = req.AddressLine
	}
	if req.City != "" {
		updateData["city"] = req.City
	}
	if req.State != "" {
		updateData["state"] = req.State
	}
	if req.Country != "" {
		updateData["country"] = req.Country
	}
	if req.Pincode != "" {
		if err := ac.validate.Var(req.Pincode, "len=6,numeric"); err != nil {
			writeError(w, http.StatusBadRequest, "Pincode must be 6 digits")
			return
		}
		updateData["pincode"] = req.Pincode
	}
	if req.Mobile != "" {
		if err := ac.validate.Var(req.Mobile, "len=10,numeric"); err != nil {
			writeError(w, http.StatusBadRequest, "Mobile number must be a 10-digit number")
			return
		}
		mobile, _ := strconv.ParseInt(req.Mobile, 10, 64)
		updateData["mobile"] = mobile
	}

	var updated models.Address
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = ac.AddressCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": addressID},
		bson.M{"$set": updateData},
		opts,
	).Decode(&updated)
	if err != nil {
		log.Printf("Error occurred while updating address: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeSuccess(w, http.StatusOK, "Address updated successfully.", updated)
}

// DeleteAddress soft-deletes an address the user owns by flipping its
// status flag. The document is never removed, so historical orders keep a
// resolvable delivery address.
func (ac *AddressController) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authenticated, please login first.")
		return
	}

	addressID, err := primitive.ObjectIDFromHex(mux.Vars(r)["addressId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please provide address ID to delete the address.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := ac.AddressCollection.UpdateOne(ctx,
		bson.M{"_id": addressID, "userId": userID, "status": true},
		bson.M{"$set": bson.M{"status": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		log.Printf("Error occurred while deleting address: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if result.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, "Address not found or not associated with the user.")
		return
	}

	writeSuccess(w, http.StatusOK, "Address deleted successfully.", nil)
}
