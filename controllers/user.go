package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"quickbasket/models"
	"quickbasket/utils"
)

// UserController handles user-related requests
type UserController struct {
	Collection *mongo.Collection
}

// NewUserController creates a new UserController
func NewUserController(client *mongo.Client, database string) *UserController {
	return &UserController{
		Collection: client.Database(database).Collection("users"),
	}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := uc.Collection.CountDocuments(ctx, bson.M{"email": body.Email})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if count > 0 {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	now := time.Now()
	user := models.User{
		Name:           body.Name,
		Email:          body.Email,
		Password:       string(hashedPassword),
		Status:         "Active",
		Role:           "USER",
		AddressDetails: []primitive.ObjectID{},
		ShoppingCart:   []primitive.ObjectID{},
		OrderHistory:   []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, err := uc.Collection.InsertOne(ctx, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating user")
		return
	}
	user.ID, _ = result.InsertedID.(primitive.ObjectID)
	user.Password = ""

	writeSuccess(w, http.StatusCreated, "User registered successfully", user)
}

// Login authenticates a user and returns a JWT.
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := uc.Collection.FindOne(ctx, bson.M{"email": body.Email}).Decode(&user); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	_, _ = uc.Collection.UpdateByID(ctx, user.ID, bson.M{
		"$set": bson.M{"last_login_date": time.Now()},
	})

	writeSuccess(w, http.StatusOK, "Login successful", bson.M{"token": token})
}

// GetProfile returns the authenticated user's account.
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not authorized, Please Login first.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := uc.Collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	user.Password = ""

	writeSuccess(w, http.StatusOK, "Profile fetched successfully", user)
}
