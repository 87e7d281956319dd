package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbasket/middleware"
	"quickbasket/utils"
)

// currentUser extracts the authenticated user's claims and ObjectID from the
// request context. ok is false when the request is unauthenticated or the
// token carries a malformed user id.
func currentUser(r *http.Request) (*utils.Claims, primitive.ObjectID, bool) {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		return nil, primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, primitive.NilObjectID, false
	}
	return claims, userID, true
}
