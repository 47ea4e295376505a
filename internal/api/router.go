package api

import (
	"database/sql"
	"net/http"

	"github.com/alaf-team/alaf/internal/mail"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, mailer mail.Mailer) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, Mailer: mailer}
	itemsHandler := &ItemsHandler{DB: db}
	claimsHandler := &ClaimsHandler{DB: db}
	adminHandler := &AdminHandler{DB: db}
	placesHandler := &PlacesHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	optionalAuthMW := OptionalAuthMiddleware(jwtSecret, db)

	// Signup and login (public).
	mux.HandleFunc("POST /api/auth/send-code", authHandler.SendCode)
	mux.HandleFunc("POST /api/auth/verify-code", authHandler.VerifyCode)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Items: browsing is public; registration is open but records the
	// reporter when a token is present.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.Handle("GET /api/items/mine", authMW(http.HandlerFunc(itemsHandler.Mine)))
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/image", itemsHandler.GetImage)
	mux.Handle("POST /api/items", optionalAuthMW(http.HandlerFunc(itemsHandler.Create)))

	// Places (public).
	mux.HandleFunc("GET /api/places", placesHandler.List)

	// Recovery requests (authenticated).
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(claimsHandler.Create)))
	mux.Handle("GET /api/requests/mine", authMW(http.HandlerFunc(claimsHandler.Mine)))

	// Adjudication (admin only).
	mux.Handle("GET /api/admin/requests", authMW(RequireAdmin(http.HandlerFunc(adminHandler.List))))
	mux.Handle("GET /api/admin/requests/{id}/image", authMW(RequireAdmin(http.HandlerFunc(adminHandler.ProofImage))))
	mux.Handle("POST /api/admin/requests/{id}/process", authMW(RequireAdmin(http.HandlerFunc(adminHandler.Process))))

	return mux
}
