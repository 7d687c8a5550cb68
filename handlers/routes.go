package handlers

import (
	"tournament-wallet-service/middleware"
	"tournament-wallet-service/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Wallet      *services.WalletService
	Kyc         *services.KycService
	Tournaments *services.TournamentService
	Matches     *services.MatchService
	Users       middleware.UserResolver
	Directory   *services.UserService
}

// SetupRoutes mounts every route. Gateway auth and user context must already be installed on app.
func SetupRoutes(app *fiber.App, s Services) {
	requireUser := middleware.RequireUser(s.Users)

	SetupAdminRoutes(app, &AdminHandler{
		Wallet:      s.Wallet,
		Kyc:         s.Kyc,
		Tournaments: s.Tournaments,
		Matches:     s.Matches,
		Users:       s.Directory,
	})
	SetupWalletRoutes(app, s.Wallet, requireUser)
	SetupKycRoutes(app, s.Kyc, requireUser)
	SetupTournamentRoutes(app, s.Tournaments, requireUser)
	SetupMatchRoutes(app, s.Matches, requireUser)
}
