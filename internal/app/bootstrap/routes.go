// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	agenciesfeature "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/agencies"
	authgooglefeature "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/authgoogle"
	healthfeature "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/health"
	onboardingfeature "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/onboarding"
	sidebarfeature "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/sidebar"
	subaccountsfeature "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/subaccounts"
	teamfeature "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/team"
	agencystore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/agencies"
	invitationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/invitations"
	notificationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/notifications"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/oauthstate"
	permissionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/permissions"
	sidebaroptionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/sidebaroptions"
	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/access"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/activity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/identity"
	onboardingsvc "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/onboarding"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The service surface is a JSON API: the
// health endpoint and Google OAuth flow are public; everything under /api
// requires a signed-in caller.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// Stores.
	agencies := agencystore.New(db)
	subAccounts := subaccountstore.New(db)
	users := userstore.New(db)
	permissions := permissionstore.New(db)
	notifications := notificationstore.New(db)
	invitations := invitationstore.New(db)
	sidebarOptions := sidebaroptionstore.New(db)
	oauthStates := oauthstate.New(db)

	// Services. Identity metadata sync failures must never fail a request,
	// so the Mongo syncer is wrapped in the logging decorator.
	syncer := identity.NewLoggingSyncer(identity.NewMongoSyncer(db), logger)
	act := activity.New(users, subAccounts, notifications, logger)
	accessSvc := access.New(agencies, subAccounts, permissions, sidebarOptions)
	onboard := onboardingsvc.New(users, invitations, act, syncer, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the session caller into context so
	// handlers can use auth.CurrentCaller(r).
	r.Use(auth.LoadSessionCaller)

	// Health check endpoint for load balancers and orchestrators.
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Google OAuth sign-in (public).
	authHandler := authgooglefeature.NewHandler(oauthStates, onboard,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(authHandler))

	// Authenticated JSON API.
	r.Mount("/api/agencies", agenciesfeature.Routes(
		agenciesfeature.NewHandler(agencies, users, notifications, act, syncer, logger)))
	r.Mount("/api/subaccounts", subaccountsfeature.Routes(
		subaccountsfeature.NewHandler(subAccounts, users, accessSvc, act, logger)))
	r.Mount("/api/team", teamfeature.Routes(
		teamfeature.NewHandler(users, permissions, subAccounts, invitations, act, syncer, logger)))
	r.Mount("/api/sidebar", sidebarfeature.Routes(
		sidebarfeature.NewHandler(users, agencies, permissions, accessSvc, logger)))
	r.Mount("/api/onboarding", onboardingfeature.Routes(
		onboardingfeature.NewHandler(onboard, logger)))

	return r, nil
}
