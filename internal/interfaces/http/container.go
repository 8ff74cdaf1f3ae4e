package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	billingUsecases "github.com/orris-inc/tollgate/internal/application/billing/usecases"
	"github.com/orris-inc/tollgate/internal/application/billing/webhook"
	"github.com/orris-inc/tollgate/internal/application/notification"
	userUsecases "github.com/orris-inc/tollgate/internal/application/user/usecases"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/catalog"
	"github.com/orris-inc/tollgate/internal/infrastructure/auth"
	"github.com/orris-inc/tollgate/internal/infrastructure/cache"
	catalogLoader "github.com/orris-inc/tollgate/internal/infrastructure/catalog"
	"github.com/orris-inc/tollgate/internal/infrastructure/config"
	"github.com/orris-inc/tollgate/internal/infrastructure/metrics"
	"github.com/orris-inc/tollgate/internal/infrastructure/payment/stripegateway"
	"github.com/orris-inc/tollgate/internal/infrastructure/permission"
	"github.com/orris-inc/tollgate/internal/infrastructure/ratelimit"
	"github.com/orris-inc/tollgate/internal/infrastructure/queue"
	"github.com/orris-inc/tollgate/internal/infrastructure/repository"
	"github.com/orris-inc/tollgate/internal/interfaces/http/handlers"
	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
	"github.com/orris-inc/tollgate/internal/shared/db"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

type repositories struct {
	users    *repository.UserRepository
	subs     *repository.SubscriptionRepository
	ledger   *repository.CreditLedger
	invoices *repository.InvoiceRepository
	events   *repository.WebhookEventRepository
}

type allUseCases struct {
	ensureCustomer     *billingUsecases.EnsureCustomerUseCase
	ensureSubscription *billingUsecases.EnsureSubscriptionUseCase
	addCredits         *billingUsecases.AddCreditsUseCase
	consumeCredits     *billingUsecases.ConsumeCreditsUseCase
	overview           *billingUsecases.GetBillingOverviewUseCase
	subscribe          *billingUsecases.SubscribeUseCase
	purchaseCredits    *billingUsecases.PurchaseCreditsUseCase
	cancelSubscription *billingUsecases.CancelSubscriptionUseCase
	listInvoices       *billingUsecases.ListInvoicesUseCase
	listCreditActions  *billingUsecases.ListCreditActionsUseCase
	grantCredits       *billingUsecases.GrantCreditsUseCase
	resetSubscription  *billingUsecases.ResetSubscriptionUseCase
	createUser         *userUsecases.CreateUserUseCase
	getUser            *userUsecases.GetUserUseCase
	processor          *webhook.Processor
}

type allHandlers struct {
	billing  *handlers.BillingHandler
	admin    *handlers.AdminBillingHandler
	webhook  *handlers.WebhookHandler
	checkout *handlers.CheckoutHandler
	user     *handlers.UserHandler
	health   *handlers.HealthHandler
	example  *handlers.ExampleHandler
}

// Container holds all infrastructure components, repositories, use cases and
// handlers of the API process and wires them together.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client // nil when redis.enabled is false

	model   catalog.BillingModel
	catalog *catalog.Catalog
	metrics *metrics.Metrics

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	jwtSvc   *auth.JWTService
	enforcer *permission.Enforcer

	// Middlewares
	authMiddleware       *middleware.AuthMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
	billingGate          *middleware.BillingGate
	checkoutLimit        gin.HandlerFunc // nil without redis
}

// NewContainer wires the application. redisClient may be nil; the event lock
// then falls back to the event log alone and emails are not sent.
func NewContainer(cfg *config.Config, gdb *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	model, err := catalog.ParseBillingModel(cfg.Billing.Model)
	if err != nil {
		return nil, err
	}

	cat, err := catalogLoader.LoadFile(cfg.Billing.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan catalog: %w", err)
	}

	c := &Container{
		engine:  gin.New(),
		db:      gdb,
		cfg:     cfg,
		log:     log,
		redis:   redisClient,
		model:   model,
		catalog: cat,
		metrics: metrics.NewMetrics(nil),
	}

	// Section 1: Infrastructure - repositories, auth, casbin
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Billing - use cases and the webhook pipeline
	c.initBilling()

	// Section 3: Handlers and middlewares
	c.initHandlers()

	return c, nil
}

func (c *Container) initInfrastructure() error {
	c.repos = &repositories{
		users:    repository.NewUserRepository(c.db, c.log),
		subs:     repository.NewSubscriptionRepository(c.db),
		ledger:   repository.NewCreditLedger(c.db),
		invoices: repository.NewInvoiceRepository(c.db),
		events:   repository.NewWebhookEventRepository(c.db),
	}

	c.jwtSvc = auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.AccessExpMinutes)

	enforcer, err := permission.NewEnforcer(c.db, c.log)
	if err != nil {
		return fmt.Errorf("failed to create permission enforcer: %w", err)
	}
	if err := enforcer.SeedBillingPolicies(); err != nil {
		return fmt.Errorf("failed to seed billing policies: %w", err)
	}
	c.enforcer = enforcer
	return nil
}

func (c *Container) initBilling() {
	gateway := stripegateway.NewGateway(c.cfg.Stripe, c.log)
	urls := billingUsecases.NewCheckoutURLs(c.cfg.Server.BaseURL,
		c.cfg.Billing.CheckoutCompletePath, c.cfg.Billing.CheckoutCancelledPath)

	// A nil Enqueuer disables email; a typed nil pointer would not.
	var emails notification.Enqueuer
	var lock webhook.EventLock
	if c.redis != nil {
		emails = queue.NewEmailQueue(c.redis, queue.Options{
			Key:        c.cfg.Queue.EmailQueueKey,
			MaxRetries: c.cfg.Queue.MaxRetries,
			RetryDelay: c.cfg.Queue.RetryDelay,
		})
		lock = cache.NewEventLock(c.redis, c.cfg.Billing.EventLockTTL, c.log)
	}

	r := c.repos
	u := &allUseCases{}
	u.ensureCustomer = billingUsecases.NewEnsureCustomerUseCase(r.users, gateway, c.log)
	u.ensureSubscription = billingUsecases.NewEnsureSubscriptionUseCase(r.subs, c.log)
	u.addCredits = billingUsecases.NewAddCreditsUseCase(r.ledger, c.metrics, c.log)
	u.consumeCredits = billingUsecases.NewConsumeCreditsUseCase(r.ledger, r.users, c.metrics, c.log)
	u.overview = billingUsecases.NewGetBillingOverviewUseCase(r.users, r.subs, c.catalog, c.model, c.log)
	u.subscribe = billingUsecases.NewSubscribeUseCase(c.catalog, r.subs, u.ensureCustomer, gateway, urls, c.log)
	u.purchaseCredits = billingUsecases.NewPurchaseCreditsUseCase(c.catalog, u.ensureCustomer, gateway, urls, c.log)
	u.cancelSubscription = billingUsecases.NewCancelSubscriptionUseCase(r.subs, r.users, gateway, emails, c.log)
	u.listInvoices = billingUsecases.NewListInvoicesUseCase(r.invoices, c.log)
	u.listCreditActions = billingUsecases.NewListCreditActionsUseCase(r.ledger, c.log)
	u.grantCredits = billingUsecases.NewGrantCreditsUseCase(u.addCredits, c.log)
	u.resetSubscription = billingUsecases.NewResetSubscriptionUseCase(r.subs, c.log)
	u.createUser = userUsecases.NewCreateUserUseCase(r.users, u.ensureSubscription, u.ensureCustomer,
		db.NewTransactionManager(c.db), c.log)
	u.getUser = userUsecases.NewGetUserUseCase(r.users, r.subs, c.log)

	reconciler := webhook.NewReconciler(r.users, r.subs, r.invoices, c.catalog, gateway, u.addCredits,
		notification.NewNotifier(emails, c.log), c.log)
	router := webhook.NewRouter(reconciler.Registrations(), c.metrics, c.log)
	u.processor = webhook.NewProcessor(stripegateway.NewWebhookVerifier(c.cfg.Stripe.WebhookSecret),
		router, r.events, lock, c.metrics, c.log)

	c.ucs = u
}

func (c *Container) initHandlers() {
	u := c.ucs

	var pinger handlers.Pinger
	if sqlDB, err := c.db.DB(); err == nil {
		pinger = sqlDB
	}

	c.hdlrs = &allHandlers{
		billing: handlers.NewBillingHandler(u.overview, u.subscribe, u.cancelSubscription,
			u.purchaseCredits, u.consumeCredits, u.listInvoices, u.listCreditActions, c.log),
		admin:    handlers.NewAdminBillingHandler(u.overview, u.grantCredits, u.resetSubscription, c.log),
		webhook:  handlers.NewWebhookHandler(u.processor, c.log),
		checkout: handlers.NewCheckoutHandler(),
		user:     handlers.NewUserHandler(u.getUser, c.log),
		health:   handlers.NewHealthHandler(pinger),
		example:  handlers.NewExampleHandler(),
	}

	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, c.log)
	c.permissionMiddleware = middleware.NewPermissionMiddleware(c.enforcer, c.log)
	c.billingGate = middleware.NewBillingGate(u.ensureSubscription, u.consumeCredits, c.log)

	limit := ratelimit.Limit{
		PerMinute: c.cfg.Billing.CheckoutRateLimit.PerMinute,
		PerHour:   c.cfg.Billing.CheckoutRateLimit.PerHour,
	}
	if c.redis != nil && limit.Enabled() {
		c.checkoutLimit = middleware.RateLimit(ratelimit.NewRedisRateLimiter(c.redis), "checkout", limit, c.log)
	}
}

// premiumPlans is every catalog plan except the default, unless configured.
func (c *Container) premiumPlans() []string {
	if len(c.cfg.Billing.PremiumPlans) > 0 {
		return c.cfg.Billing.PremiumPlans
	}
	var keys []string
	for _, p := range c.catalog.Plans {
		if p.Key != billing.DefaultPlanKey {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// CreateUser exposes user creation to the CLI.
func (c *Container) CreateUser() *userUsecases.CreateUserUseCase {
	return c.ucs.createUser
}

func (c *Container) JWTService() *auth.JWTService {
	return c.jwtSvc
}

func (c *Container) Enforcer() *permission.Enforcer {
	return c.enforcer
}

// Shutdown releases resources owned by the container. The database and
// Redis client belong to the caller.
func (c *Container) Shutdown() {
	c.log.Infow("http container shut down")
}
